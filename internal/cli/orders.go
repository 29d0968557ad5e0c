package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/perfumery/internal/model"
)

func newOrdersCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Order history and status",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			orders, err := app.Client.Orders(cmd.Context())
			if err != nil {
				return err
			}
			return f.Emit(orders, func() { printOrders(f, orders, false) })
		},
	}

	all := &cobra.Command{
		Use:   "all",
		Short: "List every customer's orders (managers)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			orders, err := app.Client.AllOrders(cmd.Context())
			if err != nil {
				return err
			}
			return f.Emit(orders, func() { printOrders(f, orders, true) })
		},
	}

	status := &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Move an order to PROCESSING, SHIPPED, DELIVERED or CANCELLED (managers)",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			st := model.OrderStatus(strings.ToUpper(args[1]))
			if !st.Valid() {
				return usageError("unknown order status %q", args[1])
			}
			if err := app.Client.UpdateOrderStatus(cmd.Context(), args[0], st); err != nil {
				return err
			}
			return f.Emit(map[string]string{"orderId": args[0], "status": string(st)}, func() {
				fmt.Fprintf(f.Writer, "Order %s is now %s\n", args[0], st)
			})
		},
	}

	report := &cobra.Command{
		Use:   "report",
		Short: "Revenue over all non-cancelled orders (managers)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			orders, err := app.Client.AllOrders(cmd.Context())
			if err != nil {
				return err
			}
			r := model.Summarize(orders)
			return f.Emit(r, func() { printReport(f, r) })
		},
	}

	cmd.AddCommand(list, all, status, report)
	return cmd
}

func printOrders(f *OutputFormatter, orders []model.Order, withCustomer bool) {
	if len(orders) == 0 {
		fmt.Fprintln(f.Writer, "No orders")
		return
	}
	for _, o := range orders {
		line := fmt.Sprintf("%-8s %-10s %-10s %8s", o.OrderID, o.CreatedAt.Format("2006-01-02"), o.Status, money(o.TotalAmount))
		if withCustomer {
			line += "  " + o.UserEmail
		}
		fmt.Fprintln(f.Writer, line)
		for _, it := range o.Items {
			fmt.Fprintf(f.Writer, "    %s %dml x%d\n", it.PerfumeName, it.Volume, it.Quantity)
		}
	}
}

func printReport(f *OutputFormatter, r model.SalesReport) {
	f.Printf("orders:     %d\n", r.Orders)
	f.Printf("units sold: %d\n", r.UnitsSold)
	fmt.Fprintf(f.Writer, "revenue:    %s\n", money(r.Revenue))

	statuses := make([]string, 0, len(r.ByStatus))
	for s := range r.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		f.Printf("  %-10s %d\n", s, r.ByStatus[model.OrderStatus(s)])
	}

	names := make([]string, 0, len(r.ByPerfume))
	for n := range r.ByPerfume {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(f.Writer, "  %-24s %s\n", truncate(n, 24), money(r.ByPerfume[n]))
	}
}

func newRefundsCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refunds",
		Short: "Refund requests",
	}

	var lines []string
	request := &cobra.Command{
		Use:   "request <order-id>",
		Short: "Ask for a refund of delivered items",
		Long: `Ask for a refund of delivered items. Each --item is
perfume-id:volume:quantity, e.g. --item p1:50:1.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			req := model.RefundRequest{}
			for _, spec := range lines {
				id, vol, qty, ok := splitTriple(spec)
				volume, okV := atoiPositive(vol)
				quantity, okQ := atoiPositive(qty)
				if !ok || !okV || !okQ || id == "" {
					return usageError("bad --item %q: want perfume-id:volume:quantity", spec)
				}
				req.Items = append(req.Items, model.RefundLine{PerfumeID: id, Volume: volume, Quantity: quantity})
			}
			if len(req.Items) == 0 {
				return usageError("at least one --item is required")
			}
			r, err := app.Client.RequestRefund(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return f.Emit(r, func() {
				fmt.Fprintf(f.Writer, "Refund %s requested for %s (%s)\n", r.RefundRequestID, money(r.TotalRefundAmount), r.Status)
			})
		},
	}
	request.Flags().StringArrayVar(&lines, "item", nil, "perfume-id:volume:quantity (repeatable)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List your refund requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			refunds, err := app.Client.RefundRequests(cmd.Context())
			if err != nil {
				return err
			}
			return f.Emit(refunds, func() { printRefunds(f, refunds, false) })
		},
	}

	var status string
	all := &cobra.Command{
		Use:   "all",
		Short: "List every refund request (sales manager)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			st := model.RefundStatus(strings.ToUpper(status))
			switch st {
			case "", model.RefundPending, model.RefundApproved, model.RefundRejected:
			default:
				return usageError("unknown refund status %q", status)
			}
			refunds, err := app.Client.AllRefundRequests(cmd.Context())
			if err != nil {
				return err
			}
			refunds = model.FilterRefunds(refunds, st)
			return f.Emit(refunds, func() { printRefunds(f, refunds, true) })
		},
	}
	all.Flags().StringVar(&status, "status", "", "PENDING|APPROVED|REJECTED")

	decide := func(use, short, verb string, fn func(*cobra.Command, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <refund-id>",
			Short: short,
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f := newFormatter(opts, cmd)
				if err := fn(cmd, args[0]); err != nil {
					return err
				}
				return f.Emit(map[string]string{"refundRequestId": args[0], "decision": verb}, func() {
					fmt.Fprintf(f.Writer, "Refund %s %s\n", args[0], verb)
				})
			},
		}
	}
	approve := decide("approve", "Approve a pending refund (sales manager)", "approved", func(cmd *cobra.Command, id string) error {
		return app.Client.ApproveRefund(cmd.Context(), id)
	})
	reject := decide("reject", "Reject a pending refund (sales manager)", "rejected", func(cmd *cobra.Command, id string) error {
		return app.Client.RejectRefund(cmd.Context(), id)
	})

	cmd.AddCommand(request, list, all, approve, reject)
	return cmd
}

func printRefunds(f *OutputFormatter, refunds []model.Refund, withCustomer bool) {
	if len(refunds) == 0 {
		fmt.Fprintln(f.Writer, "No refund requests")
		return
	}
	for _, r := range refunds {
		line := fmt.Sprintf("%-8s order %-8s %-9s %8s", r.RefundRequestID, r.OrderID, r.Status, money(r.TotalRefundAmount))
		if withCustomer {
			line += "  " + r.UserEmail
		}
		fmt.Fprintln(f.Writer, line)
	}
}

func newReviewsCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Read, write and moderate reviews",
	}

	list := &cobra.Command{
		Use:   "list <perfume-id>",
		Short: "Approved reviews of a perfume",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			reviews, err := app.Client.PublicReviews(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return f.Emit(reviews, func() {
				if len(reviews) == 0 {
					fmt.Fprintln(f.Writer, "No reviews yet")
					return
				}
				for _, r := range reviews {
					fmt.Fprintf(f.Writer, "%s: %s\n", r.User, r.Comment)
				}
			})
		},
	}

	write := &cobra.Command{
		Use:   "write <perfume-id> <comment>",
		Short: "Write a review, shown once approved",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if err := app.Client.WriteReview(cmd.Context(), args[0], model.NewReview{Comment: args[1]}); err != nil {
				return err
			}
			return f.Emit(map[string]string{"perfumeId": args[0], "status": "pending"}, func() {
				fmt.Fprintln(f.Writer, "Review submitted for approval")
			})
		},
	}

	rating := &cobra.Command{
		Use:   "rating <perfume-id>",
		Short: "Rating summary of a perfume",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			r, err := app.Client.Rating(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return f.Emit(r, func() {
				f.Printf("%.2f from %d rating(s)\n", r.AverageRating, r.RatingCount)
				for star := 5; star >= 1; star-- {
					f.Printf("  %d: %d\n", star, r.RatingCounts[strconv.Itoa(star)])
				}
				if r.IsRated {
					f.Printf("your rating: %d\n", r.UserRating)
				}
			})
		},
	}

	rate := &cobra.Command{
		Use:   "rate <perfume-id> <1-5>",
		Short: "Rate a perfume",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			stars, err := strconv.Atoi(args[1])
			if err != nil || stars < 1 || stars > 5 {
				return usageError("rating must be 1 to 5, got %q", args[1])
			}
			if err := app.Client.Rate(cmd.Context(), args[0], model.NewRating{Rating: stars}); err != nil {
				return err
			}
			return f.Emit(map[string]any{"perfumeId": args[0], "rating": stars}, func() {
				fmt.Fprintf(f.Writer, "Rated %s %d/5\n", args[0], stars)
			})
		},
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "Reviews waiting for moderation (product manager)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			all, err := app.Client.AllReviews(cmd.Context())
			if err != nil {
				return err
			}
			waiting := make([]model.ReviewExtended, 0, len(all))
			for _, r := range all {
				if !r.IsApproved {
					waiting = append(waiting, r)
				}
			}
			return f.Emit(waiting, func() {
				if len(waiting) == 0 {
					fmt.Fprintln(f.Writer, "Nothing to moderate")
					return
				}
				for _, r := range waiting {
					fmt.Fprintf(f.Writer, "%-6s %-20s %s: %s\n", r.ID, truncate(r.PerfumeName, 20), r.User, r.Comment)
				}
			})
		},
	}

	moderate := func(verb string, fn func(*cobra.Command, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   verb + " <review-id>",
			Short: strings.ToUpper(verb[:1]) + verb[1:] + " a review (product manager)",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f := newFormatter(opts, cmd)
				if err := fn(cmd, args[0]); err != nil {
					return err
				}
				return f.Emit(map[string]string{"reviewId": args[0], "decision": verb}, func() {
					fmt.Fprintf(f.Writer, "Review %s: %s\n", args[0], verb)
				})
			},
		}
	}
	approve := moderate("approve", func(cmd *cobra.Command, id string) error {
		return app.Client.ApproveReview(cmd.Context(), id)
	})
	reject := moderate("reject", func(cmd *cobra.Command, id string) error {
		return app.Client.RejectReview(cmd.Context(), id)
	})

	cmd.AddCommand(list, write, rating, rate, pending, approve, reject)
	return cmd
}
