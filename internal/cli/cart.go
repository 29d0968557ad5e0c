package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/perfumery/internal/cart"
	"github.com/roach88/perfumery/internal/model"
)

// basketView is the JSON shape of cart commands.
type basketView struct {
	Seq   int64      `json:"seq"`
	Units int        `json:"units"`
	Cart  model.Cart `json:"cart"`
}

func viewOf(snap cart.Snapshot) basketView {
	c := snap.Cart()
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}
	return basketView{Seq: snap.Seq, Units: snap.Count(), Cart: c}
}

func printBasket(f *OutputFormatter, snap cart.Snapshot) {
	if len(snap.Items) == 0 {
		fmt.Fprintln(f.Writer, "Basket is empty")
		return
	}
	c := snap.Cart()
	for _, it := range c.Items {
		f.Printf("  %-10s %-28s x%-3d %8s\n",
			it.Key().String(), truncate(it.Brand+" "+it.PerfumeName, 28), it.Quantity, money(it.LineDiscountedTotal()))
	}
	if c.TotalDiscountedPrice.Equal(c.TotalPrice) {
		f.Printf("total %s (%d item(s))\n", money(c.TotalPrice), snap.Count())
		return
	}
	f.Printf("total %s, after discounts %s (%d item(s))\n", money(c.TotalPrice), money(c.TotalDiscountedPrice), snap.Count())
}

func newCartCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "View and change the basket",
	}
	cmd.AddCommand(
		newCartShowCommand(app, opts),
		newCartAddCommand(app, opts),
		newCartRemoveCommand(app, opts),
		newCartSyncCommand(app, opts),
		newCartClearCommand(app, opts),
		newCartHistoryCommand(app, opts),
	)
	return cmd
}

// emitBasket prints snap, then returns opErr so a failed remote call still
// shows the local basket.
func emitBasket(f *OutputFormatter, snap cart.Snapshot, opErr error) error {
	if err := f.Emit(viewOf(snap), func() { printBasket(f, snap) }); err != nil {
		return err
	}
	return opErr
}

func newCartShowCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the basket, refreshed from the account when signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			snap, err := app.Cart.Load(cmd.Context())
			return emitBasket(f, snap, err)
		},
	}
}

func newCartAddCommand(app *App, opts *RootOptions) *cobra.Command {
	var volume, quantity int

	cmd := &cobra.Command{
		Use:   "add <perfume-id>",
		Short: "Add a perfume to the basket",
		Long: `Add a perfume to the basket. Without --volume the cheapest available
volume is used. Adding a line already in the basket increases its quantity.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			ctx := cmd.Context()

			d, err := app.Client.GetPerfume(ctx, args[0])
			if err != nil {
				return err
			}
			var v model.PerfumeVariant
			if volume == 0 {
				cheapest, ok := d.CheapestVariant()
				if !ok {
					return usageError("%s has no available volume", d.ID)
				}
				v = cheapest
			} else {
				found, ok := d.Variant(volume)
				if !ok || !found.Active {
					return usageError("%s is not sold in %dml", d.ID, volume)
				}
				v = found
			}

			snap, err := app.Cart.AddToBasket(ctx, d.CartItem(v, quantity))
			f.VerboseLog("added %s/%dml x%d at seq %d", d.ID, v.Volume, quantity, snap.Seq)
			return emitBasket(f, snap, err)
		},
	}

	cmd.Flags().IntVar(&volume, "volume", 0, "volume in ml")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "units to add")
	return cmd
}

func newCartRemoveCommand(app *App, opts *RootOptions) *cobra.Command {
	var volume, quantity int

	cmd := &cobra.Command{
		Use:   "remove <perfume-id>",
		Short: "Take units of a line off the basket",
		Long: `Take units of a line off the basket. Without --quantity, or when the
quantity covers the line, the whole line is removed.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			key := model.LineKey{PerfumeID: args[0], Volume: volume}
			if _, ok := app.Cart.Snapshot().Find(key); !ok {
				return usageError("%s is not in the basket", key)
			}
			snap, err := app.Cart.RemoveFromBasket(cmd.Context(), args[0], volume, quantity)
			return emitBasket(f, snap, err)
		},
	}

	cmd.Flags().IntVar(&volume, "volume", 0, "volume in ml")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 0, "units to remove, 0 for the whole line")
	_ = cmd.MarkFlagRequired("volume")
	return cmd
}

func newCartSyncCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge the basket with the account cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if !app.Session.IsAuthenticated() {
				f.VerboseLog("not signed in, nothing to sync")
			}
			snap, err := app.Cart.SyncCart(cmd.Context())
			return emitBasket(f, snap, err)
		},
	}
}

func newCartClearCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the basket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			snap, err := app.Cart.EmptyCart(cmd.Context())
			return emitBasket(f, snap, err)
		},
	}
}

func newCartHistoryCommand(app *App, opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the local journal of basket changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			events, err := app.Store.ReadCartEvents(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return f.Emit(events, func() {
				if len(events) == 0 {
					fmt.Fprintln(f.Writer, "No basket changes recorded")
					return
				}
				for _, ev := range events {
					printEvent(f, ev)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries, 0 for all")
	return cmd
}

func printEvent(f *OutputFormatter, ev model.CartEvent) {
	var b strings.Builder
	fmt.Fprintf(&b, "%4d %-6s", ev.Seq, ev.Action)
	if ev.PerfumeID != "" {
		fmt.Fprintf(&b, " %s", model.LineKey{PerfumeID: ev.PerfumeID, Volume: ev.Volume})
	}
	if ev.Quantity != 0 {
		fmt.Fprintf(&b, " x%d", ev.Quantity)
	}
	fmt.Fprintf(&b, " [%s]", ev.Outcome)
	if ev.Error != "" {
		fmt.Fprintf(&b, " %s", ev.Error)
	}
	fmt.Fprintln(f.Writer, b.String())
}

func newCheckoutCommand(app *App, opts *RootOptions) *cobra.Command {
	var (
		req    model.MakeOrderRequest
		expiry string
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the basket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			ctx := cmd.Context()

			if !app.Session.IsAuthenticated() {
				return errNotSignedIn()
			}
			mm, yy, ok := strings.Cut(expiry, "/")
			if !ok || len(mm) != 2 || len(yy) != 2 {
				return usageError("--expiry must be MM/YY")
			}
			req.ExpiryDateMM, req.ExpiryDateYY = mm, yy
			req.CardNumber = strings.ReplaceAll(req.CardNumber, " ", "")

			// the order is placed from the server cart
			if err := app.Cart.Flush(ctx); err != nil {
				return err
			}
			order, err := app.Client.MakeOrder(ctx, req)
			if err != nil {
				return err
			}
			// the server empties the cart with the order
			if _, err := app.Cart.Load(ctx); err != nil {
				return err
			}
			return f.Emit(order, func() {
				f.Printf("Order %s placed: %s, invoice %s\n", order.OrderID, money(order.TotalAmount), order.InvoiceNumber)
				if len(order.AppliedCampaigns) > 0 {
					fmt.Fprintf(f.Writer, "campaigns: %s\n", strings.Join(order.AppliedCampaigns, ", "))
				}
			})
		},
	}

	cmd.Flags().StringVar(&req.ShippingAddress, "address", "", "shipping address")
	cmd.Flags().StringVar(&req.TaxID, "tax-id", "", "tax id")
	cmd.Flags().StringSliceVar(&req.CampaignIDs, "campaign", nil, "discount campaign id (repeatable)")
	cmd.Flags().StringVar(&req.CardNumber, "card", "", "card number")
	cmd.Flags().StringVar(&req.CardHolder, "holder", "", "card holder")
	cmd.Flags().StringVar(&expiry, "expiry", "", "card expiry MM/YY")
	cmd.Flags().StringVar(&req.CVV, "cvv", "", "card security code")
	for _, name := range []string{"address", "card", "holder", "expiry", "cvv"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
