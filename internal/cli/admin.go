package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/perfumery/internal/model"
)

// productFlags are the editable catalog fields shared by add and update.
type productFlags struct {
	name, brand, perfType, gender, description string
	notes, categories, variants                []string
}

func (p *productFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.name, "name", "", "perfume name")
	cmd.Flags().StringVar(&p.brand, "brand", "", "brand")
	cmd.Flags().StringVar(&p.perfType, "type", "", "EDP|EDT|EDC|PARFUM")
	cmd.Flags().StringVar(&p.gender, "gender", "", "male|female|unisex")
	cmd.Flags().StringVar(&p.description, "description", "", "description")
	cmd.Flags().StringSliceVar(&p.notes, "note", nil, "scent note (repeatable)")
	cmd.Flags().StringSliceVar(&p.categories, "category", nil, "category id (repeatable)")
	cmd.Flags().StringArrayVar(&p.variants, "variant", nil, "volume:price:stock, e.g. 50:89.90:10 (repeatable)")
}

// perfume builds the request body from the flags that were set.
func (p *productFlags) perfume() (model.Perfume, error) {
	out := model.Perfume{
		Name:        strings.TrimSpace(p.name),
		Brand:       strings.TrimSpace(p.brand),
		Type:        model.PerfumeType(strings.ToUpper(p.perfType)),
		Gender:      p.gender,
		Description: p.description,
		Notes:       p.notes,
	}
	for _, id := range p.categories {
		out.Categories = append(out.Categories, model.Category{ID: id})
	}
	for _, spec := range p.variants {
		v, err := parseVariant(spec)
		if err != nil {
			return model.Perfume{}, err
		}
		out.Variants = append(out.Variants, v)
	}
	return out, nil
}

func parseVariant(spec string) (model.PerfumeVariant, error) {
	vol, price, stock, ok := splitTriple(spec)
	if !ok {
		return model.PerfumeVariant{}, usageError("bad --variant %q: want volume:price:stock", spec)
	}
	volume, ok := atoiPositive(vol)
	if !ok {
		return model.PerfumeVariant{}, usageError("bad volume in --variant %q", spec)
	}
	p, err := decimal.NewFromString(price)
	if err != nil || !p.IsPositive() {
		return model.PerfumeVariant{}, usageError("bad price in --variant %q", spec)
	}
	n, err := strconv.Atoi(stock)
	if err != nil || n < 0 {
		return model.PerfumeVariant{}, usageError("bad stock in --variant %q", spec)
	}
	return model.PerfumeVariant{Volume: volume, BasePrice: p, Price: p, Stock: n, Active: true}, nil
}

func newProductsCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Add, update and remove catalog entries",
	}

	var addFlags productFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a perfume to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			body, err := addFlags.perfume()
			if err != nil {
				return err
			}
			if body.Name == "" || body.Brand == "" || len(body.Variants) == 0 {
				return usageError("--name, --brand and at least one --variant are required")
			}
			p, err := app.Client.AddPerfume(cmd.Context(), body)
			if err != nil {
				return err
			}
			return f.Emit(p, func() { fmt.Fprintf(f.Writer, "Added %s %s as %s\n", p.Brand, p.Name, p.ID) })
		},
	}
	addFlags.bind(add)

	var updFlags productFlags
	update := &cobra.Command{
		Use:   "update <perfume-id>",
		Short: "Change catalog fields; unset flags are left alone",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			patch, err := updFlags.perfume()
			if err != nil {
				return err
			}
			p, err := app.Client.UpdatePerfume(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return f.Emit(p, func() { fmt.Fprintf(f.Writer, "Updated %s (%s %s)\n", p.ID, p.Brand, p.Name) })
		},
	}
	updFlags.bind(update)

	remove := &cobra.Command{
		Use:   "remove <perfume-id>",
		Short: "Remove a perfume from the catalog",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if err := app.Client.DeletePerfume(cmd.Context(), args[0]); err != nil {
				return err
			}
			return f.Emit(map[string]string{"removed": args[0]}, func() {
				fmt.Fprintf(f.Writer, "Removed %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(add, update, remove)
	return cmd
}

const dateLayout = "2006-01-02"

func newDiscountsCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discounts",
		Short: "Discount campaigns",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List discount campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			discounts, err := app.Client.Discounts(cmd.Context())
			if err != nil {
				return err
			}
			return f.Emit(discounts, func() {
				if len(discounts) == 0 {
					fmt.Fprintln(f.Writer, "No discounts")
					return
				}
				for _, d := range discounts {
					state := "inactive"
					if d.Active {
						state = "active"
					}
					f.Printf("%-6s %-16s %5.1f%%  %s .. %s  %s\n", d.ID, truncate(d.Name, 16), d.DiscountRate, d.StartDate, d.EndDate, state)
					for _, p := range d.Perfumes {
						fmt.Fprintf(f.Writer, "    %s %s: %s -> %s\n", p.Brand, p.Name, money(p.OriginalPrice), money(p.DiscountedPrice))
					}
				}
			})
		},
	}

	var (
		name, start, end string
		rate             float64
		perfumes         []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a discount campaign (sales manager)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			from, err := time.Parse(dateLayout, start)
			if err != nil {
				return usageError("--start must be YYYY-MM-DD")
			}
			to, err := time.Parse(dateLayout, end)
			if err != nil {
				return usageError("--end must be YYYY-MM-DD")
			}
			if rate <= 0 || rate > 100 {
				return usageError("--rate must be in (0, 100]")
			}
			d, err := app.Client.CreateDiscount(cmd.Context(), model.NewDiscountFor(name, rate, from, to, perfumes))
			if err != nil {
				return err
			}
			return f.Emit(d, func() {
				f.Printf("Created discount %s: %s, %.1f%% on %d perfume(s)\n", d.ID, d.Name, d.DiscountRate, len(d.Perfumes))
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "campaign name")
	create.Flags().Float64Var(&rate, "rate", 0, "discount percentage")
	create.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	create.Flags().StringVar(&end, "end", "", "end day, YYYY-MM-DD")
	create.Flags().StringSliceVar(&perfumes, "perfume", nil, "perfume id (repeatable)")
	for _, flag := range []string{"name", "rate", "start", "end"} {
		_ = create.MarkFlagRequired(flag)
	}

	remove := &cobra.Command{
		Use:   "delete <discount-id>",
		Short: "Delete a discount campaign (sales manager)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if err := app.Client.DeleteDiscount(cmd.Context(), args[0]); err != nil {
				return err
			}
			return f.Emit(map[string]string{"deleted": args[0]}, func() {
				fmt.Fprintf(f.Writer, "Deleted discount %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(list, create, remove)
	return cmd
}
