package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/perfumery/internal/model"
)

func newPerfumesCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perfumes",
		Short: "Browse and search the catalog",
	}
	cmd.AddCommand(
		newPerfumeSearchCommand(app, opts),
		newPerfumeShowCommand(app, opts),
	)
	return cmd
}

func newPerfumeSearchCommand(app *App, opts *RootOptions) *cobra.Command {
	var (
		filter     model.PerfumeFilter
		genders    []string
		perfType   string
		sortBy     string
		minP, maxP float64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search perfumes by brand, category, gender, type and price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)

			for _, g := range genders {
				filter.Genders = append(filter.Genders, model.Gender(g))
			}
			filter.Type = model.PerfumeType(strings.ToUpper(perfType))
			if sortBy != "" {
				s := model.SortOption(sortBy)
				if !s.Valid() {
					return usageError("unknown sort %q: want one of %v", sortBy, model.SortOptions)
				}
				filter.SortBy = s
			}
			if cmd.Flags().Changed("min-price") {
				filter.MinPrice = &minP
			}
			if cmd.Flags().Changed("max-price") {
				filter.MaxPrice = &maxP
			}

			perfumes, err := app.Client.SearchPerfumes(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return f.Emit(perfumes, func() {
				if filter.SortBy != "" {
					f.Printf("sorted by %s\n", filter.SortBy.DisplayName())
				}
				printPerfumes(f, perfumes)
			})
		},
	}

	cmd.Flags().StringSliceVar(&filter.Brands, "brand", nil, "brand name (repeatable)")
	cmd.Flags().StringSliceVar(&filter.CategoryIDs, "category", nil, "category id (repeatable)")
	cmd.Flags().StringSliceVar(&genders, "gender", nil, "male|female|other (repeatable)")
	cmd.Flags().StringVar(&perfType, "type", "", "EDP|EDT|EDC|PARFUM")
	cmd.Flags().Float64Var(&minP, "min-price", 0, "lowest price")
	cmd.Flags().Float64Var(&maxP, "max-price", 0, "highest price")
	cmd.Flags().StringVar(&sortBy, "sort", "", "price_asc|price_desc|best_seller|rating|name_asc|name_desc|newest|oldest")
	return cmd
}

func printPerfumes(f *OutputFormatter, perfumes []model.Perfume) {
	if len(perfumes) == 0 {
		fmt.Fprintln(f.Writer, "No perfumes found")
		return
	}
	for _, p := range perfumes {
		from := "-"
		if v, ok := p.CheapestVariant(); ok {
			from = money(v.Price)
		}
		fmt.Fprintf(f.Writer, "%-6s %-18s %-24s %-6s from %s\n",
			p.ID, truncate(p.Brand, 18), truncate(p.Name, 24), p.Type, from)
	}
	f.Printf("%d perfume(s)\n", len(perfumes))
}

func newPerfumeShowCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <perfume-id>",
		Short: "Show a perfume with its variants and rating",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			d, err := app.Client.GetPerfume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return f.Emit(d, func() { printPerfume(f, d) })
		},
	}
}

func printPerfume(f *OutputFormatter, d model.PerfumeDetail) {
	fmt.Fprintf(f.Writer, "%s by %s [%s]\n", d.Name, d.Brand, d.ID)
	if d.Type != "" || d.Gender != "" {
		fmt.Fprintf(f.Writer, "%s %s\n", d.Type, d.Gender)
	}
	if len(d.Notes) > 0 {
		fmt.Fprintf(f.Writer, "notes: %s\n", strings.Join(d.Notes, ", "))
	}
	f.Printf("rating: %.1f (%d review(s))\n", d.AverageRating, d.ReviewCount)
	if d.ActiveDiscount != nil {
		f.Printf("discount: %.0f%%\n", d.ActiveDiscount.Rate)
	}
	for _, v := range d.Variants {
		price := money(v.Price)
		if d.ActiveDiscount != nil {
			price += " -> " + money(d.CartItem(v, 1).DiscountedPrice)
		}
		state := ""
		if !v.Active {
			state = " (unavailable)"
		}
		f.Printf("  %4dml  %s  stock %d%s\n", v.Volume, price, v.Stock, state)
	}
}

func newCategoriesCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List perfume categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			cats, err := app.Client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			return f.Emit(cats, func() {
				for _, c := range cats {
					fmt.Fprintf(f.Writer, "%-6s %s\n", c.ID, c.Name)
				}
			})
		},
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category (product manager)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			c, err := app.Client.CreateCategory(cmd.Context(), model.NewCategory{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			return f.Emit(c, func() { fmt.Fprintf(f.Writer, "Created category %s (%s)\n", c.Name, c.ID) })
		},
	}
	create.Flags().StringVar(&description, "description", "", "category description")

	remove := &cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category (product manager)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if err := app.Client.DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			return f.Emit(map[string]string{"deleted": args[0]}, func() {
				fmt.Fprintf(f.Writer, "Deleted category %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(list, create, remove)
	return cmd
}

func newWishlistCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Saved perfumes",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved perfumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			perfumes, err := app.Client.Wishlist(cmd.Context())
			if err != nil {
				return err
			}
			return f.Emit(perfumes, func() { printPerfumes(f, perfumes) })
		},
	}

	add := &cobra.Command{
		Use:   "add <perfume-id>",
		Short: "Save a perfume",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if err := app.Client.AddToWishlist(cmd.Context(), args[0]); err != nil {
				return err
			}
			return f.Emit(map[string]string{"added": args[0]}, func() {
				fmt.Fprintf(f.Writer, "Saved %s\n", args[0])
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <perfume-id>",
		Short: "Forget a saved perfume",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if err := app.Client.RemoveFromWishlist(cmd.Context(), args[0]); err != nil {
				return err
			}
			return f.Emit(map[string]string{"removed": args[0]}, func() {
				fmt.Fprintf(f.Writer, "Removed %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
