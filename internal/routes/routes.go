// Package routes maps a user role to the command tree the CLI mounts.
//
// The trees are display routing only. The server enforces access; a
// command missing from a tree is simply not offered.
package routes

import (
	"fmt"
	"strings"

	"github.com/roach88/perfumery/internal/model"
)

// Route is one top-level command.
type Route struct {
	Path    string // command name, also the builder key in the CLI
	Title   string
	Summary string
}

// Tree is the set of routes one role sees, in menu order.
type Tree struct {
	Role   model.Role
	Name   string
	Routes []Route
}

var (
	auth       = Route{"auth", "Sign in", "Sign in, register and sign out"}
	perfumes   = Route{"perfumes", "Perfumes", "Browse and search the catalog"}
	categories = Route{"categories", "Categories", "List perfume categories"}
	cart       = Route{"cart", "Cart", "View and change the basket"}
	checkout   = Route{"checkout", "Checkout", "Place an order for the basket"}
	orders     = Route{"orders", "Orders", "Order history and status"}
	refunds    = Route{"refunds", "Refunds", "Refund requests"}
	reviews    = Route{"reviews", "Reviews", "Read, write and moderate reviews"}
	wishlist   = Route{"wishlist", "Wishlist", "Saved perfumes"}
	account    = Route{"account", "Account", "Profile and password"}
	products   = Route{"products", "Products", "Add, update and remove catalog entries"}
	discounts  = Route{"discounts", "Discounts", "Discount campaigns"}
)

// Customer is the storefront tree. It is also used for anonymous sessions.
var Customer = Tree{
	Role:   model.RoleCustomer,
	Name:   "storefront",
	Routes: []Route{auth, perfumes, categories, cart, checkout, orders, refunds, reviews, wishlist, account},
}

// ProductManager is the catalog admin tree.
var ProductManager = Tree{
	Role:   model.RoleProductManager,
	Name:   "product admin",
	Routes: []Route{auth, perfumes, products, categories, reviews, orders, account},
}

// SalesManager is the sales admin tree.
var SalesManager = Tree{
	Role:   model.RoleSalesManager,
	Name:   "sales admin",
	Routes: []Route{auth, perfumes, discounts, refunds, orders, account},
}

// Select returns the tree for role. Unknown and empty roles get Customer.
func Select(role model.Role) Tree {
	switch role {
	case model.RoleProductManager:
		return ProductManager
	case model.RoleSalesManager:
		return SalesManager
	default:
		return Customer
	}
}

// Trees lists every tree.
func Trees() []Tree {
	return []Tree{Customer, ProductManager, SalesManager}
}

// Has reports whether the tree contains a route with the given path.
func (t Tree) Has(path string) bool {
	_, ok := t.Find(path)
	return ok
}

// Find returns the route with the given path.
func (t Tree) Find(path string) (Route, bool) {
	for _, r := range t.Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Paths returns the route paths in menu order.
func (t Tree) Paths() []string {
	out := make([]string, len(t.Routes))
	for i, r := range t.Routes {
		out[i] = r.Path
	}
	return out
}

// Render formats the tree as an indented menu.
func (t Tree) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", t.Name, t.Role)
	for _, r := range t.Routes {
		fmt.Fprintf(&b, "  %-11s %s\n", r.Path, r.Summary)
	}
	return b.String()
}
