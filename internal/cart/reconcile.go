package cart

import "github.com/roach88/perfumery/internal/model"

// LocalOnly returns the local lines whose key is absent from the server cart.
func LocalOnly(local, remote []model.CartItem) []model.CartItem {
	known := make(map[model.LineKey]bool, len(remote))
	for _, it := range remote {
		known[it.Key()] = true
	}
	var out []model.CartItem
	for _, it := range local {
		if !known[it.Key()] {
			out = append(out, it)
		}
	}
	return out
}

// Union builds the sync body: every server line with its server quantity,
// followed by the local-only lines.
func Union(local, remote []model.CartItem) []model.SyncItem {
	out := make([]model.SyncItem, 0, len(remote)+len(local))
	for _, it := range remote {
		out = append(out, it.SyncItem())
	}
	for _, it := range LocalOnly(local, remote) {
		out = append(out, it.SyncItem())
	}
	return out
}
