package cart

import "github.com/roach88/perfumery/internal/model"

// Action is a typed basket mutation. The set is closed: AddItem,
// RemoveItem, ClearItems and ReplaceItems.
type Action interface {
	// Name is the journal name of the action.
	Name() string
	isAction()
}

// AddItem merges Item into the basket by (PerfumeID, Volume).
type AddItem struct {
	Item model.CartItem
}

// RemoveItem takes Quantity units off the matching line. A Quantity of
// zero or less removes the whole line.
type RemoveItem struct {
	PerfumeID string
	Volume    int
	Quantity  int
}

// ClearItems empties the basket.
type ClearItems struct{}

// ReplaceItems swaps the basket for the server's authoritative lines.
type ReplaceItems struct {
	Items []model.CartItem
}

func (AddItem) Name() string      { return "add" }
func (RemoveItem) Name() string   { return "remove" }
func (ClearItems) Name() string   { return "clear" }
func (ReplaceItems) Name() string { return "replace" }

func (AddItem) isAction()      {}
func (RemoveItem) isAction()   {}
func (ClearItems) isAction()   {}
func (ReplaceItems) isAction() {}

// Reduce applies a to items and returns the new basket. The input slice is
// never modified.
//
// INVARIANT: every line of the result has Quantity > 0 and appears once per
// (PerfumeID, Volume).
func Reduce(items []model.CartItem, a Action) []model.CartItem {
	switch act := a.(type) {
	case AddItem:
		return add(items, act.Item)
	case RemoveItem:
		return remove(items, act)
	case ClearItems:
		return []model.CartItem{}
	case ReplaceItems:
		return normalize(act.Items)
	default:
		return clone(items)
	}
}

func add(items []model.CartItem, item model.CartItem) []model.CartItem {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	out := clone(items)
	for i := range out {
		if out[i].Key() == item.Key() {
			out[i].Quantity += item.Quantity
			return out
		}
	}
	return append(out, item)
}

func remove(items []model.CartItem, act RemoveItem) []model.CartItem {
	key := model.LineKey{PerfumeID: act.PerfumeID, Volume: act.Volume}
	out := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if it.Key() != key {
			out = append(out, it)
			continue
		}
		if act.Quantity <= 0 || it.Quantity <= act.Quantity {
			continue
		}
		it.Quantity -= act.Quantity
		out = append(out, it)
	}
	return out
}

// normalize folds duplicate lines together and drops empty ones, so a
// malformed server response cannot break the basket invariant.
func normalize(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	index := make(map[model.LineKey]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.Key()]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.Key()] = len(out)
		out = append(out, it)
	}
	return out
}

func clone(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, len(items))
	copy(out, items)
	return out
}
