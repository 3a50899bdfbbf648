package game

// Inventory is an ordered, immutable sequence of item identifiers.
// Mutating operations return a new value.
type Inventory struct {
	items []string
}

// NewInventory creates an inventory from the given items, preserving order
func NewInventory(items ...string) Inventory {
	return Inventory{items: append([]string(nil), items...)}
}

// Items returns a copy of the item identifiers in order
func (i Inventory) Items() []string {
	return append([]string(nil), i.items...)
}

// Len returns the number of items held
func (i Inventory) Len() int {
	return len(i.items)
}

// Has reports whether the inventory contains the item
func (i Inventory) Has(item string) bool {
	for _, it := range i.items {
		if it == item {
			return true
		}
	}
	return false
}

// Add returns a new inventory with the item appended
func (i Inventory) Add(item string) Inventory {
	items := make([]string, 0, len(i.items)+1)
	items = append(items, i.items...)
	items = append(items, item)
	return Inventory{items: items}
}

// Remove returns a new inventory with the first occurrence of the item
// removed. Removing an absent item is a no-op.
func (i Inventory) Remove(item string) Inventory {
	items := make([]string, 0, len(i.items))
	removed := false
	for _, it := range i.items {
		if !removed && it == item {
			removed = true
			continue
		}
		items = append(items, it)
	}
	return Inventory{items: items}
}
