package kitchen

import "strings"

// ShoppingList is an ordered list of item names with no two entries equal
// under case-insensitive comparison. It is not safe for concurrent use; the
// Machine guards it.
type ShoppingList struct {
	items []string
}

// Add appends item unless an entry already matches it case-insensitively.
// Blank items are ignored. It reports whether the list changed.
func (l *ShoppingList) Add(item string) bool {
	if strings.TrimSpace(item) == "" {
		return false
	}
	for _, existing := range l.items {
		if strings.EqualFold(existing, item) {
			return false
		}
	}
	l.items = append(l.items, item)
	return true
}

// Remove deletes the first entry exactly equal to item. Matching is
// case-sensitive because it targets a row the user picked.
func (l *ShoppingList) Remove(item string) bool {
	for i, existing := range l.items {
		if existing == item {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the list.
func (l *ShoppingList) Clear() {
	l.items = nil
}

// Items returns a copy of the entries in insertion order.
func (l *ShoppingList) Items() []string {
	return append([]string{}, l.items...)
}

// Len returns the number of entries.
func (l *ShoppingList) Len() int {
	return len(l.items)
}
