package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SubItem is a child record embedded in an aggregate's map field, carrying its
// own dense order index.
type SubItem interface {
	SubItemID() string
	OrderIndex() int
	SetOrderIndex(int)
}

// OrderedSublist keeps a user-reorderable collection whose persisted form is an
// unordered map keyed by sub-item id plus an integer order per item.
//
// Invariant: after every insert/remove/move the order values are exactly
// {0..n-1}, no gaps, no duplicates.
type OrderedSublist[T SubItem] struct {
	items []T
}

func NewOrderedSublist[T SubItem](items ...T) OrderedSublist[T] {
	l := OrderedSublist[T]{items: items}
	l.renumber()
	return l
}

func (l *OrderedSublist[T]) Len() int { return len(l.items) }

// Items returns the backing slice in display order. Callers must not reorder it.
func (l *OrderedSublist[T]) Items() []T { return l.items }

func (l *OrderedSublist[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(l.items) {
		return zero, fmt.Errorf("index %d out of range [0,%d)", i, len(l.items))
	}
	return l.items[i], nil
}

func (l *OrderedSublist[T]) ByID(id string) (T, int, bool) {
	var zero T
	for i, item := range l.items {
		if item.SubItemID() == id {
			return item, i, true
		}
	}
	return zero, -1, false
}

// Insert appends with order = count.
func (l *OrderedSublist[T]) Insert(item T) {
	item.SetOrderIndex(len(l.items))
	l.items = append(l.items, item)
}

func (l *OrderedSublist[T]) RemoveAt(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("index %d out of range [0,%d)", i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.renumber()
	return nil
}

func (l *OrderedSublist[T]) RemoveByID(id string) bool {
	if _, i, ok := l.ByID(id); ok {
		_ = l.RemoveAt(i)
		return true
	}
	return false
}

// Move removes the item at from and reinserts it at to, then renumbers. It is a
// single logical operation: the caller never observes the intermediate state.
func (l *OrderedSublist[T]) Move(from, to int) error {
	n := len(l.items)
	if from < 0 || from >= n {
		return fmt.Errorf("from index %d out of range [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("to index %d out of range [0,%d)", to, n)
	}
	if from == to {
		return nil
	}
	item := l.items[from]
	l.items = append(l.items[:from], l.items[from+1:]...)
	rest := make([]T, 0, n)
	rest = append(rest, l.items[:to]...)
	rest = append(rest, item)
	rest = append(rest, l.items[to:]...)
	l.items = rest
	l.renumber()
	return nil
}

// ToPersistedMap returns the map-of-id form used by the aggregate write.
func (l *OrderedSublist[T]) ToPersistedMap() map[string]T {
	m := make(map[string]T, len(l.items))
	for _, item := range l.items {
		m[item.SubItemID()] = item
	}
	return m
}

// SublistFromMap rebuilds display order from the persisted map by sorting on
// the order field, then renumbers densely in case the stored values had gaps.
func SublistFromMap[T SubItem](m map[string]T) OrderedSublist[T] {
	items := make([]T, 0, len(m))
	for _, item := range m {
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OrderIndex() < items[j].OrderIndex()
	})
	l := OrderedSublist[T]{items: items}
	l.renumber()
	return l
}

func (l *OrderedSublist[T]) renumber() {
	for i, item := range l.items {
		item.SetOrderIndex(i)
	}
}

// JSON form is the ordered array; the map form is only for the persisted document.
func (l OrderedSublist[T]) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l *OrderedSublist[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	l.items = items
	l.renumber()
	return nil
}
