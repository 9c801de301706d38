// Package filter implements the conjunctive list filtering used by every admin
// list view: a free-text search over a fixed set of fields combined with zero or
// more enum selectors, where an empty term or the value "all" disables a filter.
package filter

import (
	"strings"
)

// All is the selector value that disables an enum filter.
const All = "all"

// Predicate reports whether an item is kept.
type Predicate[T any] func(T) bool

// Apply returns the items that satisfy every non-nil predicate, in input order.
// The input slice is never modified. When no predicate is active the input is
// returned as is.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchesAll(item, active) {
			out = append(out, item)
		}
	}
	return out
}

func matchesAll[T any](item T, preds []Predicate[T]) bool {
	for _, p := range preds {
		if !p(item) {
			return false
		}
	}
	return true
}

// Search matches when any of the given fields contains term, ignoring case.
// It returns nil for a blank term.
func Search[T any](term string, fields ...func(T) string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" || len(fields) == 0 {
		return nil
	}
	return func(item T) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(item)), needle) {
				return true
			}
		}
		return false
	}
}

// Enum matches when field equals selected after normalization. It returns nil
// when selected is blank or "all".
func Enum[T any](selected string, field func(T) string) Predicate[T] {
	want := Normalize(selected)
	if IsAll(selected) {
		return nil
	}
	return func(item T) bool {
		return Normalize(field(item)) == want
	}
}

// IsAll reports whether selected disables a filter.
func IsAll(selected string) bool {
	s := Normalize(selected)
	return s == "" || s == All
}

// Normalize lower-cases a value and drops spaces, dashes and underscores so that
// "In Progress", "in_progress" and "inprogress" compare equal.
func Normalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Paginate slices items without panicking on out-of-range bounds. A limit of
// zero or less means no limit.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
