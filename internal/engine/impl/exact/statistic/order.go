package statistic

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// Order names the row ordering used when a snapshot is written.
type Order string

const (
	// OrderCountDesc sorts by count, highest first. Equal counts keep first-seen order.
	OrderCountDesc Order = "count_desc"
	// OrderInsertion keeps the order in which keys were first seen.
	OrderInsertion Order = "insertion"
	// OrderKey sorts by key values, numerically where both values are numbers.
	OrderKey Order = "key"
)

// Comparator orders two buckets, returning a negative number when a sorts before b.
type Comparator func(a, b *Count) int

// ParseOrder validates an order name. The empty string selects OrderCountDesc.
func ParseOrder(name string) (Order, error) {
	switch Order(name) {
	case "":
		return OrderCountDesc, nil
	case OrderCountDesc, OrderInsertion, OrderKey:
		return Order(name), nil
	}
	return "", fmt.Errorf("unknown order '%s' (expected %s, %s or %s)", name, OrderCountDesc, OrderInsertion, OrderKey)
}

// Comparator returns the comparator for the order, or nil for OrderInsertion.
func (o Order) Comparator() Comparator {
	switch o {
	case OrderInsertion:
		return nil
	case OrderKey:
		return ByKey
	default:
		return ByCountDesc
	}
}

// ByCountDesc orders buckets by descending count.
func ByCountDesc(a, b *Count) int {
	return cmp.Compare(b.Count, a.Count)
}

// ByKey orders buckets by their key values, field by field.
func ByKey(a, b *Count) int {
	for i := 0; i < len(a.Values) && i < len(b.Values); i++ {
		if c := compareValue(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Values), len(b.Values))
}

func compareValue(a, b string) int {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(x, y)
	}
	return cmp.Compare(a, b)
}

// Sorted returns the snapshot's buckets ordered by compare. The sort is stable, so buckets
// that compare equal stay in first-seen order. A nil comparator returns first-seen order.
// The snapshot itself is not modified.
func (s SnapshotData) Sorted(compare Comparator) []*Count {
	rows := slices.Clone(s.Counts)
	if compare != nil {
		slices.SortStableFunc(rows, compare)
	}
	return rows
}
