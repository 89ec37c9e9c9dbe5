package proxy

import (
	"cmp"
	"slices"
)

// childTable maps keys of a container to the interceptors of its container
// children. Scalar children have no entry.
type childTable[K cmp.Ordered] struct {
	m map[K]Node
}

func newChildTable[K cmp.Ordered]() childTable[K] {
	return childTable[K]{m: make(map[K]Node)}
}

func (t *childTable[K]) get(k K) (Node, bool) {
	n, ok := t.m[k]
	return n, ok
}

func (t *childTable[K]) put(k K, n Node) {
	if n == nil {
		return
	}
	t.m[k] = n
}

// take removes the entry for k without invalidating it.
func (t *childTable[K]) take(k K) (Node, bool) {
	n, ok := t.m[k]
	if ok {
		delete(t.m, k)
	}
	return n, ok
}

// drop removes and invalidates the entry for k.
func (t *childTable[K]) drop(k K) {
	if n, ok := t.take(k); ok {
		n.Invalidate()
	}
}

// dropWhere removes and invalidates every entry whose key satisfies pred.
func (t *childTable[K]) dropWhere(pred func(K) bool) {
	for _, k := range t.keys() {
		if pred(k) {
			t.drop(k)
		}
	}
}

// dropAll invalidates every entry and empties the table.
func (t *childTable[K]) dropAll() {
	for _, k := range t.keys() {
		t.drop(k)
	}
}

// keys returns the table's keys in ascending order.
func (t *childTable[K]) keys() []K {
	ks := make([]K, 0, len(t.m))
	for k := range t.m {
		ks = append(ks, k)
	}
	slices.Sort(ks)
	return ks
}

func (t *childTable[K]) len() int {
	return len(t.m)
}

// shift moves every index child by delta and hands each to rehome with its
// new index. Positive deltas walk from the highest index down and negative
// deltas from the lowest up, so a moved entry never lands on one not yet moved.
func shift(t *childTable[int], delta int, rehome func(n Node, i int)) {
	ks := t.keys()
	if delta > 0 {
		slices.Reverse(ks)
	}
	for _, k := range ks {
		n, _ := t.take(k)
		t.put(k+delta, n)
		rehome(n, k+delta)
	}
}
