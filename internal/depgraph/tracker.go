// Package depgraph tracks "Y depends on X" relations together with a
// satisfied flag per node, and queues each node whose dependencies have all
// become satisfied.
//
// The tracker does not detect cycles. Nodes on a cycle never have all of
// their dependencies satisfied and so are never queued; draining still
// terminates.
package depgraph

// Tracker is an insertion-ordered dependency tracker. It is not safe for
// concurrent use.
type Tracker[T comparable] struct {
	// deps maps a dependent to the nodes it depends on.
	deps map[T][]T
	// dependents maps a node to the nodes that depend on it.
	dependents map[T][]T
	// nodes lists every node in first-seen order.
	nodes []T
	seen  map[T]bool

	satisfied map[T]bool
	// released holds nodes that have been queued, drained or not.
	released map[T]bool
	queue    []T
}

// New returns an empty tracker.
func New[T comparable]() *Tracker[T] {
	return &Tracker[T]{
		deps:       make(map[T][]T),
		dependents: make(map[T][]T),
		seen:       make(map[T]bool),
		satisfied:  make(map[T]bool),
		released:   make(map[T]bool),
	}
}

// AddDependency records that dependent depends on dependency. Adding the
// same edge twice has no further effect.
func (t *Tracker[T]) AddDependency(dependent, dependency T) {
	t.touch(dependency)
	t.touch(dependent)
	if contains(t.deps[dependent], dependency) {
		return
	}
	t.deps[dependent] = append(t.deps[dependent], dependency)
	t.dependents[dependency] = append(t.dependents[dependency], dependent)
	t.update(dependent)
}

// MarkSatisfied sets the satisfied flag of node. Marking a node satisfied
// queues every dependent whose dependencies are now all satisfied.
// Unmarking withdraws dependents that were queued but not yet drained.
func (t *Tracker[T]) MarkSatisfied(node T, satisfied bool) {
	t.touch(node)
	if t.satisfied[node] == satisfied {
		return
	}
	t.satisfied[node] = satisfied
	for _, d := range t.dependents[node] {
		t.update(d)
	}
}

// IsSatisfied reports whether node has been marked satisfied.
func (t *Tracker[T]) IsSatisfied(node T) bool {
	return t.satisfied[node]
}

// IsAllSatisfied reports whether every dependency of node is satisfied.
// A node without dependencies is vacuously all satisfied.
func (t *Tracker[T]) IsAllSatisfied(node T) bool {
	for _, d := range t.deps[node] {
		if !t.satisfied[d] {
			return false
		}
	}
	return true
}

// HasNewAllSatisfied reports whether a queued node is waiting to be drained.
func (t *Tracker[T]) HasNewAllSatisfied() bool {
	return len(t.queue) > 0
}

// GetNewAllSatisfied removes and returns the oldest queued node. ok is
// false when the queue is empty.
func (t *Tracker[T]) GetNewAllSatisfied() (node T, ok bool) {
	if len(t.queue) == 0 {
		return node, false
	}
	node = t.queue[0]
	t.queue = t.queue[1:]
	return node, true
}

// Dependencies returns the nodes that node depends on, in insertion order.
func (t *Tracker[T]) Dependencies(node T) []T {
	return append([]T(nil), t.deps[node]...)
}

// Dependents returns the nodes that depend on node, in insertion order.
func (t *Tracker[T]) Dependents(node T) []T {
	return append([]T(nil), t.dependents[node]...)
}

// Nodes returns every node known to the tracker in first-seen order.
func (t *Tracker[T]) Nodes() []T {
	return append([]T(nil), t.nodes...)
}

func (t *Tracker[T]) touch(node T) {
	if !t.seen[node] {
		t.seen[node] = true
		t.nodes = append(t.nodes, node)
	}
}

// update queues or withdraws node after a change to one of its dependencies.
// Only nodes with at least one dependency are ever queued.
func (t *Tracker[T]) update(node T) {
	all := len(t.deps[node]) > 0 && t.IsAllSatisfied(node)
	switch {
	case all && !t.released[node]:
		t.released[node] = true
		t.queue = append(t.queue, node)
	case !all && t.released[node]:
		for i, q := range t.queue {
			if q == node {
				t.queue = append(t.queue[:i], t.queue[i+1:]...)
				delete(t.released, node)
				break
			}
		}
	}
}

func contains[T comparable](s []T, v T) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
