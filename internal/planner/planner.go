// Package planner expands a program's transitive dependencies and turns them
// into a linear install order.
package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"

	"install-tool/internal/depgraph"
	"install-tool/internal/logger"
)

// DefaultMaxDepth bounds how deep a dependency chain may go.
const DefaultMaxDepth = 64

var (
	// ErrCycle is matched by every *CycleError.
	ErrCycle = errors.New("cycle detected")
	// ErrTooDeep is returned when a dependency chain exceeds MaxDepth.
	ErrTooDeep = errors.New("dependency chain too deep")
	// ErrEmptyProgram is returned when Plan is called without a program.
	ErrEmptyProgram = errors.New("program name is empty")
)

// CycleError describes a dependency cycle as the path that closes it.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// DependencyResolver returns the direct dependencies of a program on an OS.
type DependencyResolver interface {
	Dependencies(program, osID string) ([]string, error)
}

// Planner computes install orders.
type Planner struct {
	resolver DependencyResolver
	osID     string

	// MaxDepth bounds recursion; zero means DefaultMaxDepth.
	MaxDepth int
}

// New returns a Planner resolving dependencies for osID.
func New(resolver DependencyResolver, osID string) *Planner {
	return &Planner{resolver: resolver, osID: osID, MaxDepth: DefaultMaxDepth}
}

// walk is the per-Plan traversal state. edges mirrors every discovered
// "requires" edge and refuses the one that would close a cycle; its vertex
// set doubles as the visited set.
type walk struct {
	tracker *depgraph.Tracker[string]
	edges   graph.Graph[string, string]
}

// Plan returns the order in which program and its dependencies should be
// installed. Each program appears once, dependencies before the programs
// that need them, and program itself last.
//
// Edges are recorded so that a dependency waits on the programs that
// require it. Seeding program as satisfied then releases its direct
// dependencies, those release theirs, and so on; reversing that release
// order puts the deepest dependencies first.
func (p *Planner) Plan(program string) ([]string, error) {
	if program == "" {
		return nil, ErrEmptyProgram
	}

	w := &walk{
		tracker: depgraph.New[string](),
		edges:   graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
	}
	if err := w.edges.AddVertex(program); err != nil {
		return nil, fmt.Errorf("add %s to dependency graph: %w", program, err)
	}
	if err := p.expand(program, w, 0); err != nil {
		return nil, err
	}

	w.tracker.MarkSatisfied(program, true)
	var released []string
	for w.tracker.HasNewAllSatisfied() {
		curr, _ := w.tracker.GetNewAllSatisfied()
		released = append(released, curr)
		w.tracker.MarkSatisfied(curr, true)
	}

	order := make([]string, 0, len(released)+1)
	seen := make(map[string]bool, len(released)+1)
	for i := len(released) - 1; i >= 0; i-- {
		if !seen[released[i]] {
			seen[released[i]] = true
			order = append(order, released[i])
		}
	}
	if !seen[program] {
		order = append(order, program)
	}

	logger.Debug("[DEBUG] Install order for %s: %s\n", program, strings.Join(order, ", "))
	return order, nil
}

// expand resolves the dependencies of program, records them and recurses
// into every dependency seen for the first time.
func (p *Planner) expand(program string, w *walk, depth int) error {
	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if depth > maxDepth {
		return fmt.Errorf("%w: %s exceeds depth %d", ErrTooDeep, program, maxDepth)
	}

	deps, err := p.resolver.Dependencies(program, p.osID)
	if err != nil {
		return fmt.Errorf("resolve dependencies of %s: %w", program, err)
	}
	if len(deps) > 0 {
		logger.Info("[INFO] Dependencies found for %s: %s. Ensuring installed.\n", program, strings.Join(deps, ","))
	} else {
		logger.Debug("[DEBUG] No dependencies found for %s\n", program)
	}

	for _, dep := range deps {
		// A vertex that already exists has been expanded or is being expanded.
		seen := false
		if err := w.edges.AddVertex(dep); err != nil {
			if !errors.Is(err, graph.ErrVertexAlreadyExists) {
				return fmt.Errorf("add %s to dependency graph: %w", dep, err)
			}
			seen = true
		}

		if err := w.link(program, dep); err != nil {
			return err
		}
		w.tracker.AddDependency(dep, program)

		if seen {
			continue
		}
		if err := p.expand(dep, w, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// link adds the edge program -> dep, turning a refused edge into a
// *CycleError that names the path from dep back to itself.
func (w *walk) link(program, dep string) error {
	if program == dep {
		return &CycleError{Path: []string{program, dep}}
	}
	err := w.edges.AddEdge(program, dep)
	switch {
	case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		path, perr := graph.ShortestPath(w.edges, dep, program)
		if perr != nil {
			return fmt.Errorf("%w: %s -> %s", ErrCycle, program, dep)
		}
		return &CycleError{Path: append(path, dep)}
	default:
		return fmt.Errorf("record %s -> %s: %w", program, dep, err)
	}
}
