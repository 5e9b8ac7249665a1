package flow

import (
	"context"
	"fmt"
)

// End is the terminal routing target. A node whose Next function returns End
// finishes the session.
const End = ""

// StepFunc is a single unit of work in the pipeline. It receives the current
// state snapshot and returns a partial update. It must not mutate s.
//
// Steps run to completion; suspension happens only at declared pause points
// between nodes, never inside a step.
type StepFunc func(ctx context.Context, s State) (Update, error)

// Node is one vertex in the pipeline graph.
type Node struct {
	Name string
	Run  StepFunc

	// Next selects the following node from the post-merge state.
	// A nil Next, or a return of End, terminates the session.
	Next func(s State) string
}

// Linear returns a Next function that always routes to the given node.
func Linear(next string) func(State) string {
	return func(State) string { return next }
}

// Graph is a declared pipeline: a set of named nodes, an entry point, and the
// pause points at which execution suspends for external input.
//
// Pause semantics: after a node in pauseAfter completes, or before a node in
// pauseBefore starts, the engine checkpoints and returns control to the
// caller. Execution resumes at the stored cursor; completed nodes are never
// re-executed.
type Graph struct {
	entry       string
	nodes       map[string]Node
	pauseBefore map[string]bool
	pauseAfter  map[string]bool
}

// NewGraph constructs an empty graph with the given entry node name.
// Nodes are added with Add; the entry node must be added before use.
func NewGraph(entry string) *Graph {
	return &Graph{
		entry:       entry,
		nodes:       make(map[string]Node),
		pauseBefore: make(map[string]bool),
		pauseAfter:  make(map[string]bool),
	}
}

// Add registers a node. It returns an error on empty names, nil step
// functions, or duplicate registration.
func (g *Graph) Add(n Node) error {
	if n.Name == "" {
		return fmt.Errorf("node name must not be empty")
	}
	if n.Run == nil {
		return fmt.Errorf("node %q has nil step function", n.Name)
	}
	if _, exists := g.nodes[n.Name]; exists {
		return fmt.Errorf("node already registered: %s", n.Name)
	}
	g.nodes[n.Name] = n
	return nil
}

// PauseBefore declares that execution suspends before the named node starts.
func (g *Graph) PauseBefore(name string) {
	g.pauseBefore[name] = true
}

// PauseAfter declares that execution suspends after the named node completes.
func (g *Graph) PauseAfter(name string) {
	g.pauseAfter[name] = true
}

// Entry returns the entry node name.
func (g *Graph) Entry() string {
	return g.entry
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// PausesBefore reports whether the named node is a pre-execution pause point.
func (g *Graph) PausesBefore(name string) bool {
	return g.pauseBefore[name]
}

// PausesAfter reports whether the named node is a post-execution pause point.
func (g *Graph) PausesAfter(name string) bool {
	return g.pauseAfter[name]
}

// Validate checks that the entry node exists. Routing targets are checked at
// execution time, since Next functions are opaque.
func (g *Graph) Validate() error {
	if g.entry == "" {
		return fmt.Errorf("graph has no entry node")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("entry node not registered: %s", g.entry)
	}
	return nil
}

// Cursor is the execution position of a session: the ordered set of node
// names eligible to run next, plus whether the engine is suspended at a
// pause point. An empty Next set means the session is terminal.
type Cursor struct {
	Next   []string
	Paused bool
}

// Terminal reports whether no further nodes are eligible to run.
func (c Cursor) Terminal() bool {
	return len(c.Next) == 0
}

// Controller drives sessions through a graph. Implementations guarantee at
// most one in-flight execution per session key.
type Controller interface {
	// Start creates the session and executes nodes until the first pause
	// point or the terminal state, checkpointing after every node. It fails
	// with ErrAlreadyRunning if the session shows work in progress.
	Start(ctx context.Context, sessionKey string) (State, []string, error)

	// Resume applies the patch to the stored state, then executes forward
	// from the stored cursor until the next pause or the terminal state.
	// It fails with ErrInvalidResumeState if the session is terminal,
	// missing a pending node, or the patch violates a state invariant.
	Resume(ctx context.Context, sessionKey string, patch Update) (State, []string, error)

	// Inspect returns the current state snapshot and pending node names
	// without executing anything.
	Inspect(ctx context.Context, sessionKey string) (State, []string, error)
}
