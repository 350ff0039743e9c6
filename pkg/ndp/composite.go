package ndp

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/posets"
	"github.com/gitrdm/gomcdp/pkg/simplify"
)

// Endpoint names a port. An empty Node is the composite itself: as the
// source of a Connection it names one of the composite's functionalities,
// as the target one of its resources.
type Endpoint struct {
	Node string
	Port string
}

func (e Endpoint) String() string {
	if e.Node == "" {
		return e.Port
	}
	return e.Node + "." + e.Port
}

// Connection states that the resource at From is provided by the
// functionality at To, that is, value(From) ≤ value(To).
type Connection struct {
	From Endpoint
	To   Endpoint
}

func (c Connection) String() string { return c.From.String() + " ≤ " + c.To.String() }

// Node is a named child of a Composite.
type Node struct {
	Name string
	NDP  NamedDP
}

// Port is a named, typed functionality or resource of a Composite.
type Port struct {
	Name string
	Type posets.Poset
}

// Composite is a NamedDP built from named children and the connections
// between them. It is immutable; its compiled DP is computed once.
type Composite struct {
	nodes  []Node
	fports []Port
	rports []Port
	conns  []Connection

	engine  *simplify.Engine
	maxIter int

	once     sync.Once
	compiled dp.PrimitiveDP
	err      error
}

var _ NamedDP = (*Composite)(nil)

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithEngine sets the engine that simplifies the compiled DP.
func WithEngine(e *simplify.Engine) CompositeOption {
	return func(c *Composite) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithLoopMaxIterations bounds the fixed-point search of the loop that
// cycles compile into.
func WithLoopMaxIterations(n int) CompositeOption {
	return func(c *Composite) {
		if n > 0 {
			c.maxIter = n
		}
	}
}

// NewComposite checks the names and types of every connection.
func NewComposite(nodes []Node, fports, rports []Port, conns []Connection, opts ...CompositeOption) (*Composite, error) {
	c := &Composite{
		nodes:   slices.Clone(nodes),
		fports:  slices.Clone(fports),
		rports:  slices.Clone(rports),
		conns:   slices.Clone(conns),
		engine:  simplify.New(),
		maxIter: dp.DefaultLoopMaxIterations,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Composite) validate() error {
	seen := make(map[string]bool, len(c.nodes))
	for _, n := range c.nodes {
		if n.Name == "" || n.NDP == nil {
			return dp.NewModelError("Composite", "node %q has no name or no model", n.Name)
		}
		if seen[n.Name] {
			return dp.NewModelError("Composite", "repeated node name %q", n.Name)
		}
		seen[n.Name] = true
	}
	if err := checkNames(portNames(c.fports)); err != nil {
		return dp.NewModelError("Composite", "functionality: %w", err)
	}
	if err := checkNames(portNames(c.rports)); err != nil {
		return dp.NewModelError("Composite", "resources: %w", err)
	}
	for _, conn := range c.conns {
		from, err := c.sourceType(conn.From)
		if err != nil {
			return err
		}
		to, err := c.sinkType(conn.To)
		if err != nil {
			return err
		}
		if !from.SameAs(to) {
			return dp.NewModelError(conn.String(), "cannot connect %s to %s", from, to)
		}
	}
	return nil
}

func portNames(ports []Port) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Name
	}
	return out
}

func portTypes(ports []Port) []posets.Poset {
	out := make([]posets.Poset, len(ports))
	for i, p := range ports {
		out[i] = p.Type
	}
	return out
}

func (c *Composite) node(name string) (NamedDP, bool) {
	for _, n := range c.nodes {
		if n.Name == name {
			return n.NDP, true
		}
	}
	return nil, false
}

func (c *Composite) sourceType(e Endpoint) (posets.Poset, error) {
	if e.Node == "" {
		return c.FType(e.Port)
	}
	n, ok := c.node(e.Node)
	if !ok {
		return nil, dp.NewModelError(e.String(), "no node named %q", e.Node)
	}
	return n.RType(e.Port)
}

func (c *Composite) sinkType(e Endpoint) (posets.Poset, error) {
	if e.Node == "" {
		return c.RType(e.Port)
	}
	n, ok := c.node(e.Node)
	if !ok {
		return nil, dp.NewModelError(e.String(), "no node named %q", e.Node)
	}
	return n.FType(e.Port)
}

// Nodes returns the children in declaration order.
func (c *Composite) Nodes() []Node { return slices.Clone(c.nodes) }

// Connections returns the connections in declaration order.
func (c *Composite) Connections() []Connection { return slices.Clone(c.conns) }

func (c *Composite) FNames() []string { return portNames(c.fports) }
func (c *Composite) RNames() []string { return portNames(c.rports) }

func (c *Composite) FType(name string) (posets.Poset, error) {
	return lookup(portNames(c.fports), portTypes(c.fports), name, "functionality")
}

func (c *Composite) RType(name string) (posets.Poset, error) {
	return lookup(portNames(c.rports), portTypes(c.rports), name, "resource")
}

// DP compiles the composite. The result is cached.
func (c *Composite) DP() (dp.PrimitiveDP, error) {
	c.once.Do(func() {
		c.compiled, c.err = c.compile()
	})
	return c.compiled, c.err
}

func (c *Composite) Implementations(f, r any) ([]any, error) {
	d, err := c.DP()
	if err != nil {
		return nil, err
	}
	return d.Implementations(f, r)
}

func (c *Composite) String() string {
	names := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		names[i] = n.Name
	}
	return fmt.Sprintf("Composite(%s; %s → %s)", strings.Join(names, ", "),
		strings.Join(c.FNames(), ", "), strings.Join(c.RNames(), ", "))
}
