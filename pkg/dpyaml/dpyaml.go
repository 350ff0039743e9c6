// Package dpyaml reads design problems from YAML.
//
// A document has four optional sections:
//
//	posets:
//	  Mass: Rcomp[kg]
//	dps:
//	  battery:
//	    series:
//	      - plus: {poset: Mass, value: 1}
//	      - mult: {poset: Mass, value: 2}
//	models:
//	  drone:
//	    type: composite
//	    functionality: {payload: Mass}
//	    resources: {mass: Mass}
//	    nodes:
//	      batt: {type: simple, dp: battery, f: [x], r: [y]}
//	    connections:
//	      - payload <= batt.x
//	      - batt.y <= mass
//	queries:
//	  - {name: light, target: drone, solve: 3}
//	  - {name: budget, target: battery, solve_r: 8}
//
// Posets are written as Nat, Int, Rcomp, Rcomp[units], One, a list (the
// product of its items), {finite: {elements: [...], relations: [[a, b]]}}
// or the name of an entry of the posets section. Values follow their poset:
// numbers, top and bottom, strings for finite posets and lists for
// products.
//
// A DP is a mapping with one key naming its kind, or a string naming an
// entry of the dps section. A connection "a.r <= b.f" states that the
// resource r of node a is provided by the functionality f of node b; a
// name without a node is a port of the composite itself.
//
// Every error is a *dp.ModelError whose Where is the YAML line.
package dpyaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/ndp"
	"github.com/gitrdm/gomcdp/pkg/posets"
	"github.com/gitrdm/gomcdp/pkg/simplify"
)

// Query is one entry of the queries section.
type Query struct {
	Name     string
	Target   string
	Backward bool
	Value    any
}

// Document is a decoded YAML file.
type Document struct {
	posets     map[string]posets.Poset
	dps        map[string]dp.PrimitiveDP
	models     map[string]ndp.NamedDP
	dpNames    []string
	modelNames []string
	Queries    []Query
}

// Poset returns the named poset.
func (d *Document) Poset(name string) (posets.Poset, bool) {
	p, ok := d.posets[name]
	return p, ok
}

// Model returns the named model.
func (d *Document) Model(name string) (ndp.NamedDP, bool) {
	m, ok := d.models[name]
	return m, ok
}

// DP returns the named DP, or the compiled DP of the named model.
func (d *Document) DP(name string) (dp.PrimitiveDP, error) {
	if p, ok := d.dps[name]; ok {
		return p, nil
	}
	if m, ok := d.models[name]; ok {
		return m.DP()
	}
	return nil, dp.NewModelError(name, "no dp or model named %q (have %v)", name, d.Targets())
}

// Targets returns the names of the DPs and models, in file order.
func (d *Document) Targets() []string {
	return append(slices.Clone(d.dpNames), d.modelNames...)
}

// Option configures decoding.
type Option func(*decoder)

// WithLoopMaxIterations sets the iteration bound of loops that do not set
// max_iterations, and of the loops composites compile into.
func WithLoopMaxIterations(n int) Option {
	return func(dec *decoder) {
		if n > 0 {
			dec.maxIter = n
		}
	}
}

// WithEngine sets the engine composites simplify with.
func WithEngine(e *simplify.Engine) Option {
	return func(dec *decoder) { dec.engine = e }
}

// Decode reads one YAML document from r.
func Decode(r io.Reader, opts ...Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dpyaml: %w", err)
	}
	return Parse(data, opts...)
}

// DecodeFile reads the YAML document at path.
func DecodeFile(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dpyaml: %w", err)
	}
	doc, err := Parse(data, opts...)
	if err != nil {
		return nil, withFile(path, err)
	}
	return doc, nil
}

func withFile(path string, err error) error {
	var me *dp.ModelError
	if errors.As(err, &me) {
		return &dp.ModelError{Where: path + ":" + me.Where, Err: me.Err}
	}
	return err
}

// Parse decodes data.
func Parse(data []byte, opts ...Option) (*Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{}, nil
		}
		return nil, &dp.ModelError{Where: "yaml", Err: err}
	}
	dec := newDecoder(opts...)
	if err := dec.document(&root); err != nil {
		return nil, err
	}
	return dec.doc, nil
}

// ParseValue reads a value of P from text in the same notation as the
// document values, for command-line queries.
func ParseValue(P posets.Poset, text string) (any, error) {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(text), &n); err != nil {
		return nil, &dp.ModelError{Where: "value", Err: err}
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return newDecoder().value(P, n.Content[0])
	}
	return nil, dp.NewModelError("value", "empty value for %s", P)
}

// ParsePoset reads a poset expression from text.
func ParsePoset(text string) (posets.Poset, error) {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(text), &n); err != nil {
		return nil, &dp.ModelError{Where: "poset", Err: err}
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return newDecoder().poset(n.Content[0])
	}
	return nil, dp.NewModelError("poset", "empty poset")
}
