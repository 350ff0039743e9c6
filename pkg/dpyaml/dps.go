package dpyaml

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/ndp"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// dpKinds lists the keys a DP mapping may use.
var dpKinds = []string{
	"identity", "mux", "constant", "limit",
	"join", "meet", "join_dual", "meet_dual", "sum",
	"plus", "mult", "map", "catalogue",
	"series", "parallel", "loop", "coproduct", "model",
}

func (dec *decoder) namedDP(name string, n *yaml.Node) (dp.PrimitiveDP, error) {
	if d, ok := dec.doc.dps[name]; ok {
		return d, nil
	}
	if dec.resolving["dp:"+name] {
		return nil, errAt(n, "dp %q refers to itself", name)
	}
	dec.resolving["dp:"+name] = true
	defer delete(dec.resolving, "dp:"+name)

	d, err := dec.dp(n)
	if err != nil {
		return nil, err
	}
	dec.doc.dps[name] = d
	return d, nil
}

func (dec *decoder) dp(n *yaml.Node) (dp.PrimitiveDP, error) {
	if n.Kind == yaml.ScalarNode {
		raw, ok := dec.rawDPs[n.Value]
		if !ok {
			return nil, errAt(n, "no dp named %q", n.Value)
		}
		return dec.namedDP(n.Value, raw)
	}
	f, err := fields(n, dpKinds...)
	if err != nil {
		return nil, err
	}
	if len(f) != 1 {
		return nil, errAt(n, "a dp has exactly one kind, found %d", len(f))
	}
	for kind, body := range f {
		d, err := dec.dpOfKind(kind, body)
		if err != nil {
			return nil, locate(body, kind, err)
		}
		return d, nil
	}
	panic("unreachable")
}

func (dec *decoder) dpOfKind(kind string, n *yaml.Node) (dp.PrimitiveDP, error) {
	switch kind {
	case "identity":
		P, err := dec.poset(n)
		if err != nil {
			return nil, err
		}
		return dp.NewIdentity(P), nil
	case "mux":
		f, err := fields(n, "poset", "coords")
		if err != nil {
			return nil, err
		}
		P, err := dec.posetField(n, f)
		if err != nil {
			return nil, err
		}
		cn, err := requireKey(n, f, "coords")
		if err != nil {
			return nil, err
		}
		c, err := dec.coords(cn)
		if err != nil {
			return nil, err
		}
		return dp.NewMux(P, c)
	case "constant", "limit", "plus", "mult":
		f, err := fields(n, "poset", "value")
		if err != nil {
			return nil, err
		}
		P, err := dec.posetField(n, f)
		if err != nil {
			return nil, err
		}
		vn, err := requireKey(n, f, "value")
		if err != nil {
			return nil, err
		}
		v, err := dec.value(P, vn)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "constant":
			return dp.NewConstant(P, v)
		case "limit":
			return dp.NewLimit(P, v)
		case "plus":
			return dp.NewPlusValueDP(P, v)
		}
		return dp.NewMultValueDP(P, v)
	case "join", "meet", "join_dual", "meet_dual", "sum":
		f, err := fields(n, "n", "poset")
		if err != nil {
			return nil, err
		}
		P, err := dec.posetField(n, f)
		if err != nil {
			return nil, err
		}
		nn, err := requireKey(n, f, "n")
		if err != nil {
			return nil, err
		}
		arity, err := dec.integer(nn)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "join":
			return dp.NewJoinNDP(arity, P)
		case "meet":
			return dp.NewMeetNDP(arity, P)
		case "join_dual":
			return dp.NewJoinNDualDP(arity, P)
		case "meet_dual":
			return dp.NewMeetNDualDP(arity, P)
		}
		return dp.NewSumNDP(arity, P)
	case "map":
		return dec.mapDP(n)
	case "catalogue":
		return dec.catalogue(n)
	case "series", "parallel", "coproduct":
		items, err := sequence(n)
		if err != nil {
			return nil, err
		}
		least := 2
		if kind == "coproduct" {
			least = 1
		}
		if len(items) < least {
			return nil, errAt(n, "%s needs at least %d dps", kind, least)
		}
		ds := make([]dp.PrimitiveDP, len(items))
		for i, item := range items {
			d, err := dec.dp(item)
			if err != nil {
				return nil, err
			}
			ds[i] = d
		}
		switch kind {
		case "series":
			acc := ds[0]
			for _, d := range ds[1:] {
				s, err := dp.NewSeries(acc, d)
				if err != nil {
					return nil, err
				}
				acc = s
			}
			return acc, nil
		case "parallel":
			acc := ds[len(ds)-1]
			for i := len(ds) - 2; i >= 0; i-- {
				acc = dp.NewParallel(ds[i], acc)
			}
			return acc, nil
		}
		return dp.NewCoProductDP(ds...)
	case "loop":
		f, err := fields(n, "dp", "max_iterations")
		if err != nil {
			return nil, err
		}
		in, err := requireKey(n, f, "dp")
		if err != nil {
			return nil, err
		}
		inner, err := dec.dp(in)
		if err != nil {
			return nil, err
		}
		maxIter := dec.maxIter
		if mn, ok := f["max_iterations"]; ok {
			if maxIter, err = dec.integer(mn); err != nil {
				return nil, err
			}
		}
		return dp.NewLoop(inner, dp.WithMaxIterations(maxIter))
	case "model":
		m, err := dec.modelRef(n)
		if err != nil {
			return nil, err
		}
		return m.DP()
	}
	return nil, errAt(n, "unknown dp kind %q", kind)
}

// locate prefixes err with the line of n unless it already carries one.
func locate(n *yaml.Node, what string, err error) error {
	var me *dp.ModelError
	if errors.As(err, &me) && strings.HasPrefix(me.Where, "line ") {
		return err
	}
	return errAt(n, "%s: %w", what, err)
}

func (dec *decoder) posetField(n *yaml.Node, f map[string]*yaml.Node) (posets.Poset, error) {
	pn, err := requireKey(n, f, "poset")
	if err != nil {
		return nil, err
	}
	return dec.poset(pn)
}

// mapStages lists the keys a map stage may use.
var mapStages = []string{"plus", "mult", "constant"}

// mapDP reads a chain of arithmetic stages on one poset and wraps their
// composition. The dual runs the inverse stages backwards; a constant stage
// has no inverse, so such a chain only solves forwards.
func (dec *decoder) mapDP(n *yaml.Node) (dp.PrimitiveDP, error) {
	f, err := fields(n, "poset", "stages")
	if err != nil {
		return nil, err
	}
	P, err := dec.posetField(n, f)
	if err != nil {
		return nil, err
	}
	sn, err := requireKey(n, f, "stages")
	if err != nil {
		return nil, err
	}
	items, err := sequence(sn)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errAt(sn, "map needs at least 1 stage")
	}
	stages := make([]maps.Map, len(items))
	duals := make([]maps.Map, 0, len(items))
	invertible := true
	for i, item := range items {
		sf, err := fields(item, mapStages...)
		if err != nil {
			return nil, err
		}
		if len(sf) != 1 {
			return nil, errAt(item, "a stage has exactly one of %s", strings.Join(mapStages, ", "))
		}
		for op, vn := range sf {
			v, err := dec.value(P, vn)
			if err != nil {
				return nil, err
			}
			switch op {
			case "plus":
				m, err := maps.NewPlusValue(P, v)
				if err != nil {
					return nil, errAt(vn, "%w", err)
				}
				stages[i] = m
				duals = append(duals, maps.MinusValue{P: P, C: v})
			case "mult":
				m, err := maps.NewMultValue(P, v)
				if err != nil {
					return nil, errAt(vn, "%w", err)
				}
				stages[i] = m
				duals = append(duals, maps.DivValue{P: P, C: v})
			default:
				stages[i] = maps.Constant{From: P, To: P, Value: v}
				invertible = false
			}
		}
	}
	amap, err := maps.NewCompose(stages...)
	if err != nil {
		return nil, errAt(sn, "%w", err)
	}
	var dual maps.Map
	if invertible {
		slices.Reverse(duals)
		if dual, err = maps.NewCompose(duals...); err != nil {
			return nil, errAt(sn, "%w", err)
		}
	}
	return dp.NewWrapAMap(amap, dual)
}

func (dec *decoder) catalogue(n *yaml.Node) (dp.PrimitiveDP, error) {
	f, err := fields(n, "f", "r", "entries")
	if err != nil {
		return nil, err
	}
	var spaces [2]posets.Poset
	for i, key := range []string{"f", "r"} {
		pn, err := requireKey(n, f, key)
		if err != nil {
			return nil, err
		}
		if spaces[i], err = dec.poset(pn); err != nil {
			return nil, err
		}
	}
	en, err := requireKey(n, f, "entries")
	if err != nil {
		return nil, err
	}
	items, err := sequence(en)
	if err != nil {
		return nil, err
	}
	entries := make([]dp.CatalogueEntry, len(items))
	for i, item := range items {
		ef, err := fields(item, "name", "f", "r")
		if err != nil {
			return nil, err
		}
		name, err := requireKey(item, ef, "name")
		if err != nil {
			return nil, err
		}
		entries[i].Name = name.Value
		for j, key := range []string{"f", "r"} {
			vn, err := requireKey(item, ef, key)
			if err != nil {
				return nil, err
			}
			v, err := dec.value(spaces[j], vn)
			if err != nil {
				return nil, err
			}
			if j == 0 {
				entries[i].F = v
			} else {
				entries[i].R = v
			}
		}
	}
	return dp.NewCatalogueDP(spaces[0], spaces[1], entries)
}

// coords reads a coordinate tree: an integer selects a component, a dotted
// path such as "0.2" a nested one, "()" the whole value and a list builds
// a tuple.
func (dec *decoder) coords(n *yaml.Node) (maps.Coords, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		g := make(maps.Group, len(n.Content))
		for i, item := range n.Content {
			c, err := dec.coords(item)
			if err != nil {
				return nil, err
			}
			g[i] = c
		}
		return g, nil
	case yaml.ScalarNode:
		text := strings.TrimSpace(n.Value)
		if text == "()" || text == "" {
			return maps.Path{}, nil
		}
		parts := strings.Split(text, ".")
		p := make(maps.Path, len(parts))
		for i, part := range parts {
			v, err := strconv.Atoi(part)
			if err != nil || v < 0 {
				return nil, errAt(n, "bad coordinate %q", text)
			}
			p[i] = v
		}
		return p, nil
	}
	return nil, errAt(n, "expected coordinates, found %s", kindName(n))
}

func (dec *decoder) namedModel(name string, n *yaml.Node) (ndp.NamedDP, error) {
	if m, ok := dec.doc.models[name]; ok {
		return m, nil
	}
	if dec.resolving["model:"+name] {
		return nil, errAt(n, "model %q contains itself", name)
	}
	dec.resolving["model:"+name] = true
	defer delete(dec.resolving, "model:"+name)

	m, err := dec.model(n)
	if err != nil {
		return nil, err
	}
	dec.doc.models[name] = m
	return m, nil
}

func (dec *decoder) modelRef(n *yaml.Node) (ndp.NamedDP, error) {
	if n.Kind == yaml.ScalarNode {
		raw, ok := dec.rawModels[n.Value]
		if !ok {
			return nil, errAt(n, "no model named %q", n.Value)
		}
		return dec.namedModel(n.Value, raw)
	}
	return dec.model(n)
}

func (dec *decoder) model(n *yaml.Node) (ndp.NamedDP, error) {
	f, err := fields(n, "type", "dp", "f", "r", "functionality", "resources", "nodes", "connections")
	if err != nil {
		return nil, err
	}
	tn, err := requireKey(n, f, "type")
	if err != nil {
		return nil, err
	}
	switch tn.Value {
	case "simple":
		return dec.simple(n, f)
	case "composite":
		return dec.composite(n, f)
	}
	return nil, errAt(tn, "unknown model type %q (expected simple or composite)", tn.Value)
}

func (dec *decoder) simple(n *yaml.Node, f map[string]*yaml.Node) (ndp.NamedDP, error) {
	dn, err := requireKey(n, f, "dp")
	if err != nil {
		return nil, err
	}
	d, err := dec.dp(dn)
	if err != nil {
		return nil, err
	}
	var names [2][]string
	for i, key := range []string{"f", "r"} {
		if kn, ok := f[key]; ok {
			if names[i], err = dec.names(kn); err != nil {
				return nil, err
			}
		}
	}
	w, err := ndp.NewSimpleWrap(d, names[0], names[1])
	if err != nil {
		return nil, locate(n, "simple", err)
	}
	return w, nil
}

func (dec *decoder) ports(n *yaml.Node) ([]ndp.Port, error) {
	entries, err := mapping(n)
	if err != nil {
		return nil, err
	}
	out := make([]ndp.Port, len(entries))
	for i, e := range entries {
		P, err := dec.poset(e.value)
		if err != nil {
			return nil, err
		}
		out[i] = ndp.Port{Name: e.key, Type: P}
	}
	return out, nil
}

func (dec *decoder) composite(n *yaml.Node, f map[string]*yaml.Node) (ndp.NamedDP, error) {
	var fports, rports []ndp.Port
	var err error
	if pn, ok := f["functionality"]; ok {
		if fports, err = dec.ports(pn); err != nil {
			return nil, err
		}
	}
	if pn, ok := f["resources"]; ok {
		if rports, err = dec.ports(pn); err != nil {
			return nil, err
		}
	}
	var nodes []ndp.Node
	if nn, ok := f["nodes"]; ok {
		entries, err := mapping(nn)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			m, err := dec.modelRef(e.value)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, ndp.Node{Name: e.key, NDP: m})
		}
	}
	var conns []ndp.Connection
	if cn, ok := f["connections"]; ok {
		items, err := sequence(cn)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			c, err := connection(item)
			if err != nil {
				return nil, err
			}
			conns = append(conns, c)
		}
	}
	opts := []ndp.CompositeOption{ndp.WithLoopMaxIterations(dec.maxIter)}
	if dec.engine != nil {
		opts = append(opts, ndp.WithEngine(dec.engine))
	}
	c, err := ndp.NewComposite(nodes, fports, rports, conns, opts...)
	if err != nil {
		return nil, locate(n, "composite", err)
	}
	return c, nil
}

// connection reads "node.resource <= node.functionality".
func connection(n *yaml.Node) (ndp.Connection, error) {
	if n.Kind != yaml.ScalarNode {
		return ndp.Connection{}, errAt(n, "expected a connection \"a.r <= b.f\", found %s", kindName(n))
	}
	from, to, ok := strings.Cut(n.Value, "<=")
	if !ok {
		from, to, ok = strings.Cut(n.Value, "≤")
	}
	if !ok {
		return ndp.Connection{}, errAt(n, "expected a connection \"a.r <= b.f\", found %q", n.Value)
	}
	return ndp.Connection{From: endpoint(from), To: endpoint(to)}, nil
}

func endpoint(s string) ndp.Endpoint {
	s = strings.TrimSpace(s)
	if node, port, ok := strings.Cut(s, "."); ok {
		return ndp.Endpoint{Node: strings.TrimSpace(node), Port: strings.TrimSpace(port)}
	}
	return ndp.Endpoint{Port: s}
}
