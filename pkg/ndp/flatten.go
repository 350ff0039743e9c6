package ndp

import "slices"

// Flatten inlines every composite child, recursively. The children of an
// inlined composite c are renamed c/child; the connections that crossed the
// boundary of c are joined end to end.
func (c *Composite) Flatten() (NamedDP, error) {
	nodes := make([]Node, 0, len(c.nodes))
	conns := c.conns
	for _, n := range c.nodes {
		flat, err := n.NDP.Flatten()
		if err != nil {
			return nil, err
		}
		inner, ok := flat.(*Composite)
		if !ok {
			nodes = append(nodes, Node{Name: n.Name, NDP: flat})
			continue
		}
		for _, child := range inner.nodes {
			nodes = append(nodes, Node{Name: n.Name + "/" + child.Name, NDP: child.NDP})
		}
		conns = inline(conns, n.Name, inner.conns)
	}
	return NewComposite(nodes, c.fports, c.rports, conns, WithEngine(c.engine), WithLoopMaxIterations(c.maxIter))
}

// inline replaces node name by the connections of its flattened body.
//
// Every port of the node is resolved to the real sources behind it: a
// functionality port to the outer connections into it, a resource port to
// the body connections into it. Pass-through body connections and outer
// connections from the node to itself make the two depend on each other,
// so the resolution runs to a fixed point.
func inline(outer []Connection, name string, body []Connection) []Connection {
	rename := func(e Endpoint) Endpoint {
		return Endpoint{Node: name + "/" + e.Node, Port: e.Port}
	}
	fsrc := make(map[string][]Endpoint)
	rsrc := make(map[string][]Endpoint)
	addSrc := func(m map[string][]Endpoint, port string, e Endpoint) bool {
		if slices.Contains(m[port], e) {
			return false
		}
		m[port] = append(m[port], e)
		return true
	}

	for changed := true; changed; {
		changed = false
		for _, o := range outer {
			if o.To.Node != name {
				continue
			}
			if o.From.Node != name {
				changed = addSrc(fsrc, o.To.Port, o.From) || changed
				continue
			}
			for _, s := range rsrc[o.From.Port] {
				changed = addSrc(fsrc, o.To.Port, s) || changed
			}
		}
		for _, b := range body {
			if b.To.Node != "" {
				continue
			}
			if b.From.Node != "" {
				changed = addSrc(rsrc, b.To.Port, rename(b.From)) || changed
				continue
			}
			for _, s := range fsrc[b.From.Port] {
				changed = addSrc(rsrc, b.To.Port, s) || changed
			}
		}
	}

	var out []Connection
	for _, o := range outer {
		switch {
		case o.From.Node == name && o.To.Node != name:
			for _, s := range rsrc[o.From.Port] {
				out = append(out, Connection{From: s, To: o.To})
			}
		case o.From.Node != name && o.To.Node != name:
			out = append(out, o)
		}
	}
	for _, b := range body {
		if b.To.Node == "" {
			continue
		}
		if b.From.Node != "" {
			out = append(out, Connection{From: rename(b.From), To: rename(b.To)})
			continue
		}
		for _, s := range fsrc[b.From.Port] {
			out = append(out, Connection{From: s, To: rename(b.To)})
		}
	}
	return out
}
