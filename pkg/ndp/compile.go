package ndp

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

// graph is a composite after join insertion: every sink has exactly one
// source.
type graph struct {
	nodes  []Node
	source map[Endpoint]Endpoint
}

// compile turns the wiring into a chain of stages. The state between two
// stages is a tuple of signals, the values still needed downstream. Stage k
// muxes the state into (inputs of node k, surviving signals) and runs
// Parallel(node k, Identity). Back edges of the node order become the
// feedback of a Loop around the whole chain.
func (c *Composite) compile() (dp.PrimitiveDP, error) {
	g, err := c.insertJoins()
	if err != nil {
		return nil, err
	}
	if err := c.checkConnected(g); err != nil {
		return nil, err
	}
	order := topoOrder(g)
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n.Name] = i
	}

	// Back edges read a feedback signal instead of their source.
	var back []Endpoint
	for _, n := range order {
		for _, f := range n.NDP.FNames() {
			sink := Endpoint{n.Name, f}
			src := g.source[sink]
			if src.Node != "" && pos[src.Node] >= pos[n.Name] {
				back = append(back, sink)
			}
		}
	}
	signalOf := func(sink Endpoint) string {
		if i := slices.Index(back, sink); i >= 0 {
			return "fb:" + strconv.Itoa(i)
		}
		return key(g.source[sink])
	}

	final := len(order)
	lastUse := make(map[string]int)
	for i, n := range order {
		for _, f := range n.NDP.FNames() {
			lastUse[signalOf(Endpoint{n.Name, f})] = i
		}
	}
	for _, r := range c.rports {
		lastUse[key(g.source[Endpoint{"", r.Name}])] = final
	}
	for _, sink := range back {
		lastUse[key(g.source[sink])] = final
	}

	st := &state{loc: make(map[string]maps.Path)}
	F := spaceOf(portTypes(c.fports))
	var fb []posets.Poset
	for _, sink := range back {
		t, err := c.sinkTypeIn(g, sink)
		if err != nil {
			return nil, err
		}
		fb = append(fb, t)
	}
	var base maps.Path
	if len(back) > 0 {
		F = posets.NewPosetProduct(F, posets.NewPosetProduct(fb...))
		base = maps.Path{0}
		for i := range back {
			st.add("fb:"+strconv.Itoa(i), maps.Path{1, i})
		}
	}
	for i, p := range c.fports {
		st.add(key(Endpoint{"", p.Name}), component(base, i, len(c.fports)))
	}
	S := F

	var chain dp.PrimitiveDP
	for i, n := range order {
		nd, err := n.NDP.DP()
		if err != nil {
			return nil, err
		}
		fnames := n.NDP.FNames()
		in := make([]maps.Path, len(fnames))
		for j, f := range fnames {
			in[j] = st.loc[signalOf(Endpoint{n.Name, f})]
		}
		var pass []string
		for _, k := range st.keys {
			if lastUse[k] > i {
				pass = append(pass, k)
			}
		}
		coords := maps.Group{pack(in), st.group(pass)}
		mux, err := dp.NewMux(S, coords)
		if err != nil {
			return nil, err
		}
		prod := mux.ResSpace().(posets.PosetProduct)
		par := dp.NewParallel(nd, dp.NewIdentity(prod.Sub(1)))
		stage, err := c.engine.MakeSeries(mux, par)
		if err != nil {
			return nil, dp.NewModelError(n.Name, "inputs do not fit %s: %w", nd, err)
		}
		if chain, err = c.append(chain, stage); err != nil {
			return nil, err
		}

		next := &state{loc: make(map[string]maps.Path)}
		rnames := n.NDP.RNames()
		for j, r := range rnames {
			k := key(Endpoint{n.Name, r})
			if _, used := lastUse[k]; used {
				next.add(k, component(maps.Path{0}, j, len(rnames)))
			}
		}
		for j, k := range pass {
			next.add(k, maps.Path{1, j})
		}
		st, S = next, stage.ResSpace()
	}

	out := make([]maps.Path, len(c.rports))
	for i, r := range c.rports {
		out[i] = st.loc[key(g.source[Endpoint{"", r.Name}])]
	}
	var coords maps.Coords = pack(out)
	if len(back) > 0 {
		fbOut := make([]maps.Path, len(back))
		for i, sink := range back {
			fbOut[i] = st.loc[key(g.source[sink])]
		}
		coords = maps.Group{coords, group(fbOut)}
	}
	mux, err := dp.NewMux(S, coords)
	if err != nil {
		return nil, err
	}
	if chain, err = c.append(chain, mux); err != nil {
		return nil, err
	}
	if len(back) == 0 {
		return chain, nil
	}
	return dp.NewLoop(chain, dp.WithMaxIterations(c.maxIter))
}

func (c *Composite) append(chain, stage dp.PrimitiveDP) (dp.PrimitiveDP, error) {
	if chain == nil {
		return stage, nil
	}
	return c.engine.MakeSeries(chain, stage)
}

func (c *Composite) sinkTypeIn(g graph, sink Endpoint) (posets.Poset, error) {
	for _, n := range g.nodes {
		if n.Name == sink.Node {
			return n.NDP.FType(sink.Port)
		}
	}
	return nil, dp.NewModelError(sink.String(), "no node named %q", sink.Node)
}

// state records where each live signal sits in the current tuple.
type state struct {
	keys []string
	loc  map[string]maps.Path
}

func (s *state) add(k string, p maps.Path) {
	s.keys = append(s.keys, k)
	s.loc[k] = p
}

func (s *state) group(keys []string) maps.Group {
	g := make(maps.Group, len(keys))
	for i, k := range keys {
		g[i] = s.loc[k]
	}
	return g
}

func key(e Endpoint) string {
	if e.Node == "" {
		return "f:" + e.Port
	}
	return "r:" + e.Node + "." + e.Port
}

// component returns the location of name i of n under base.
func component(base maps.Path, i, n int) maps.Path {
	if n == 1 {
		return slices.Clone(base)
	}
	return append(slices.Clone(base), i)
}

// pack builds the coordinates of a value for len(paths) names.
func pack(paths []maps.Path) maps.Coords {
	if len(paths) == 1 {
		return paths[0]
	}
	return group(paths)
}

func group(paths []maps.Path) maps.Group {
	g := make(maps.Group, len(paths))
	for i, p := range paths {
		g[i] = p
	}
	return g
}

// insertJoins adds a JoinNDP node in front of every sink with several
// sources.
func (c *Composite) insertJoins() (graph, error) {
	g := graph{nodes: slices.Clone(c.nodes), source: make(map[Endpoint]Endpoint)}
	sources := make(map[Endpoint][]Endpoint)
	var sinks []Endpoint
	for _, conn := range c.conns {
		if _, ok := sources[conn.To]; !ok {
			sinks = append(sinks, conn.To)
		}
		sources[conn.To] = append(sources[conn.To], conn.From)
	}
	taken := make(map[string]bool, len(c.nodes))
	for _, n := range c.nodes {
		taken[n.Name] = true
	}
	seq := 0
	for _, sink := range sinks {
		srcs := sources[sink]
		if len(srcs) == 1 {
			g.source[sink] = srcs[0]
			continue
		}
		P, err := c.sinkType(sink)
		if err != nil {
			return graph{}, err
		}
		join, err := dp.NewJoinNDP(len(srcs), P)
		if err != nil {
			return graph{}, err
		}
		fnames := make([]string, len(srcs))
		for i := range srcs {
			fnames[i] = "in" + strconv.Itoa(i)
		}
		name := ""
		for name == "" || taken[name] {
			seq++
			name = fmt.Sprintf("_join%d", seq)
		}
		taken[name] = true
		w, err := NewSimpleWrap(join, fnames, []string{"out"})
		if err != nil {
			return graph{}, err
		}
		g.nodes = append(g.nodes, Node{Name: name, NDP: w})
		for i, src := range srcs {
			g.source[Endpoint{name, fnames[i]}] = src
		}
		g.source[sink] = Endpoint{name, "out"}
	}
	return g, nil
}

func (c *Composite) checkConnected(g graph) error {
	for _, n := range g.nodes {
		for _, f := range n.NDP.FNames() {
			sink := Endpoint{n.Name, f}
			if _, ok := g.source[sink]; !ok {
				return dp.NewModelError(sink.String(), "functionality is not connected")
			}
		}
	}
	for _, r := range c.rports {
		if _, ok := g.source[Endpoint{"", r.Name}]; !ok {
			return dp.NewModelError(r.Name, "resource is not connected")
		}
	}
	return nil
}

// topoOrder sorts the nodes so that sources come before their sinks,
// breaking ties and cycles by declaration order.
func topoOrder(g graph) []Node {
	indeg := make(map[string]int, len(g.nodes))
	succ := make(map[string][]string)
	for sink, src := range g.source {
		if src.Node == "" || sink.Node == "" {
			continue
		}
		indeg[sink.Node]++
		succ[src.Node] = append(succ[src.Node], sink.Node)
	}
	done := make(map[string]bool, len(g.nodes))
	order := make([]Node, 0, len(g.nodes))
	for len(order) < len(g.nodes) {
		next := -1
		for i, n := range g.nodes {
			if !done[n.Name] && indeg[n.Name] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			for i, n := range g.nodes {
				if !done[n.Name] {
					next = i
					break
				}
			}
		}
		n := g.nodes[next]
		done[n.Name] = true
		order = append(order, n)
		for _, s := range succ[n.Name] {
			indeg[s]--
		}
	}
	return order
}
