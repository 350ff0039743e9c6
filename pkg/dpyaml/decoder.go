package dpyaml

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/ndp"
	"github.com/gitrdm/gomcdp/pkg/posets"
	"github.com/gitrdm/gomcdp/pkg/simplify"
)

type decoder struct {
	doc     *Document
	maxIter int
	engine  *simplify.Engine

	// raw entries of the dps and models sections, resolved on first use
	rawDPs    map[string]*yaml.Node
	rawModels map[string]*yaml.Node
	resolving map[string]bool
}

func newDecoder(opts ...Option) *decoder {
	dec := &decoder{
		doc: &Document{
			posets: make(map[string]posets.Poset),
			dps:    make(map[string]dp.PrimitiveDP),
			models: make(map[string]ndp.NamedDP),
		},
		maxIter:   dp.DefaultLoopMaxIterations,
		rawDPs:    make(map[string]*yaml.Node),
		rawModels: make(map[string]*yaml.Node),
		resolving: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(dec)
	}
	return dec
}

func errAt(n *yaml.Node, format string, args ...any) error {
	return dp.NewModelError(fmt.Sprintf("line %d", n.Line), format, args...)
}

// entry is one key of a mapping, in file order.
type entry struct {
	key   string
	value *yaml.Node
}

func mapping(n *yaml.Node) ([]entry, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "expected a mapping, found %s", kindName(n))
	}
	out := make([]entry, 0, len(n.Content)/2)
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if seen[k] {
			return nil, errAt(n.Content[i], "repeated key %q", k)
		}
		seen[k] = true
		out = append(out, entry{k, n.Content[i+1]})
	}
	return out, nil
}

// fields returns the values of a mapping by key and rejects keys outside
// allowed.
func fields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	entries, err := mapping(n)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*yaml.Node, len(entries))
	for _, e := range entries {
		ok := false
		for _, a := range allowed {
			ok = ok || a == e.key
		}
		if !ok {
			return nil, errAt(e.value, "unknown key %q (expected one of %s)", e.key, strings.Join(allowed, ", "))
		}
		out[e.key] = e.value
	}
	return out, nil
}

func requireKey(n *yaml.Node, f map[string]*yaml.Node, key string) (*yaml.Node, error) {
	v, ok := f[key]
	if !ok {
		return nil, errAt(n, "missing key %q", key)
	}
	return v, nil
}

func sequence(n *yaml.Node) ([]*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errAt(n, "expected a list, found %s", kindName(n))
	}
	return n.Content, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return fmt.Sprintf("%q", n.Value)
	case yaml.AliasNode:
		return "an alias"
	}
	return "nothing"
}

func (dec *decoder) integer(n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, errAt(n, "expected an integer, found %s", kindName(n))
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, errAt(n, "expected an integer, found %q", n.Value)
	}
	return v, nil
}

func (dec *decoder) names(n *yaml.Node) ([]string, error) {
	items, err := sequence(n)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		if item.Kind != yaml.ScalarNode {
			return nil, errAt(item, "expected a name, found %s", kindName(item))
		}
		out[i] = item.Value
	}
	return out, nil
}

func (dec *decoder) document(root *yaml.Node) error {
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		root = root.Content[0]
	}
	f, err := fields(root, "posets", "dps", "models", "queries")
	if err != nil {
		return err
	}
	if n, ok := f["posets"]; ok {
		entries, err := mapping(n)
		if err != nil {
			return err
		}
		for _, e := range entries {
			p, err := dec.poset(e.value)
			if err != nil {
				return err
			}
			dec.doc.posets[e.key] = p
		}
	}
	if n, ok := f["dps"]; ok {
		entries, err := mapping(n)
		if err != nil {
			return err
		}
		for _, e := range entries {
			dec.rawDPs[e.key] = e.value
			dec.doc.dpNames = append(dec.doc.dpNames, e.key)
		}
	}
	if n, ok := f["models"]; ok {
		entries, err := mapping(n)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if _, clash := dec.rawDPs[e.key]; clash {
				return errAt(e.value, "model %q has the name of a dp", e.key)
			}
			dec.rawModels[e.key] = e.value
			dec.doc.modelNames = append(dec.doc.modelNames, e.key)
		}
	}
	for _, name := range dec.doc.dpNames {
		if _, err := dec.namedDP(name, dec.rawDPs[name]); err != nil {
			return err
		}
	}
	for _, name := range dec.doc.modelNames {
		if _, err := dec.namedModel(name, dec.rawModels[name]); err != nil {
			return err
		}
	}
	if n, ok := f["queries"]; ok {
		items, err := sequence(n)
		if err != nil {
			return err
		}
		for _, item := range items {
			q, err := dec.query(item)
			if err != nil {
				return err
			}
			dec.doc.Queries = append(dec.doc.Queries, q)
		}
	}
	return nil
}

func (dec *decoder) query(n *yaml.Node) (Query, error) {
	f, err := fields(n, "name", "target", "solve", "solve_r")
	if err != nil {
		return Query{}, err
	}
	tn, err := requireKey(n, f, "target")
	if err != nil {
		return Query{}, err
	}
	q := Query{Target: tn.Value, Name: tn.Value}
	if name, ok := f["name"]; ok {
		q.Name = name.Value
	}
	target, err := dec.doc.DP(q.Target)
	if err != nil {
		return Query{}, errAt(tn, "%w", err)
	}
	fwd, hasFwd := f["solve"]
	bwd, hasBwd := f["solve_r"]
	switch {
	case hasFwd && !hasBwd:
		q.Value, err = dec.value(target.FunSpace(), fwd)
	case hasBwd && !hasFwd:
		q.Backward = true
		q.Value, err = dec.value(target.ResSpace(), bwd)
	default:
		return Query{}, errAt(n, "a query needs exactly one of solve and solve_r")
	}
	if err != nil {
		return Query{}, err
	}
	return q, nil
}

var rcompUnits = regexp.MustCompile(`^Rcomp\[([^\]]*)\]$`)

func (dec *decoder) poset(n *yaml.Node) (posets.Poset, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch v := n.Value; v {
		case "Nat", "N":
			return posets.Nat(), nil
		case "Int", "Z":
			return posets.Int(), nil
		case "Rcomp", "R":
			return posets.Rcomp(), nil
		case "One", "1":
			return posets.One(), nil
		default:
			if m := rcompUnits.FindStringSubmatch(v); m != nil {
				return posets.NewRcompUnits(m[1]), nil
			}
			if p, ok := dec.doc.posets[v]; ok {
				return p, nil
			}
			return nil, errAt(n, "unknown poset %q", v)
		}
	case yaml.SequenceNode:
		subs := make([]posets.Poset, len(n.Content))
		for i, item := range n.Content {
			p, err := dec.poset(item)
			if err != nil {
				return nil, err
			}
			subs[i] = p
		}
		return posets.NewPosetProduct(subs...), nil
	case yaml.MappingNode:
		f, err := fields(n, "finite", "product", "rcomp")
		if err != nil {
			return nil, err
		}
		if v, ok := f["rcomp"]; ok {
			return posets.NewRcompUnits(v.Value), nil
		}
		if v, ok := f["product"]; ok {
			if v.Kind != yaml.SequenceNode {
				return nil, errAt(v, "product expects a list of posets")
			}
			return dec.poset(v)
		}
		if v, ok := f["finite"]; ok {
			return dec.finite(v)
		}
	}
	return nil, errAt(n, "expected a poset, found %s", kindName(n))
}

func (dec *decoder) finite(n *yaml.Node) (posets.Poset, error) {
	f, err := fields(n, "elements", "relations")
	if err != nil {
		return nil, err
	}
	en, err := requireKey(n, f, "elements")
	if err != nil {
		return nil, err
	}
	elements, err := dec.names(en)
	if err != nil {
		return nil, err
	}
	var relations [][2]string
	if rn, ok := f["relations"]; ok {
		items, err := sequence(rn)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			pair, err := dec.names(item)
			if err != nil {
				return nil, err
			}
			if len(pair) != 2 {
				return nil, errAt(item, "a relation is a pair [lower, upper]")
			}
			relations = append(relations, [2]string{pair[0], pair[1]})
		}
	}
	p, err := posets.NewFinitePoset(elements, relations)
	if err != nil {
		return nil, errAt(n, "%w", err)
	}
	return p, nil
}

// value reads a value of P and checks that it belongs to P.
func (dec *decoder) value(P posets.Poset, n *yaml.Node) (any, error) {
	v, err := dec.rawValue(P, n)
	if err != nil {
		return nil, err
	}
	if err := P.Belongs(v); err != nil {
		return nil, errAt(n, "%w", err)
	}
	return v, nil
}

func (dec *decoder) rawValue(P posets.Poset, n *yaml.Node) (any, error) {
	if prod, ok := P.(posets.PosetProduct); ok {
		if n.Kind == yaml.ScalarNode && (n.Tag == "!!null" || n.Value == "()") && prod.Len() == 0 {
			return posets.Tuple{}, nil
		}
		items, err := sequence(n)
		if err != nil {
			return nil, err
		}
		if len(items) != prod.Len() {
			return nil, errAt(n, "expected %d components for %s, found %d", prod.Len(), P, len(items))
		}
		t := make(posets.Tuple, len(items))
		for i, item := range items {
			v, err := dec.rawValue(prod.Sub(i), item)
			if err != nil {
				return nil, err
			}
			t[i] = v
		}
		return t, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, errAt(n, "expected a value of %s, found %s", P, kindName(n))
	}
	text := strings.TrimSpace(n.Value)
	switch text {
	case "top", "⊤":
		top, err := P.Top()
		if err != nil {
			return nil, errAt(n, "%s has no top", P)
		}
		return top, nil
	case "bottom", "⊥":
		bottom, err := P.Bottom()
		if err != nil {
			return nil, errAt(n, "%s has no bottom", P)
		}
		return bottom, nil
	}
	switch P.(type) {
	case posets.RcompUnits:
		if text == "inf" || text == "+inf" || text == ".inf" {
			return math.Inf(1), nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errAt(n, "expected a number for %s, found %q", P, text)
		}
		return v, nil
	case posets.NatPoset, posets.IntPoset:
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, errAt(n, "expected an integer for %s, found %q", P, text)
		}
		return v, nil
	case *posets.FinitePoset:
		return text, nil
	}
	return nil, errAt(n, "values of %s cannot be written in YAML", P)
}
