package dp

import (
	"fmt"

	"github.com/gitrdm/gomcdp/pkg/posets"
)

// CatalogueEntry is one implementation in a catalogue: it provides F and
// requires R.
type CatalogueEntry struct {
	Name string
	F    any
	R    any
}

// CatalogueDP is a finite table of implementations. Solve(f) is the minimal
// resources among the entries that provide at least f; SolveR(r) is the
// maximal functionalities among the entries that fit within r.
type CatalogueDP struct {
	f, r    posets.Poset
	entries []CatalogueEntry
}

// NewCatalogueDP validates every entry against F and R.
func NewCatalogueDP(F, R posets.Poset, entries []CatalogueEntry) (*CatalogueDP, error) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Name] {
			return nil, NewModelError("CatalogueDP", "duplicate entry %q", e.Name)
		}
		seen[e.Name] = true
		if err := F.Belongs(e.F); err != nil {
			return nil, NewModelError("CatalogueDP", "entry %q: functionality: %w", e.Name, err)
		}
		if err := R.Belongs(e.R); err != nil {
			return nil, NewModelError("CatalogueDP", "entry %q: resource: %w", e.Name, err)
		}
	}
	return &CatalogueDP{f: F, r: R, entries: append([]CatalogueEntry(nil), entries...)}, nil
}

// Entries returns a copy of the table.
func (d *CatalogueDP) Entries() []CatalogueEntry {
	return append([]CatalogueEntry(nil), d.entries...)
}

func (d *CatalogueDP) FunSpace() posets.Poset { return d.f }
func (d *CatalogueDP) ResSpace() posets.Poset { return d.r }

func (d *CatalogueDP) Solve(_ *Tracer, f any) (posets.UpperSet, error) {
	var points []any
	for _, e := range d.entries {
		if d.f.Leq(f, e.F) {
			points = append(points, e.R)
		}
	}
	return posets.NewUpperSet(d.r, points), nil
}

func (d *CatalogueDP) SolveR(_ *Tracer, r any) (posets.LowerSet, error) {
	var points []any
	for _, e := range d.entries {
		if d.r.Leq(e.R, r) {
			points = append(points, e.F)
		}
	}
	return posets.NewLowerSet(d.f, points), nil
}

// Implementations returns the names of the entries that provide f within r.
func (d *CatalogueDP) Implementations(f, r any) ([]any, error) {
	var out []any
	for _, e := range d.entries {
		if d.f.Leq(f, e.F) && d.r.Leq(e.R, r) {
			out = append(out, e.Name)
		}
	}
	return out, nil
}

func (d *CatalogueDP) String() string {
	return fmt.Sprintf("Catalogue(%d entries, %s → %s)", len(d.entries), d.f, d.r)
}
