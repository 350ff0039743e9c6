package solver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/maps"
	"github.com/gitrdm/gomcdp/pkg/posets"
)

var kg = posets.NewRcompUnits("kg")

func battery() dp.PrimitiveDP {
	return dp.MustSeries(dp.MustPlusValueDP(kg, 1.0), dp.MustMultValueDP(kg, 2.0))
}

// brokenDP answers with points outside its resource space, or panics.
type brokenDP struct{ panics bool }

func (brokenDP) String() string         { return "broken" }
func (brokenDP) FunSpace() posets.Poset { return posets.Nat() }
func (brokenDP) ResSpace() posets.Poset { return posets.Nat() }
func (d brokenDP) Solve(*dp.Tracer, any) (posets.UpperSet, error) {
	if d.panics {
		panic("boom")
	}
	return posets.UpperSetFromPoint(posets.Nat(), -1), nil
}
func (brokenDP) SolveR(*dp.Tracer, any) (posets.LowerSet, error) {
	return posets.LowerSetFromPoint(posets.Nat(), 1.5), nil
}
func (brokenDP) Implementations(any, any) ([]any, error) { return nil, nil }

func TestSolve(t *testing.T) {
	s := New()
	res, err := s.Solve(battery(), 3.0)
	require.NoError(t, err)
	assert.True(t, res.Feasible())
	assert.Equal(t, []any{8.0}, res.Min.Minimals())
	assert.True(t, res.Trace.Contains("Minimal resources needed: ↑{8 kg}"))
	assert.True(t, res.Trace.Contains("series: intermediate"))
}

func TestSolveR(t *testing.T) {
	res, err := New().SolveR(battery(), 8.0)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, res.Max.Maximals())
	assert.True(t, res.Trace.Contains("Maximal functionality possible: ↓{3 kg}"))
}

func TestSolveInfeasible(t *testing.T) {
	motors, err := dp.NewCatalogueDP(posets.Nat(), posets.Nat(), []dp.CatalogueEntry{{Name: "m", F: 2, R: 3}})
	require.NoError(t, err)

	res, err := New().Solve(motors, 5)
	require.NoError(t, err)
	assert.False(t, res.Feasible())
	assert.True(t, res.Trace.Contains("This problem is unfeasible."))

	resR, err := New().SolveR(motors, 1)
	require.NoError(t, err)
	assert.False(t, resR.Feasible())
	assert.True(t, resR.Trace.Contains("This problem is unfeasible."))
}

func TestSolveRejectsForeignQuery(t *testing.T) {
	s := New()
	_, err := s.Solve(battery(), -1.0)
	require.Error(t, err)
	assert.True(t, dp.IsModelError(err))

	_, err = s.SolveR(battery(), 3)
	assert.True(t, dp.IsModelError(err))

	_, err = s.Implementations(battery(), 1.0, "x")
	assert.True(t, dp.IsModelError(err))
}

func TestSolveRNotImplemented(t *testing.T) {
	d, err := dp.NewWrapAMap(maps.JoinN{N: 2, P: posets.Nat()}, nil)
	require.NoError(t, err)

	_, err = New().SolveR(d, 3)
	assert.ErrorIs(t, err, dp.ErrNotImplemented)
	assert.False(t, dp.IsInternalError(err))
}

func TestDebugChecksAnswer(t *testing.T) {
	_, err := New().Solve(brokenDP{}, 1)
	assert.NoError(t, err, "unchecked without debug")

	s := New(WithDebug(true))
	_, err = s.Solve(brokenDP{}, 1)
	require.Error(t, err)
	var ie *dp.InternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "solve", ie.Op)
	assert.Contains(t, ie.Detail(), "broken")

	_, err = s.SolveR(brokenDP{}, 1)
	assert.True(t, dp.IsInternalError(err))
}

func TestPanicBecomesInternalError(t *testing.T) {
	res, err := New().Solve(brokenDP{panics: true}, 1)
	require.Error(t, err)
	assert.True(t, dp.IsInternalError(err))
	assert.Contains(t, err.Error(), "panic: boom")
	assert.False(t, res.Feasible())
}

func TestImplementations(t *testing.T) {
	motors, err := dp.NewCatalogueDP(posets.Nat(), posets.Nat(), []dp.CatalogueEntry{
		{Name: "small", F: 2, R: 3},
		{Name: "big", F: 5, R: 4},
	})
	require.NoError(t, err)

	imps, err := New().Implementations(motors, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, []any{"big"}, imps)
}

func TestPrepare(t *testing.T) {
	swap := dp.MustMux(posets.NewPosetProduct(posets.Nat(), posets.Nat()), maps.Indices(1, 0))
	twice := dp.MustSeries(swap, swap)

	m := NewMetrics()
	s := New(WithMetrics(m))
	got, err := s.Prepare(twice)
	require.NoError(t, err)
	assert.Equal(t, 1, dp.Size(got))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rules.WithLabelValues("mux-mux")))

	off := New(WithSimplify(false))
	got, err = off.Prepare(twice)
	require.NoError(t, err)
	assert.Same(t, twice, got)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	s := New(WithMetrics(m))
	assert.Same(t, m, s.Metrics())

	_, _ = s.Solve(battery(), 3.0)
	_, _ = s.Solve(battery(), -1.0)
	_, _ = s.SolveR(battery(), 8.0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.solves.WithLabelValues("solve", OutcomeFeasible)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solves.WithLabelValues("solve", OutcomeModelError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solves.WithLabelValues("solve_r", OutcomeFeasible)))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily)
	for _, f := range families {
		byName[f.GetName()] = f
	}
	hist, ok := byName["mcdp_solver_query_duration_seconds"]
	require.True(t, ok)
	assert.Equal(t, dto.MetricType_HISTOGRAM, hist.GetType())
	var count uint64
	for _, metric := range hist.GetMetric() {
		count += metric.GetHistogram().GetSampleCount()
	}
	assert.EqualValues(t, 3, count)
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.Nil(t, m.Registry())
	m.RuleApplied("mux-mux")
	_, err := New(WithMetrics(nil)).Solve(battery(), 1.0)
	assert.NoError(t, err)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeFeasible, Outcome(true, nil))
	assert.Equal(t, OutcomeInfeasible, Outcome(false, nil))
	assert.Equal(t, OutcomeModelError, Outcome(false, dp.NewModelError("x", "bad")))
	assert.Equal(t, OutcomeNotImplemented, Outcome(false, dp.ErrNotImplemented))
	assert.Equal(t, OutcomeInternalError, Outcome(false, &dp.InternalError{Op: "x", Err: errors.New("bug")}))
}

func TestSolveAll(t *testing.T) {
	jobs := []Job{
		{Name: "a", DP: battery(), Query: 3.0},
		{Name: "b", DP: battery(), Query: 8.0, Direction: Backward},
		{Name: "c", DP: battery(), Query: -2.0},
		{Name: "d"},
	}
	for i := 0; i < 20; i++ {
		jobs = append(jobs, Job{Name: "more", DP: battery(), Query: float64(i)})
	}

	out, err := New().SolveAll(context.Background(), jobs, 3)
	require.NoError(t, err)
	require.Len(t, out, len(jobs))

	assert.Equal(t, "a: ↑{8 kg}", out[0].String())
	assert.Equal(t, "b: ↓{3 kg}", out[1].String())
	assert.True(t, dp.IsModelError(out[2].Err))
	assert.Nil(t, out[2].Forward)
	assert.True(t, strings.HasPrefix(out[3].String(), "d: error:"))
	for i := 0; i < 20; i++ {
		r := out[4+i]
		require.NoError(t, r.Err)
		assert.Equal(t, []any{2 * (float64(i) + 1)}, r.Forward.Min.Minimals())
	}
}

func TestSolveAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{{Name: "a", DP: battery(), Query: 1.0}, {Name: "b", DP: battery(), Query: 2.0}}

	out, err := New().SolveAll(ctx, jobs, 2)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, "a", out[0].Job.Name)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "solve", Forward.String())
	assert.Equal(t, "solve_r", Backward.String())
	assert.Equal(t, "Direction(7)", Direction(7).String())
}

func TestVersion(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GetVersion(), info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
