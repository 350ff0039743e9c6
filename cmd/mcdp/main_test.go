package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gomcdp/internal/config"
	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/solver"
)

const droneYAML = `
posets:
  Mass: Rcomp[kg]
  Size:
    finite:
      elements: [S, M, L]
      relations: [[S, M], [M, L]]
dps:
  battery:
    series:
      - plus: {poset: Mass, value: 1}
      - mult: {poset: Mass, value: 2}
  pick:
    catalogue:
      f: Size
      r: Nat
      entries:
        - {name: small, f: S, r: 1}
        - {name: large, f: L, r: 5}
models:
  drone:
    type: composite
    functionality: {payload: Mass}
    resources: {mass: Mass}
    nodes:
      batt: {type: simple, dp: battery, f: [x], r: [y]}
    connections:
      - payload <= batt.x
      - batt.y <= mass
queries:
  - {name: light, target: drone, solve: 3}
  - {name: budget, target: battery, solve_r: 8}
`

func writeModel(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestSolve(t *testing.T) {
	file := writeModel(t, "drone.yaml", droneYAML)

	code, out, errOut := run(t, "solve", file, "drone", "3")
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, "↑{8 kg}\n", out)

	code, out, _ = run(t, "solve", "--trace", file, "battery", "3")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Minimal resources needed: ↑{8 kg}")

	code, out, errOut = run(t, "solve-r", file, "battery", "8")
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, "↓{3 kg}\n", out)
}

func TestSolveErrors(t *testing.T) {
	file := writeModel(t, "drone.yaml", droneYAML)
	cases := map[string][]string{
		"unknown target": {"solve", file, "plane", "3"},
		"bad value":      {"solve", file, "drone", "heavy"},
		"missing file":   {"solve", filepath.Join(t.TempDir(), "none.yaml"), "drone", "3"},
		"too few args":   {"solve", file},
		"bad config":     {"solve", "--max-iterations=0", file, "drone", "3"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			code, out, errOut := run(t, args...)
			assert.Equal(t, exitModel, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, "mcdp:")
		})
	}
}

func TestImpl(t *testing.T) {
	file := writeModel(t, "drone.yaml", droneYAML)

	code, out, _ := run(t, "impl", file, "pick", "M", "5")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "large\n", out)

	code, out, _ = run(t, "impl", file, "pick", "M", "4")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "infeasible\n", out)
}

const swapYAML = `
dps:
  twice:
    series:
      - mux: {poset: [Nat, Nat], coords: [1, 0]}
      - mux: {poset: [Nat, Nat], coords: [1, 0]}
queries:
  - {name: back, target: twice, solve: [3, 5]}
`

func TestSimplify(t *testing.T) {
	file := writeModel(t, "swap.yaml", swapYAML)
	code, out, errOut := run(t, "simplify", file, "twice")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "after (1 nodes)")
	assert.Contains(t, out, "mux-mux: 1")
}

func TestBatch(t *testing.T) {
	file := writeModel(t, "drone.yaml", droneYAML)
	code, out, errOut := run(t, "batch", "--workers=2", file)
	require.Equal(t, exitOK, code, errOut)
	assert.Equal(t, "drone.yaml:light: ↑{8 kg}\ndrone.yaml:budget: ↓{3 kg}\n", out)

	empty := writeModel(t, "empty.yaml", "dps:\n  id: {identity: Nat}\n")
	code, _, errOut = run(t, "batch", empty)
	assert.Equal(t, exitModel, code)
	assert.Contains(t, errOut, "no queries")

	broken := writeModel(t, "broken.yaml", "dps:\n  id: {identity: Mass}\n")
	code, _, errOut = run(t, "batch", file, broken)
	assert.Equal(t, exitModel, code)
	assert.Contains(t, errOut, "line 2")
}

func TestMetricsFlag(t *testing.T) {
	file := writeModel(t, "drone.yaml", droneYAML)
	code, out, _ := run(t, "solve", "--metrics", file, "battery", "3")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "↑{8 kg}")
	assert.Contains(t, out, `mcdp_solver_queries_total{direction="solve",outcome="feasible"} 1`)
}

func TestSimplifyBeforeSolving(t *testing.T) {
	file := writeModel(t, "swap.yaml", swapYAML)
	const rewrites = "mcdp_simplify_rule_applications_total"

	for _, cmd := range [][]string{
		{"solve", "--metrics", "--simplify=true", file, "twice", "[3, 5]"},
		{"batch", "--metrics", "--simplify=true", file},
	} {
		code, out, errOut := run(t, cmd...)
		require.Equal(t, exitOK, code, errOut)
		assert.Contains(t, out, "↑{(3, 5)}", cmd[0])
		assert.Contains(t, out, rewrites+`{rule="mux-mux"} 1`, cmd[0])
	}

	code, out, errOut := run(t, "solve", "--metrics", "--simplify=false", file, "twice", "[3, 5]")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "↑{(3, 5)}")
	assert.NotContains(t, out, rewrites)
}

func TestLoadAllStopsWhenCancelled(t *testing.T) {
	file := writeModel(t, "drone.yaml", droneYAML)
	a := &app{
		cfg:    config.Default(),
		logger: slog.New(slog.DiscardHandler),
		solver: solver.New(),
	}
	docs, err := a.loadAll(context.Background(), []string{file})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.loadAll(ctx, []string{file, file})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "version")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "mcdp 0.3.0")

	code, out, _ = run(t, "version", "-o", "yaml")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "version: 0.3.0")

	code, _, _ = run(t, "version", "-o", "xml")
	assert.Equal(t, exitModel, code)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, exitOK, report(nil, &buf))
	assert.Empty(t, buf.String())

	assert.Equal(t, exitModel, report(dp.NewModelError("x", "bad"), &buf))
	assert.Contains(t, buf.String(), "mcdp: x: bad")

	buf.Reset()
	ie := &dp.InternalError{Op: "solve", Operands: []string{"Series"}, Err: errors.New("boom")}
	assert.Equal(t, exitInternal, report(errors.Join(errors.New("other"), ie), &buf))
	assert.Contains(t, buf.String(), "--- operand 1 ---\nSeries")
}
