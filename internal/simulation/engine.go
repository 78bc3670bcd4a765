package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"sigma-mcp/internal/formula"
	"sigma-mcp/internal/stats"

	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is how many iterations a worker runs between context checks.
const cancelCheckInterval = 1024

// Engine runs Monte Carlo capability simulations, optionally spreading the
// iterations across several workers.
type Engine struct {
	// Workers is the number of goroutines drawing samples. Zero or less uses
	// one per CPU; 1 is strictly sequential.
	Workers int
	// Seed makes runs reproducible for a fixed worker count. Zero seeds from the clock.
	Seed uint64
	// MaxIterations rejects larger runs when positive.
	MaxIterations int
}

// NewEngine creates an engine with the given parallelism and seed.
func NewEngine(workers int, seed uint64) *Engine {
	return &Engine{Workers: workers, Seed: seed}
}

// Simulate runs cfg.Iterations draws sequentially against the process-wide
// random source. Each iteration draws every variable once, evaluates the
// formula and counts a defect when the output falls outside [LSL, USL].
func Simulate(vars []InputVariable, cfg Config) (*Result, error) {
	prog, err := prepare(cfg, 0)
	if err != nil {
		return nil, err
	}
	data := make([]float64, cfg.Iterations)
	defects, err := sample(context.Background(), prog, vars, cfg, globalSource{}, data)
	if err != nil {
		return nil, err
	}
	return newResult(data, defects, cfg), nil
}

// Run performs the simulation on the engine's workers. Every worker owns a
// private source and fills a disjoint part of the output; defect counts are
// summed at the end. The first evaluation error or a cancelled context aborts
// the whole run.
func (e *Engine) Run(ctx context.Context, vars []InputVariable, cfg Config) (*Result, error) {
	prog, err := prepare(cfg, e.MaxIterations)
	if err != nil {
		return nil, err
	}

	n := cfg.Iterations
	workers := e.workerCount(n)
	seed := e.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	data := make([]float64, n)
	defects := make([]int, workers)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			src := rand.New(rand.NewPCG(seed, uint64(w)))
			d, err := sample(gctx, prog, vars, cfg, src, data[lo:hi])
			defects[w] = d
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, d := range defects {
		total += d
	}
	return newResult(data, total, cfg), nil
}

func (e *Engine) workerCount(iterations int) int {
	w := e.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	return max(1, min(w, iterations))
}

func prepare(cfg Config, maxIterations int) (*formula.Program, error) {
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, cfg.Iterations)
	}
	if maxIterations > 0 && cfg.Iterations > maxIterations {
		return nil, fmt.Errorf("%w: %d iterations exceeds the limit of %d", ErrInvalidConfig, cfg.Iterations, maxIterations)
	}
	if math.IsNaN(cfg.LSL) || math.IsNaN(cfg.USL) {
		return nil, fmt.Errorf("%w: specification limits must be numbers", ErrInvalidConfig)
	}
	return formula.Compile(cfg.Formula)
}

// sample fills out with one formula output per iteration and returns the number
// of outputs outside the specification limits.
func sample(ctx context.Context, prog *formula.Program, vars []InputVariable, cfg Config, src Uniform, out []float64) (int, error) {
	initial := make(map[string]float64, len(vars))
	for _, v := range vars {
		initial[v.Name] = 0
	}
	env, err := formula.NewEnvironment(initial)
	if err != nil {
		return 0, err
	}

	defects := 0
	for i := range out {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return defects, err
			}
		}
		for _, v := range vars {
			env.Set(v.Name, Normal(src, v.Mean, v.StdDev))
		}
		y, err := prog.EvalIn(env)
		if err != nil {
			return defects, err
		}
		out[i] = y
		if y < cfg.LSL || y > cfg.USL {
			defects++
		}
	}
	return defects, nil
}

func newResult(data []float64, defects int, cfg Config) *Result {
	mean, stdDev := stats.MeanStdDev(data)
	lo, hi := stats.MinMax(data)

	cp := (cfg.USL - cfg.LSL) / (6 * stdDev)
	cpu := (cfg.USL - mean) / (3 * stdDev)
	cpl := (mean - cfg.LSL) / (3 * stdDev)
	cpk := math.Min(cpu, cpl)

	return &Result{
		Data:       data,
		Mean:       mean,
		StdDev:     stdDev,
		Min:        lo,
		Max:        hi,
		Cp:         cp,
		Cpk:        cpk,
		Cpu:        cpu,
		Cpl:        cpl,
		SigmaLevel: 3 * cpk,
		DPMO:       float64(defects) / float64(cfg.Iterations) * 1_000_000,
		Defects:    defects,
		Iterations: cfg.Iterations,
		Timestamp:  time.Now(),
	}
}
