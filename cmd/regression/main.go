package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/drakos74/polychaos/infra/config"
	lsq "github.com/drakos74/polychaos/internal/math"
	"github.com/drakos74/polychaos/internal/model"
	"github.com/drakos74/polychaos/internal/pce"
	"github.com/drakos74/polychaos/internal/storage"
	"github.com/drakos74/polychaos/internal/storage/file/json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Config drives the reference regression run.
type Config struct {
	Basis      model.Config `json:"basis"`
	Samples    int          `json:"samples"`
	Seed       uint64       `json:"seed"`
	Replicates int          `json:"replicates"`
	Decimals   int          `json:"decimals"`
	Threshold  float64      `json:"threshold"`
	Solver     lsq.Method   `json:"solver"`
	Label      string       `json:"label"`
	DryRun     bool         `json:"dry_run"`
}

// Result is the outcome of a single replicate.
type Result struct {
	Replicate   int             `json:"replicate"`
	Fit         string          `json:"fit"`
	Diagnostics lsq.Diagnostics `json:"diagnostics"`
	Residuals   pce.Residuals   `json:"residuals"`
	Mismatches  []int           `json:"mismatches"`
	Warning     string          `json:"warning,omitempty"`
}

func main() {

	env := config.MustLoadEnv()
	zerolog.SetGlobalLevel(env.LogLevel)

	var cfg Config
	config.MustLoad("regression", &cfg)

	storage.DefaultDir = env.StorageDir
	store, registry, err := stores(cfg)
	if err != nil {
		panic(err.Error())
	}
	log.Info().
		Str("registry", registry.Root()).
		Bool("dry-run", cfg.DryRun).
		Msg("storing results")

	results, err := run(context.Background(), cfg, store, registry)
	if err != nil {
		log.Error().Err(err).Msg("regression failed")
		os.Exit(1)
	}

	failed := false
	for _, r := range results {
		if len(r.Mismatches) > 0 {
			failed = true
			log.Error().
				Int("replicate", r.Replicate).
				Ints("mismatches", r.Mismatches).
				Msg("coefficients not recovered")
		}
	}
	if failed {
		os.Exit(1)
	}
	log.Info().
		Str("basis", cfg.Basis.String()).
		Int("replicates", len(results)).
		Int("decimals", cfg.Decimals).
		Msg("all coefficients recovered")
}

func stores(cfg Config) (storage.Persistence, storage.Registry, error) {
	if cfg.DryRun {
		return storage.NewVoidStorage(), storage.NewVoidRegistry(), nil
	}
	store, err := json.BlobShard(storage.ExpansionDir)("regression")
	if err != nil {
		return nil, nil, fmt.Errorf("could not create storage: %w", err)
	}
	registry, err := json.EventRegistry("regression")(cfg.Label)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create registry: %w", err)
	}
	return store, registry, nil
}

// run fits the expansion with coefficients 1..npce on independent sample designs.
func run(ctx context.Context, cfg Config, store storage.Persistence, registry storage.Registry) ([]Result, error) {
	b, err := pce.New(cfg.Basis)
	if err != nil {
		return nil, fmt.Errorf("could not create basis: %w", err)
	}
	if cfg.Replicates < 1 {
		cfg.Replicates = 1
	}
	if cfg.Label == "" {
		cfg.Label = "regression"
	}

	coefficients := make([]float64, b.Terms())
	for i := range coefficients {
		coefficients[i] = float64(i + 1)
	}

	opts := []pce.RegressionOption{}
	if cfg.Threshold > 0 {
		opts = append(opts, pce.WithConditionThreshold(cfg.Threshold))
	}
	if cfg.Solver == lsq.MethodSVD {
		opts = append(opts, pce.WithSolver(lsq.SVD{}))
	}
	regression := pce.NewRegression(b, opts...)

	results := make([]Result, cfg.Replicates)
	fits := make([][]float64, cfg.Replicates)
	g, ctx := errgroup.WithContext(ctx)
	for r := 0; r < cfg.Replicates; r++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			points := b.Polynomials().Sample(rand.NewPCG(cfg.Seed, uint64(r)), cfg.Samples, b.Dim())
			outputs, err := b.Evaluate(coefficients, points)
			if err != nil {
				return fmt.Errorf("could not evaluate replicate %d: %w", r, err)
			}
			fit, err := regression.Fit(points, outputs)
			if !model.IsRecoverable(err) {
				return fmt.Errorf("could not fit replicate %d: %w", r, err)
			}
			result := Result{
				Replicate:   r,
				Fit:         fit.ID.String(),
				Diagnostics: fit.Diagnostics,
				Residuals:   fit.Residuals,
				Mismatches:  compare(coefficients, fit.Coefficients, cfg.Decimals),
			}
			if err != nil {
				result.Warning = err.Error()
			}
			results[r] = result
			fits[r] = fit.Coefficients
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, result := range results {
		if math.IsInf(result.Diagnostics.Condition, 1) {
			result.Diagnostics.Condition = math.MaxFloat64
		}
		if err := registry.Add(storage.K{Family: string(b.Family()), Label: cfg.Label}, result); err != nil {
			log.Error().Err(err).Int("replicate", result.Replicate).Msg("could not register result")
		}
		log.Info().
			Int("replicate", result.Replicate).
			Str("fit", result.Fit).
			Float64("condition", result.Diagnostics.Condition).
			Float64("rmse", result.Residuals.RMSE).
			Int("mismatches", len(result.Mismatches)).
			Msg("replicate")
	}

	k := storage.NewKey(b.Fingerprint(), string(b.Family()), cfg.Label)
	if err := store.Store(k, model.NewExpansion(b.Config(), fits[0])); err != nil {
		return nil, fmt.Errorf("could not store expansion: %w", err)
	}
	return results, nil
}

// compare returns the indices of the fitted coefficients that differ from the expected ones after rounding.
func compare(expected, fitted []float64, decimals int) []int {
	scale := math.Pow(10, float64(decimals))
	mismatches := make([]int, 0)
	for i := range expected {
		if math.Round(expected[i]*scale) != math.Round(fitted[i]*scale) {
			mismatches = append(mismatches, i)
		}
	}
	return mismatches
}
