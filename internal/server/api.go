package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	lsq "github.com/drakos74/polychaos/internal/math"
	"github.com/drakos74/polychaos/internal/model"
	"github.com/drakos74/polychaos/internal/pce"
	"github.com/drakos74/polychaos/internal/storage"
	"github.com/rs/zerolog/log"
)

// EvaluateRequest asks for the values of an expansion at the given points.
// The expansion is either given inline or loaded by key from a previous fit.
type EvaluateRequest struct {
	Expansion *model.Expansion `json:"expansion,omitempty"`
	Key       *storage.Key     `json:"key,omitempty"`
	Points    [][]float64      `json:"points"`
}

type EvaluateResponse struct {
	Outputs []float64 `json:"outputs"`
}

// FitRequest asks for the expansion coefficients fitting the given samples.
type FitRequest struct {
	Config    model.Config `json:"config"`
	Points    [][]float64  `json:"points"`
	Outputs   []float64    `json:"outputs"`
	Solver    lsq.Method   `json:"solver,omitempty"`
	Threshold float64      `json:"threshold,omitempty"`
	// Label stores the fitted expansion under the returned key if set.
	Label string `json:"label,omitempty"`
}

type FitResponse struct {
	ID           string          `json:"id"`
	Coefficients []float64       `json:"coefficients"`
	Diagnostics  lsq.Diagnostics `json:"diagnostics"`
	Residuals    pce.Residuals   `json:"residuals"`
	Warnings     []string        `json:"warnings,omitempty"`
	Key          *storage.Key    `json:"key,omitempty"`
}

// SensitivityRequest asks for the moments and Sobol indices of an expansion.
type SensitivityRequest struct {
	Expansion *model.Expansion `json:"expansion,omitempty"`
	Key       *storage.Key     `json:"key,omitempty"`
}

type SensitivityResponse struct {
	Mean  float64   `json:"mean"`
	Sobol pce.Sobol `json:"sobol"`
}

// API exposes expansion evaluation and regression over http.
type API struct {
	store storage.Persistence
	debug bool
}

// NewAPI creates a new api storing fitted expansions in the given storage.
func NewAPI(store storage.Persistence) *API {
	return &API{store: store}
}

// Debug logs the request payloads.
func (a *API) Debug() *API {
	a.debug = true
	return a
}

// Routes returns the api routes.
func (a *API) Routes() []Route {
	return []Route{
		{Action: Api, Path: "evaluate", Method: POST, Exec: a.evaluate},
		{Action: Api, Path: "fit", Method: POST, Exec: a.fit},
		{Action: Api, Path: "sensitivity", Method: POST, Exec: a.sensitivity},
	}
}

func (a *API) evaluate(r *http.Request) ([]byte, int, error) {
	var request EvaluateRequest
	if err := JsonRead(r, a.debug, &request); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("could not decode evaluate request: %w", err)
	}
	b, coefficients, err := a.restore(request.Expansion, request.Key)
	if err != nil {
		return nil, status(err), err
	}
	outputs, err := b.Evaluate(coefficients, request.Points)
	if err != nil {
		return nil, status(err), err
	}
	if err := finite("outputs", outputs...); err != nil {
		return nil, status(err), err
	}
	return respond(EvaluateResponse{Outputs: outputs})
}

func (a *API) fit(r *http.Request) ([]byte, int, error) {
	var request FitRequest
	if err := JsonRead(r, a.debug, &request); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("could not decode fit request: %w", err)
	}
	b, err := pce.New(request.Config)
	if err != nil {
		return nil, status(err), err
	}
	var key *storage.Key
	if request.Label != "" {
		k := storage.NewKey(b.Fingerprint(), string(b.Family()), request.Label)
		if err := k.Validate(); err != nil {
			return nil, status(err), err
		}
		key = &k
	}

	opts := make([]pce.RegressionOption, 0)
	switch request.Solver {
	case "", lsq.MethodQR, lsq.MethodLQ:
	case lsq.MethodSVD:
		opts = append(opts, pce.WithSolver(lsq.SVD{}))
	default:
		return nil, http.StatusBadRequest, fmt.Errorf("unknown solver '%s': %w", request.Solver, model.InvalidConfigurationErr)
	}
	if request.Threshold > 0 {
		opts = append(opts, pce.WithConditionThreshold(request.Threshold))
	}

	fit, err := b.Fit(request.Points, request.Outputs, opts...)
	if !model.IsRecoverable(err) {
		return nil, status(err), err
	}

	response := FitResponse{
		ID:           fit.ID.String(),
		Coefficients: fit.Coefficients,
		Diagnostics:  fit.Diagnostics,
		Residuals:    fit.Residuals,
	}
	// json has no representation for infinity
	if math.IsInf(response.Diagnostics.Condition, 1) || math.IsNaN(response.Diagnostics.Condition) {
		response.Diagnostics.Condition = math.MaxFloat64
	}
	if fit.Underdetermined {
		response.Warnings = append(response.Warnings, model.UnderdeterminedSystemErr.Error())
	}
	if fit.IllConditioned {
		response.Warnings = append(response.Warnings, model.IllConditionedSystemErr.Error())
	}

	if err := finite("coefficients", fit.Coefficients...); err != nil {
		return nil, status(err), err
	}
	if err := finite("residuals", fit.Residuals.RMSE, fit.Residuals.MaxAbs, fit.Residuals.Mean, fit.Residuals.StdDev, fit.Residuals.MedianAbs); err != nil {
		return nil, status(err), err
	}

	if key != nil {
		if err := a.store.Store(*key, model.NewExpansion(b.Config(), fit.Coefficients)); err != nil {
			return nil, status(err), fmt.Errorf("could not store expansion: %w", err)
		}
		log.Info().
			Str("key", key.Path()).
			Str("fit", response.ID).
			Msg("stored expansion")
		response.Key = key
	}

	return respond(response)
}

func (a *API) sensitivity(r *http.Request) ([]byte, int, error) {
	var request SensitivityRequest
	if err := JsonRead(r, a.debug, &request); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("could not decode sensitivity request: %w", err)
	}
	b, coefficients, err := a.restore(request.Expansion, request.Key)
	if err != nil {
		return nil, status(err), err
	}
	mean, err := b.Mean(coefficients)
	if err != nil {
		return nil, status(err), err
	}
	sobol, err := b.Sensitivity(coefficients)
	if err != nil {
		return nil, status(err), err
	}
	if err := finite("moments", mean, sobol.Variance); err != nil {
		return nil, status(err), err
	}
	return respond(SensitivityResponse{Mean: mean, Sobol: sobol})
}

func (a *API) restore(expansion *model.Expansion, key *storage.Key) (*pce.Basis, []float64, error) {
	switch {
	case expansion != nil:
		return pce.Restore(*expansion)
	case key != nil:
		if err := key.Validate(); err != nil {
			return nil, nil, err
		}
		var stored model.Expansion
		if err := a.store.Load(*key, &stored); err != nil {
			return nil, nil, fmt.Errorf("could not load expansion '%s': %w", key.Path(), err)
		}
		return pce.Restore(stored)
	}
	return nil, nil, fmt.Errorf("neither expansion nor key given: %w", model.InvalidConfigurationErr)
}

func respond(v interface{}) ([]byte, int, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("could not encode response: %w", err)
	}
	return b, http.StatusOK, nil
}

// nonFiniteErr marks results that overflowed and cannot be encoded as json.
var nonFiniteErr = errors.New("non-finite result")

func finite(name string, values ...float64) error {
	for i, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("%s[%d] is %v: %w", name, i, v, nonFiniteErr)
		}
	}
	return nil
}

func status(err error) int {
	switch {
	case errors.Is(err, storage.NotFoundErr):
		return http.StatusNotFound
	case errors.Is(err, nonFiniteErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.InvalidKeyErr),
		errors.Is(err, model.InvalidConfigurationErr),
		errors.Is(err, model.UnsupportedDistributionErr),
		errors.Is(err, model.DimensionMismatchErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
