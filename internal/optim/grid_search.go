package optim

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/san-kum/heatsim/internal/experiment"
	"github.com/san-kum/heatsim/internal/sim"
)

// ErrNoTrial is returned when every point of the search failed.
var ErrNoTrial = errors.New("optim: no successful trial")

// Trial is one evaluated point of a search.
type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// GridSearch evaluates the cartesian product of parameter values and keeps the
// lowest score.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs every combination. Points whose experiment cannot be built or
// run are recorded with their error and skipped; cancellation of ctx stops the
// search.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	objective func(*sim.Result) float64,
) (map[string]float64, float64, []Trial, error) {
	s := &search{
		build:     buildExperiment,
		objective: objective,
		best:      math.Inf(1),
	}
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), s); err != nil {
		return nil, 0, s.trials, err
	}
	if s.bestParams == nil {
		return nil, 0, s.trials, ErrNoTrial
	}
	return s.bestParams, s.best, s.trials, nil
}

type search struct {
	build      func(map[string]float64) (*experiment.Experiment, error)
	objective  func(*sim.Result) float64
	best       float64
	bestParams map[string]float64
	trials     []Trial
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, s *search) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		trial := Trial{Params: current}
		exp, err := s.build(current)
		if err == nil {
			var result *sim.Result
			result, err = exp.Run(ctx)
			if err == nil {
				trial.Score = s.objective(result)
			}
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			trial.Err = err
			slog.Debug("trial failed", "params", current, "err", err)
		}
		s.trials = append(s.trials, trial)

		if trial.Err == nil && trial.Score < s.best {
			s.best = trial.Score
			s.bestParams = current
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, s); err != nil {
			return err
		}
	}
	return nil
}
