package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Games          []model.GameAggregate
	WindowGameIDs  []int64
	TypeAggsAll    []model.TypeAggregate
	TypeAggsWindow []model.TypeAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	games, err := st.ListGames(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list games: %w", err)
	}

	windowIDs := lastGameIDs(games, cfg.CurveWindow)
	typeAggsAll, err := st.ListTypeAggregatesForGames(ctx, gameIDs(games))
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate chord types: %w", err)
	}
	typeAggsWindow, err := st.ListTypeAggregatesForGames(ctx, windowIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate chord types: %w", err)
	}

	return Report{
		Games:          games,
		WindowGameIDs:  windowIDs,
		TypeAggsAll:    typeAggsAll,
		TypeAggsWindow: typeAggsWindow,
	}, nil
}

// Render writes the full text report.
func (r Report) Render(w io.Writer, window int) error {
	if err := RenderSummary(w, r.Games); err != nil {
		return err
	}
	if len(r.Games) == 0 {
		return nil
	}
	if err := RenderCurves(w, r.Games, window); err != nil {
		return err
	}
	return RenderTypeTable(w, r.TypeAggsWindow)
}

func gameIDs(games []model.GameAggregate) []int64 {
	ids := make([]int64, len(games))
	for i, g := range games {
		ids[i] = g.GameID
	}
	return ids
}

func lastGameIDs(games []model.GameAggregate, window int) []int64 {
	if window <= 0 || len(games) <= window {
		return gameIDs(games)
	}
	return gameIDs(games[len(games)-window:])
}
