// Package server exposes practice history and the chord classifier over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/verte-zerg/chordquiz/internal/input"
	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/quiz"
	"github.com/verte-zerg/chordquiz/internal/stats"
	"github.com/verte-zerg/chordquiz/internal/store"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

// Server serves the history API. A nil store limits it to the catalog and
// classifier endpoints.
type Server struct {
	store  *store.Store
	logger *log.Logger
}

// New creates a server backed by st.
func New(st *store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: st, logger: logger}
}

// Handler returns the routed, CORS-enabled handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/games", s.handleGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/attempts", s.handleAttempts).Methods(http.MethodGet)
	api.HandleFunc("/types", s.handleTypes).Methods(http.MethodGet)
	api.HandleFunc("/chord-types", s.handleChordTypes).Methods(http.MethodGet)
	api.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

// GameJSON is one stored game with derived metrics.
type GameJSON struct {
	ID         int64     `json:"id"`
	EndedAt    time.Time `json:"ended_at"`
	Chords     int       `json:"chords"`
	Succeeded  int       `json:"succeeded"`
	Score      int       `json:"score"`
	DurationMs int64     `json:"duration_ms"`
	Accuracy   float64   `json:"accuracy"`
	CPM        float64   `json:"cpm"`
	AvgScore   float64   `json:"avg_score"`
}

// AttemptJSON is one stored attempt.
type AttemptJSON struct {
	Position     int    `json:"position"`
	Expected     string `json:"expected"`
	ExpectedType string `json:"expected_type"`
	Played       string `json:"played"`
	Status       string `json:"status"`
	Score        int    `json:"score"`
}

// TypeJSON is the per-type aggregate of the selected games.
type TypeJSON struct {
	Type     string  `json:"type"`
	Correct  int     `json:"correct"`
	Missed   int     `json:"missed"`
	Accuracy float64 `json:"accuracy"`
	AvgScore float64 `json:"avg_score"`
}

// ChordTypeJSON is one catalog entry.
type ChordTypeJSON struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases"`
	Intervals []string `json:"intervals"`
}

// ClassifyRequest asks how a set of held MIDI notes rates against a chord.
type ClassifyRequest struct {
	Expected       string `json:"expected"`
	Notes          []int  `json:"notes"`
	Accidentals    string `json:"accidentals"`
	AllowOmissions bool   `json:"allow_omissions"`
}

// ClassifyResponse is the best interpretation of the held notes.
type ClassifyResponse struct {
	Expected   string   `json:"expected"`
	Chord      string   `json:"chord"`
	Status     string   `json:"status"`
	Score      int      `json:"score"`
	Success    bool     `json:"success"`
	Candidates []string `json:"candidates"`
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	cfg, err := statsConfigFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	games, err := s.store.ListGames(r.Context(), cfg)
	if err != nil {
		s.fail(w, "failed to list games", err)
		return
	}
	out := make([]GameJSON, 0, len(games))
	for _, g := range games {
		acc, cpm, avg := stats.GameMetrics(g)
		out = append(out, GameJSON{
			ID:         g.GameID,
			EndedAt:    g.EndedAt,
			Chords:     g.Chords,
			Succeeded:  g.Succeeded,
			Score:      g.Score,
			DurationMs: g.DurationMs,
			Accuracy:   acc,
			CPM:        cpm,
			AvgScore:   avg,
		})
	}
	s.writeJSON(w, out)
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	attempts, err := s.store.ListAttempts(r.Context(), id)
	if err != nil {
		s.fail(w, "failed to list attempts", err)
		return
	}
	if len(attempts) == 0 {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	out := make([]AttemptJSON, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, AttemptJSON{
			Position:     a.Position,
			Expected:     a.Expected,
			ExpectedType: a.ExpectedType,
			Played:       a.Played,
			Status:       a.Status.String(),
			Score:        a.Score,
		})
	}
	s.writeJSON(w, out)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	cfg, err := statsConfigFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := stats.BuildReport(r.Context(), s.store, cfg)
	if err != nil {
		s.fail(w, "failed to build report", err)
		return
	}
	out := make([]TypeJSON, 0, len(report.TypeAggsAll))
	for _, agg := range report.TypeAggsAll {
		acc, avg := stats.TypeMetrics(agg)
		out = append(out, TypeJSON{
			Type:     agg.Type,
			Correct:  agg.Correct,
			Missed:   agg.Missed,
			Accuracy: acc,
			AvgScore: avg,
		})
	}
	weakFirst(out)
	s.writeJSON(w, out)
}

func (s *Server) handleChordTypes(w http.ResponseWriter, _ *http.Request) {
	types := theory.Types()
	out := make([]ChordTypeJSON, 0, len(types))
	for _, t := range types {
		out = append(out, ChordTypeJSON{
			Symbol:    t.Symbol,
			Name:      t.Name,
			Aliases:   t.Aliases,
			Intervals: t.Intervals,
		})
	}
	s.writeJSON(w, out)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := Classify(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, resp)
}

// Classify rates the held notes of req against its expected chord the way a
// single press is rated during practice.
func Classify(req ClassifyRequest) (ClassifyResponse, error) {
	acc := theory.Sharp
	if req.Accidentals != "" {
		parsed, err := theory.ParseAccidentals(req.Accidentals)
		if err != nil {
			return ClassifyResponse{}, err
		}
		acc = parsed
	}
	expected, err := theory.ParseChord(req.Expected, acc)
	if err != nil {
		return ClassifyResponse{}, err
	}
	if len(req.Notes) == 0 {
		return ClassifyResponse{}, fmt.Errorf("no notes held")
	}
	notes := make([]uint8, 0, len(req.Notes))
	for _, n := range req.Notes {
		if n < 0 || n > 127 {
			return ClassifyResponse{}, fmt.Errorf("note %d out of MIDI range", n)
		}
		notes = append(notes, uint8(n))
	}

	in := input.Changed(notes, theory.DetectOptions{Accidentals: acc, AllowOmissions: req.AllowOmissions})
	best := quiz.Best(quiz.ClassifierFunc(quiz.Classify), expected, in, model.GameState{})

	resp := ClassifyResponse{
		Expected:   expected.Symbol,
		Status:     best.Status.String(),
		Score:      best.Score,
		Success:    best.Status.Success(),
		Candidates: []string{},
	}
	if best.Chord != nil {
		resp.Chord = best.Chord.Symbol
	}
	for _, c := range in.Chords {
		if c != nil {
			resp.Candidates = append(resp.Candidates, c.Symbol)
		}
	}
	return resp, nil
}

func weakFirst(types []TypeJSON) {
	sort.SliceStable(types, func(i, j int) bool {
		if types[i].Accuracy == types[j].Accuracy {
			return types[i].Type < types[j].Type
		}
		return types[i].Accuracy < types[j].Accuracy
	})
}

func statsConfigFromQuery(r *http.Request) (model.StatsConfig, error) {
	q := r.URL.Query()
	var cfg model.StatsConfig
	if v := q.Get("since"); v != "" {
		since, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since value %q", v)
		}
		cfg.Since = &since
	}
	if v := q.Get("last"); v != "" {
		last, err := strconv.Atoi(v)
		if err != nil || last < 0 {
			return cfg, fmt.Errorf("invalid last value %q", v)
		}
		cfg.Last = last
	}
	return cfg, nil
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		http.Error(w, "history is not available", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger.Printf("%s: %v", msg, err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("failed to write response: %v", err)
	}
}
