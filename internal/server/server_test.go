package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/chordquiz/internal/model"
	"github.com/verte-zerg/chordquiz/internal/store"
)

func newTestServer(t *testing.T, st *store.Store) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(st, log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "chordquiz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedGame(t *testing.T, st *store.Store, endedAt time.Time) int64 {
	t.Helper()
	attempts := []model.AttemptRecord{
		{Position: 0, Expected: "Cmaj7", ExpectedType: "maj7", Played: "Cmaj7", Status: model.StatusCorrect, Score: 100},
		{Position: 1, Expected: "Dm7", ExpectedType: "m7", Played: "Dm", Status: model.StatusNearMiss, Score: 38},
		{Position: 2, Expected: "G7", ExpectedType: "7", Played: "G7", Status: model.StatusCorrect, Score: 100},
	}
	id, err := st.InsertGame(context.Background(), model.GameRecord{
		RunID:      "run",
		StartedAt:  endedAt.Add(-30 * time.Second),
		EndedAt:    endedAt,
		Key:        "C",
		Chords:     3,
		Succeeded:  2,
		Score:      238,
		DurationMs: 30000,
	}, attempts)
	require.NoError(t, err)
	return id
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postClassify(t *testing.T, url, body string) (*http.Response, ClassifyResponse) {
	t.Helper()
	resp, err := http.Post(url+"/api/classify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out ClassifyResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestGamesEndpoint(t *testing.T) {
	st := openStore(t)
	seedGame(t, st, time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local))
	seedGame(t, st, time.Date(2024, 2, 1, 12, 0, 0, 0, time.Local))
	srv := newTestServer(t, st)

	var games []GameJSON
	resp := getJSON(t, srv.URL+"/api/games", &games)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, games, 2)
	assert.InDelta(t, 2.0/3.0, games[0].Accuracy, 1e-9)
	assert.InDelta(t, 6.0, games[0].CPM, 1e-9)
	assert.Equal(t, 238, games[0].Score)

	games = nil
	resp = getJSON(t, srv.URL+"/api/games?since=2024-01-15", &games)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, games, 1)

	resp = getJSON(t, srv.URL+"/api/games?last=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTypesEndpointWeakestFirst(t *testing.T) {
	st := openStore(t)
	seedGame(t, st, time.Now())
	srv := newTestServer(t, st)

	var types []TypeJSON
	resp := getJSON(t, srv.URL+"/api/types", &types)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, types, 3)
	assert.Equal(t, "m7", types[0].Type)
	assert.Equal(t, 0.0, types[0].Accuracy)
	assert.Equal(t, 1, types[0].Missed)
	assert.InDelta(t, 38.0, types[0].AvgScore, 1e-9)
}

func TestAttemptsEndpoint(t *testing.T) {
	st := openStore(t)
	id := seedGame(t, st, time.Now())
	srv := newTestServer(t, st)

	var attempts []AttemptJSON
	resp := getJSON(t, srv.URL+"/api/games/"+strconv.FormatInt(id, 10)+"/attempts", &attempts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, attempts, 3)
	assert.Equal(t, "near miss", attempts[1].Status)
	assert.Equal(t, "Dm", attempts[1].Played)

	resp = getJSON(t, srv.URL+"/api/games/999/attempts", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryWithoutStore(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := getJSON(t, srv.URL+"/api/games", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var types []ChordTypeJSON
	resp = getJSON(t, srv.URL+"/api/chord-types", &types)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, types)
	assert.Equal(t, "maj", types[0].Symbol)
	assert.Equal(t, []string{"1P", "3M", "5P"}, types[0].Intervals)
}

func TestClassifyEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, out := postClassify(t, srv.URL, `{"expected":"C","notes":[60,64,67]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cmaj", out.Expected)
	assert.Equal(t, "Cmaj", out.Chord)
	assert.Equal(t, "correct", out.Status)
	assert.Equal(t, 100, out.Score)
	assert.True(t, out.Success)
	assert.Equal(t, []string{"Cmaj", "Em#5"}, out.Candidates)

	resp, out = postClassify(t, srv.URL, `{"expected":"C6","notes":[57,60,64,67]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "C6", out.Chord)
	assert.Equal(t, "correct", out.Status)

	resp, out = postClassify(t, srv.URL, `{"expected":"Cmaj7","notes":[60,64,67]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "near miss", out.Status)
	assert.Equal(t, 38, out.Score)
	assert.False(t, out.Success)

	resp, out = postClassify(t, srv.URL, `{"expected":"C","notes":[62,66,69]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "wrong", out.Status)
	assert.Equal(t, 0, out.Score)
}

func TestClassifyRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, nil)
	for name, body := range map[string]string{
		"unknown chord": `{"expected":"H7","notes":[60]}`,
		"no notes":      `{"expected":"C","notes":[]}`,
		"out of range":  `{"expected":"C","notes":[200]}`,
		"accidentals":   `{"expected":"C","notes":[60],"accidentals":"natural"}`,
		"unknown field": `{"expected":"C","notes":[60],"tempo":90}`,
		"not json":      `chord please`,
	} {
		resp, _ := postClassify(t, srv.URL, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/chord-types", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
