package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/city-distance-service/internal/adapter/http"
	"github.com/couchcryptid/city-distance-service/internal/autocomplete"
	"github.com/couchcryptid/city-distance-service/internal/domain"
	"github.com/couchcryptid/city-distance-service/internal/geodesy"
	"github.com/couchcryptid/city-distance-service/internal/observability"
	"github.com/couchcryptid/city-distance-service/internal/session"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSearcher map[string][]domain.PlaceCandidate

func (s staticSearcher) Search(_ context.Context, query string) ([]domain.PlaceCandidate, error) {
	return s[query], nil
}

var places = staticSearcher{
	"Par": {
		{Label: "Paris, France", Location: domain.GeoPoint{Lat: 48.8566, Lon: 2.3522}},
		{Label: "Parma, Italy", Location: domain.GeoPoint{Lat: 44.8015, Lon: 10.3279}},
	},
	"Lon": {
		{Label: "London, United Kingdom", Location: domain.GeoPoint{Lat: 51.5074, Lon: -0.1278}},
	},
}

type testEnv struct {
	srv   *httpadapter.Server
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T, searcher domain.PlaceSearcher) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager(session.Config{
		Searcher:  searcher,
		Algorithm: geodesy.Haversine,
		Fallback:  true,
		Clock:     clock,
		Logger:    logger,
		Metrics:   observability.NewMetricsForTesting(),
	})
	t.Cleanup(manager.Close)
	return &testEnv{
		srv:   httpadapter.NewServer(":0", manager, geodesy.Haversine, logger),
		clock: clock,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type stateBody struct {
	State      string                  `json:"state"`
	Input      string                  `json:"input"`
	Candidates []domain.PlaceCandidate `json:"candidates"`
	Message    string                  `json:"message"`
	Selection  *domain.PlaceCandidate  `json:"selection"`
	Visible    bool                    `json:"suggestions_visible"`
}

type sessionBody struct {
	ID          string    `json:"id"`
	Origin      stateBody `json:"origin"`
	Destination stateBody `json:"destination"`
	Distance    *struct {
		Algorithm         string  `json:"algorithm"`
		Kilometers        float64 `json:"kilometers"`
		RoundedKilometers float64 `json:"rounded_kilometers"`
		Fallback          bool    `json:"fallback"`
	} `json:"distance"`
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode[map[string]string](t, rec)
	require.NotEmpty(t, body["id"])
	return body["id"]
}

// typeQuery enters text and waits for suggestions.
func (e *testEnv) typeQuery(t *testing.T, id, endpoint, text string) {
	t.Helper()
	rec := e.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/"+endpoint+"/input", `{"text":"`+text+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "debouncing", decode[stateBody](t, rec).State)

	e.clock.Advance(autocomplete.DefaultDebounce)
	require.Eventually(t, func() bool {
		body := decode[sessionBody](t, e.do(t, http.MethodGet, "/api/v1/sessions/"+id, ""))
		state := body.Origin
		if endpoint == session.EndpointDestination {
			state = body.Destination
		}
		return state.State == "ready"
	}, time.Second, time.Millisecond)
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	env := newTestEnv(t, places)
	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	env := newTestEnv(t, places)
	rec := env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WithoutSearcher(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, places)
	rec := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- sessions ---

func TestCreateSessionReturnsOnlyID(t *testing.T) {
	env := newTestEnv(t, places)
	rec := env.do(t, http.MethodPost, "/api/v1/sessions", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode[map[string]any](t, rec)
	assert.Len(t, body, 1)
	assert.NotEmpty(t, body["id"])
}

func TestSessionResponsesAreJSON(t *testing.T) {
	env := newTestEnv(t, places)
	id := env.createSession(t)

	for _, rec := range []*httptest.ResponseRecorder{
		env.do(t, http.MethodGet, "/api/v1/sessions/"+id, ""),
		env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/origin/input", `{"text":"Par"}`),
		env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/origin/dismiss", ""),
		env.do(t, http.MethodGet, "/api/v1/sessions/missing", ""),
	} {
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.True(t, json.Valid(rec.Body.Bytes()), rec.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, places)
	id := env.createSession(t)

	rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[sessionBody](t, rec)
	assert.Equal(t, "idle", body.Origin.State)
	assert.Equal(t, "idle", body.Destination.State)
	assert.Nil(t, body.Distance)

	rec = env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "session not found")

	rec = env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectBothEndpointsYieldsDistance(t *testing.T) {
	env := newTestEnv(t, places)
	id := env.createSession(t)

	env.typeQuery(t, id, "origin", "Par")
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/origin/select", `{"index":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[stateBody](t, rec)
	assert.Equal(t, "selected", state.State)
	assert.Equal(t, "Paris, France", state.Input)
	require.NotNil(t, state.Selection)

	env.typeQuery(t, id, "destination", "Lon")
	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/destination/select", `{"index":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[sessionBody](t, env.do(t, http.MethodGet, "/api/v1/sessions/"+id, ""))
	require.NotNil(t, body.Distance)
	assert.Equal(t, "haversine", body.Distance.Algorithm)
	assert.InDelta(t, 340, body.Distance.RoundedKilometers, 0)
	assert.False(t, body.Distance.Fallback)
}

func TestSelectErrors(t *testing.T) {
	env := newTestEnv(t, places)
	id := env.createSession(t)
	selectURL := "/api/v1/sessions/" + id + "/origin/select"

	rec := env.do(t, http.MethodPost, selectURL, `{"index":0}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env.typeQuery(t, id, "origin", "Par")

	rec = env.do(t, http.MethodPost, selectURL, `{"index":5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, selectURL, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, selectURL, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDismissAndFocus(t *testing.T) {
	env := newTestEnv(t, places)
	id := env.createSession(t)
	env.typeQuery(t, id, "origin", "Par")

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/origin/dismiss", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[stateBody](t, rec)
	assert.Equal(t, "ready", state.State)
	assert.False(t, state.Visible)
	assert.Len(t, state.Candidates, 2)

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/origin/focus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[stateBody](t, rec).Visible)
}

func TestBlankInputIsIdle(t *testing.T) {
	env := newTestEnv(t, places)
	id := env.createSession(t)

	rec := env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/origin/input", `{"text":"  "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idle", decode[stateBody](t, rec).State)
}

func TestUnknownSessionOrEndpoint(t *testing.T) {
	env := newTestEnv(t, places)
	id := env.createSession(t)

	rec := env.do(t, http.MethodPut, "/api/v1/sessions/nope/origin/input", `{"text":"Par"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/waypoint/input", `{"text":"Par"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "unknown endpoint")
}

// --- stateless distance ---

func TestDistanceEndpoint(t *testing.T) {
	env := newTestEnv(t, places)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantAlg    string
		wantRound  float64
	}{
		{"default haversine", "from=48.8566,2.3522&to=51.5074,-0.1278", http.StatusOK, "haversine", 340},
		{"vincenty", "from=48.8566,2.3522&to=51.5074,-0.1278&algorithm=Vincenty", http.StatusOK, "vincenty", 340},
		{"identical points", "from=10,10&to=10,10&algorithm=vincenty", http.StatusOK, "vincenty", 0},
		{"missing from", "to=51.5074,-0.1278", http.StatusBadRequest, "", 0},
		{"latitude out of range", "from=91,0&to=0,0", http.StatusBadRequest, "", 0},
		{"unknown algorithm", "from=0,0&to=1,1&algorithm=manhattan", http.StatusBadRequest, "", 0},
		{"no convergence", "from=0,0&to=0.5,179.7&algorithm=vincenty", http.StatusUnprocessableEntity, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/distance?"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
				return
			}
			body := decode[map[string]any](t, rec)
			assert.Equal(t, tt.wantAlg, body["algorithm"])
			assert.InDelta(t, tt.wantRound, body["rounded_kilometers"], 0)
		})
	}
}
