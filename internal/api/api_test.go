package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/hangchat/internal/api"
	"github.com/mcoot/hangchat/internal/api/apierr"
	"github.com/mcoot/hangchat/internal/api/response"
	"github.com/mcoot/hangchat/internal/dependencies/mocks"
	"github.com/mcoot/hangchat/internal/middleware"
	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
	"github.com/mcoot/hangchat/internal/storage"
	"github.com/mcoot/hangchat/internal/storage/memory"
	"github.com/mcoot/hangchat/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	t        *testing.T
	handler  http.Handler
	registry *registry.Registry
	engine   *hangman.Engine
	storage  storage.Storage
	clock    *mocks.MockClock
}

func newTestServer(t *testing.T, store storage.Storage, cacheTTL time.Duration) *testServer {
	t.Helper()

	logger := testutil.NopLogger()
	clock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	reg := registry.New(logger)
	engine := hangman.NewEngine(hangman.DefaultMaxAttempts, clock, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		Registry:        reg,
		Engine:          engine,
		Storage:         store,
		HistoryCacheTTL: cacheTTL,
	})

	return &testServer{t: t, handler: router, registry: reg, engine: engine, storage: store, clock: clock}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) connect(name string) {
	s, _ := testutil.NewSession(ts.t)
	_, err := ts.registry.Register(s, name)
	require.NoError(ts.t, err)
}

func (ts *testServer) saveGame(id string) {
	err := ts.storage.SaveGameSummary(context.Background(), &model.GameSummary{
		ID:          id,
		Word:        "word-" + id,
		HostName:    "ana",
		Outcome:     model.OutcomeWon,
		MaxAttempts: 10,
		EndedAt:     ts.clock.Now(),
	})
	require.NoError(ts.t, err)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)
	ts.connect("ana")

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decode[response.Health](t, rr)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Sessions)
	assert.Equal(t, "ok", resp.Storage)
}

type brokenStorage struct {
	*memory.Storage
}

func (brokenStorage) Ping(context.Context) error {
	return errors.New("dial tcp: connection refused")
}

func (brokenStorage) ListGameSummaries(context.Context, int) ([]*model.GameSummary, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestHealthCheckDegraded(t *testing.T) {
	ts := newTestServer(t, brokenStorage{memory.New()}, 0)

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	resp := decode[response.Health](t, rr)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unavailable", resp.Storage)
}

func TestSessions(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)
	ts.connect("cam")
	ts.connect("ana")
	// unnamed sessions are not listed
	testutil.NewSession(t)

	rr := ts.get("/api/v1/sessions")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.SessionList](t, rr)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, "ana", resp.Sessions[0].Name)
	assert.Equal(t, "cam", resp.Sessions[1].Name)
}

func TestGameWithoutGame(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)

	rr := ts.get("/api/v1/game")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.Game](t, rr)
	assert.Equal(t, string(model.GameStateNone), resp.State)
	assert.Nil(t, resp.Word)
	assert.Nil(t, resp.StartedAt)
}

func TestGameHidesWordWhileInProgress(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)
	_, err := ts.engine.Start("host-1", "ana", "apple")
	require.NoError(t, err)
	_, err = ts.engine.Guess("x")
	require.NoError(t, err)

	rr := ts.get("/api/v1/game")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "apple")

	resp := decode[response.Game](t, rr)
	assert.Equal(t, string(model.GameStateInProgress), resp.State)
	assert.Equal(t, "_____", resp.Masked)
	assert.Equal(t, []string{"x"}, resp.GuessedLetters)
	assert.Equal(t, 1, resp.WrongAttempts)
	assert.Equal(t, 9, resp.Remaining)
	assert.Equal(t, "ana", resp.Host)
	assert.Nil(t, resp.Word)
	require.NotNil(t, resp.StartedAt)
	assert.True(t, resp.StartedAt.Equal(ts.clock.Now()))
}

func TestGameRevealsWordAfterGameOver(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)
	_, err := ts.engine.Start("host-1", "ana", "a")
	require.NoError(t, err)
	for _, l := range []string{"b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		_, err := ts.engine.Guess(l)
		require.NoError(t, err)
	}

	resp := decode[response.Game](t, ts.get("/api/v1/game"))
	assert.Equal(t, string(model.GameStateGameOver), resp.State)
	require.NotNil(t, resp.Word)
	assert.Equal(t, "a", *resp.Word)
}

func TestGamesNewestFirst(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)
	for i := range 3 {
		ts.saveGame(fmt.Sprintf("g%d", i))
	}

	rr := ts.get("/api/v1/games?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.GameList](t, rr)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Games, 2)
	assert.Equal(t, "g2", resp.Games[0].ID)
	assert.Equal(t, "g1", resp.Games[1].ID)
}

func TestGamesRejectsBadLimit(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)

	for _, limit := range []string{"0", "-1", "abc", "1000"} {
		rr := ts.get("/api/v1/games?limit=" + limit)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit %s", limit)

		resp := decode[apierr.ErrorResponse](t, rr)
		assert.Equal(t, apierr.CodeInvalidRequest, resp.Error.Code)
	}
}

func TestGamesAreCached(t *testing.T) {
	ts := newTestServer(t, memory.New(), time.Minute)
	ts.saveGame("g1")

	first := decode[response.GameList](t, ts.get("/api/v1/games"))
	require.Len(t, first.Games, 1)

	ts.saveGame("g2")

	cached := decode[response.GameList](t, ts.get("/api/v1/games"))
	assert.Len(t, cached.Games, 1)

	// a different limit is a different cache entry
	fresh := decode[response.GameList](t, ts.get("/api/v1/games?limit=5"))
	assert.Len(t, fresh.Games, 2)
}

func TestGamesWithoutCacheSeeNewGames(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)
	ts.saveGame("g1")
	_ = ts.get("/api/v1/games")
	ts.saveGame("g2")

	resp := decode[response.GameList](t, ts.get("/api/v1/games"))
	assert.Len(t, resp.Games, 2)
}

func TestGamesStorageFailure(t *testing.T) {
	ts := newTestServer(t, brokenStorage{memory.New()}, 0)

	rr := ts.get("/api/v1/games")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeStorageUnavailable, resp.Error.Code)
}

func TestGameByID(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)
	ts.saveGame("g1")

	rr := ts.get("/api/v1/games/g1")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[response.GameSummary](t, rr)
	assert.Equal(t, "word-g1", resp.Word)
	assert.Equal(t, "won", resp.Outcome)

	rr = ts.get("/api/v1/games/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	errResp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeGameNotFound, errResp.Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)

	rr := ts.get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeNotFound, resp.Error.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeMethodNotAllowed, resp.Error.Code)
}

func TestMethodNotAllowedOnParameterisedRoute(t *testing.T) {
	ts := newTestServer(t, memory.New(), 0)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/games/abc", nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestPanicBecomesJSONError(t *testing.T) {
	// nil engine makes the game handler panic
	router := api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Registry: registry.New(testutil.NopLogger()),
		Storage:  memory.New(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/game", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeInternalError, resp.Error.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}
