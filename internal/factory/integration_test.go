package factory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangchat/internal/api"
	"github.com/mcoot/hangchat/internal/api/response"
	"github.com/mcoot/hangchat/internal/config"
	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/server"
	redisstorage "github.com/mcoot/hangchat/internal/storage/redis"
	"github.com/mcoot/hangchat/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	server *server.Server
	admin  http.Handler
	ctx    context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.app = NewTestApp()
	s.start()
}

func (s *IntegrationSuite) start() {
	cfg := server.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.FrameWidth = testutil.TestFrameWidth

	srv, err := server.NewServer(cfg, s.app.Dispatcher, s.app.Clock, testutil.NopLogger())
	s.Require().NoError(err)
	s.Require().NoError(srv.Listen())
	go func() { _ = srv.Serve() }()
	s.server = srv

	s.admin = api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Registry: s.app.Registry,
		Engine:   s.app.Engine,
		Storage:  s.app.Storage,
	})

	s.T().Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = s.app.Close()
	})
}

// join dials and claims a name, draining the welcome and join notices
func (s *IntegrationSuite) join(names ...string) []*testutil.Peer {
	var peers []*testutil.Peer
	for _, name := range names {
		p := testutil.Dial(s.T(), s.server.Addr())
		s.read(p)
		p.Send(":name " + name)
		p.Expect(name + " is unique and was appended to your client!")
		for _, other := range peers {
			other.Expect(name + " joined")
		}
		peers = append(peers, p)
	}
	return peers
}

func (s *IntegrationSuite) read(p *testutil.Peer) string {
	msg, err := p.Read()
	s.Require().NoError(err)
	return msg
}

func (s *IntegrationSuite) getJSON(path string, v any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.admin.ServeHTTP(rr, req)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Require().NoError(json.NewDecoder(rr.Body).Decode(v))
}

// Test: a whole hangman round over TCP, observed through the admin API
func (s *IntegrationSuite) TestCompleteGameFlow() {
	peers := s.join("ana", "ben")
	ana, ben := peers[0], peers[1]

	var sessions response.SessionList
	s.getJSON("/api/v1/sessions", &sessions)
	s.Equal(2, sessions.Count)

	// Step 1: ana hosts
	ana.Send(":hang start Go")
	s.Contains(s.read(ana), "your hangman game has started: 2 letters")
	s.Contains(s.read(ben), "ana started a hangman game: 2 letters")

	var game response.Game
	s.getJSON("/api/v1/game", &game)
	s.Equal(string(model.GameStateInProgress), game.State)
	s.Equal("__", game.Masked)
	s.Nil(game.Word)

	// Step 2: ben misses once, then solves it
	ben.Send(":hang guess x")
	for _, p := range peers {
		s.True(strings.HasPrefix(s.read(p), "ben guessed x (miss)"))
	}
	ben.Send(":hang guess G")
	for _, p := range peers {
		s.True(strings.HasPrefix(s.read(p), "ben guessed g (hit)"))
	}
	ben.Send(":hang guess o")
	for _, p := range peers {
		msg := s.read(p)
		s.True(strings.HasPrefix(msg, "ben guessed o (hit)"))
		s.Contains(msg, "Success!")
	}

	s.getJSON("/api/v1/game", &game)
	s.Equal(string(model.GameStateWon), game.State)
	s.Require().NotNil(game.Word)
	s.Equal("Go", *game.Word)

	// Step 3: ana ends the game and it lands in the history
	s.app.MockClock.Advance(time.Minute)
	ana.Send(":hang end")
	for _, p := range peers {
		s.Equal("ana ended the hangman game (won). The word was: Go", s.read(p))
	}

	s.Eventually(func() bool {
		n, err := s.app.Storage.CountGameSummaries(s.ctx)
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)

	var games response.GameList
	s.getJSON("/api/v1/games", &games)
	s.Require().Len(games.Games, 1)
	s.Equal("Go", games.Games[0].Word)
	s.Equal("won", games.Games[0].Outcome)
	s.Equal(1, games.Games[0].WrongAttempts)
	s.Equal("xgo", games.Games[0].GuessedLetters)

	ben.Send(":hang history")
	s.Equal("recent games:\nGo by ana: won (1/10 wrong)", s.read(ben))
}

// Test: the host hanging up ends the game for everyone else
func (s *IntegrationSuite) TestHostDisconnectEndsGame() {
	peers := s.join("ana", "ben")
	ana, ben := peers[0], peers[1]

	ana.Send(":hang start kiwi")
	s.read(ana)
	s.read(ben)

	s.Require().NoError(ana.Close())

	s.Equal("ana left", s.read(ben))
	s.Equal("ana left, so the hangman game is over (abandoned). The word was: kiwi", s.read(ben))

	s.Eventually(func() bool {
		return s.app.Engine.Snapshot().State == model.GameStateNone && s.app.Registry.Len() == 1
	}, time.Second, 10*time.Millisecond)

	s.Eventually(func() bool {
		n, err := s.app.Storage.CountGameSummaries(s.ctx)
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)

	var games response.GameList
	s.getJSON("/api/v1/games", &games)
	s.Require().Len(games.Games, 1)
	s.Equal("abandoned", games.Games[0].Outcome)
}

// Test: the coin flip uses the injected random source and reaches everyone
func (s *IntegrationSuite) TestFlipUsesRandom() {
	peers := s.join("ana", "ben")

	s.app.MockRandom.QueueIntn(1)
	peers[1].Send(":flip")
	for _, p := range peers {
		s.Equal("ben flipped a coin: tails", s.read(p))
	}
}

func TestNewMemoryByDefault(t *testing.T) {
	app, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	app.Start()
	defer func() { _ = app.Close() }()

	if app.Engine.MaxAttempts() != 10 {
		t.Fatalf("want 10 attempts, got %d", app.Engine.MaxAttempts())
	}
	if err := app.Storage.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestNewRejectsBadStorage(t *testing.T) {
	if _, err := New(Config{StorageType: "postgres"}); err == nil {
		t.Fatal("want error for unknown storage type")
	}
	if _, err := New(Config{StorageType: StorageTypeRedis}); err == nil {
		t.Fatal("want error for missing redis config")
	}
}

func TestNewFromConfigWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		MaxAttempts: 6,
		Storage: config.StorageConfig{
			Type: config.StorageTypeRedis,
			Redis: config.RedisConfig{
				URL:        "redis://" + mr.Addr(),
				PoolSize:   4,
				MaxHistory: 10,
			},
		},
	}

	fc := ConfigFrom(cfg, testutil.NopLogger())
	if fc.RedisConfig == nil || fc.RedisConfig.MaxHistory != 10 {
		t.Fatalf("redis config not carried over: %+v", fc.RedisConfig)
	}

	app, err := New(fc)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = app.Close() }()

	if _, ok := app.Storage.(*redisstorage.Storage); !ok {
		t.Fatalf("want redis storage, got %T", app.Storage)
	}
	if app.Engine.MaxAttempts() != 6 {
		t.Fatalf("want 6 attempts, got %d", app.Engine.MaxAttempts())
	}
}
