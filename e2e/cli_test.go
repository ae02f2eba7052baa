package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenknight/chessclub/internal/api"
	"github.com/goldenknight/chessclub/internal/config"
	"github.com/goldenknight/chessclub/internal/factory"
	"github.com/goldenknight/chessclub/internal/services/roster"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "clubctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/clubctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.App
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Create a fully in-memory application
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(context.Background(), &config.Config{
		StorageType:    config.StorageMemory,
		SessionBackend: config.SessionMemory,
		SessionTTL:     24 * time.Hour,
	}, logger)
	require.NoError(t, err)

	// Seed the bootstrap admin account
	_, err = app.RosterService.Create(context.Background(), roster.CreateParams{
		Name:    "admin",
		PIN:     "0000",
		IsAdmin: true,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		AuthService:   app.AuthService,
		LedgerService: app.LedgerService,
		RosterService: app.RosterService,
		Hub:           app.Hub,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type authResponse struct {
	Player struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		IsAdmin *bool  `json:"isAdmin"`
	} `json:"player"`
	SessionToken string `json:"session_token"`
}

type playerResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	InitialRating int    `json:"initialElo"`
	CurrentRating int    `json:"currentElo"`
	IsAdmin       *bool  `json:"isAdmin"`
	Stats         struct {
		GamesPlayed int `json:"gamesPlayed"`
		Wins        int `json:"wins"`
	} `json:"stats"`
}

type gameResponse struct {
	ID    int64 `json:"id"`
	White struct {
		ID int64 `json:"id"`
	} `json:"white"`
	Black struct {
		ID int64 `json:"id"`
	} `json:"black"`
	Result         string `json:"result"`
	WhiteEloChange int    `json:"whiteEloChange"`
	BlackEloChange int    `json:"blackEloChange"`
	Verified       *bool  `json:"verified"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_LoginAndMe(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("login", "--name", "admin", "--pin", "0000")
	require.NoError(t, err, "output: %s", output)

	var auth authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth))
	assert.Equal(t, "admin", auth.Player.Name)
	require.NotNil(t, auth.Player.IsAdmin)
	assert.True(t, *auth.Player.IsAdmin)
	assert.NotEmpty(t, auth.SessionToken)

	// The token was saved to the token file
	output, err = cli.run("player", "me")
	require.NoError(t, err, "output: %s", output)

	var me playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &me))
	assert.Equal(t, auth.Player.ID, me.ID)
	assert.Equal(t, 1200, me.CurrentRating)
}

func TestCLI_FullClubFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Admin logs in and registers two members
	output, err := cli.run("login", "--name", "admin", "--pin", "0000")
	require.NoError(t, err, "output: %s", output)
	var auth authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &auth))
	adminToken := auth.SessionToken

	output, err = cli.runWithToken(adminToken, "player", "create", "--name", "alice", "--pin", "1111")
	require.NoError(t, err, "output: %s", output)
	var alice playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &alice))

	output, err = cli.runWithToken(adminToken, "player", "create", "--name", "bob", "--pin", "2222")
	require.NoError(t, err, "output: %s", output)
	var bob playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &bob))

	// Alice submits a win over Bob
	output, err = cli.runWithToken(adminToken, "game", "submit",
		"--white", fmt.Sprintf("%d", alice.ID),
		"--black", fmt.Sprintf("%d", bob.ID),
		"--result", "1-0")
	require.NoError(t, err, "output: %s", output)

	var game gameResponse
	require.NoError(t, json.Unmarshal([]byte(output), &game))
	assert.Equal(t, 10, game.WhiteEloChange)
	assert.Equal(t, -10, game.BlackEloChange)
	require.NotNil(t, game.Verified, "admin sees the verified flag")
	assert.False(t, *game.Verified)

	// Ratings unchanged until verification
	output, err = cli.run("player", "get", fmt.Sprintf("%d", alice.ID))
	require.NoError(t, err, "output: %s", output)
	var row playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &row))
	assert.Equal(t, 1200, row.CurrentRating)

	// Admin verifies
	output, err = cli.runWithToken(adminToken, "game", "verify", fmt.Sprintf("%d", game.ID))
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &game))
	require.NotNil(t, game.Verified)
	assert.True(t, *game.Verified)

	// Standings reflect the verified game
	output, err = cli.run("standings")
	require.NoError(t, err, "output: %s", output)
	var standings []playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &standings))
	require.Len(t, standings, 3)
	assert.Equal(t, "alice", standings[0].Name)
	assert.Equal(t, 1210, standings[0].CurrentRating)
	assert.Equal(t, 1, standings[0].Stats.Wins)

	// Game listing shows the result
	output, err = cli.run("game", "list", "--verified")
	require.NoError(t, err, "output: %s", output)
	var games []gameResponse
	require.NoError(t, json.Unmarshal([]byte(output), &games))
	require.Len(t, games, 1)
	assert.Equal(t, "1-0", games[0].Result)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Get own profile without auth
	output, err := cli.run("player", "me")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")

	// Unknown game
	output, err = cli.run("game", "get", "9999")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	// Wrong PIN
	output, err = cli.run("login", "--name", "admin", "--pin", "wrong")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "invalid name or pin")
}
