package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/proplatform/internal/identity/identitytest"
)

const apiKey = "e2e-key"

// environment is one fake provider and one shared redis session store
type environment struct {
	projectRoot string
	provider    *identitytest.Provider
	redis       *miniredis.Miniredis
}

func newEnvironment(t *testing.T) *environment {
	t.Helper()
	return &environment{
		projectRoot: findProjectRoot(t),
		provider:    identitytest.NewServer(t, identitytest.Options{APIKey: apiKey}),
		redis:       miniredis.RunT(t),
	}
}

// env returns the PROPLATFORM_* variables both binaries read
func (e *environment) env() []string {
	return append(os.Environ(),
		"PROPLATFORM_API_KEY="+apiKey,
		"PROPLATFORM_BASE_URL="+e.provider.BaseURL(),
		"PROPLATFORM_SESSION_BACKEND=redis",
		"PROPLATFORM_REDIS_URL=redis://"+e.redis.Addr()+"/0",
		"PROPLATFORM_LOG_LEVEL=error",
	)
}

// build compiles a command from ./cmd into a temp dir
func (e *environment) build(t *testing.T, name string) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/"+name)
	cmd.Dir = e.projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build %s: %s", name, string(output))
	return binaryPath
}

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	env        []string
}

func (r *cliRunner) run(args ...string) (string, error) {
	cmd := exec.Command(r.binaryPath, append([]string{"--output", "json"}, args...)...)
	cmd.Env = r.env
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

// startWeb runs the ppweb binary on a free port and returns its base URL
func startWeb(t *testing.T, e *environment) string {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, e.build(t, "ppweb"))
	cmd.Env = append(e.env(), "PROPLATFORM_LISTEN_ADDR="+addr)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		cancel()
		_ = cmd.Wait()
	})

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/healthz")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)

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

	t.Fatalf("server at %s did not become ready", url)
}

// noRedirect returns redirects to the caller instead of following them
var noRedirect = &http.Client{
	Timeout: 5 * time.Second,
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func TestCLI_AccountLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	e := newEnvironment(t)
	cli := &cliRunner{binaryPath: e.build(t, "ppctl"), env: e.env()}

	output, err := cli.run("health")
	require.NoError(t, err, output)
	assert.Contains(t, output, `"status": "ok"`)

	output, err = cli.run("register", "--name", "Ann Lee", "--email", "ann@example.com", "--password", "secret1")
	require.NoError(t, err, output)
	assert.Contains(t, output, `"action": "register"`)

	// The credential lives in redis under the default slot
	keys := e.redis.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], "userData"), keys[0])

	output, err = cli.run("profile", "show")
	require.NoError(t, err, output)

	var profile struct {
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &profile))
	assert.Equal(t, "Ann Lee", profile.DisplayName)
	assert.Equal(t, "ann@example.com", profile.Email)

	output, err = cli.run("logout")
	require.NoError(t, err, output)
	assert.Empty(t, e.redis.Keys())

	output, err = cli.run("profile", "show")
	require.Error(t, err)
	assert.Contains(t, output, "not signed in")
}

func TestCLI_ErrorHandling(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	e := newEnvironment(t)
	cli := &cliRunner{binaryPath: e.build(t, "ppctl"), env: e.env()}

	output, err := cli.run("login", "--email", "nobody@example.com", "--password", "secret1")
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, output, "Invalid Credentials.")

	output, err = cli.run("--output", "yaml", "status")
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.Contains(t, output, "invalid output format")
}

func TestWeb_SharesSessionWithCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	e := newEnvironment(t)
	cli := &cliRunner{binaryPath: e.build(t, "ppctl"), env: e.env()}
	webURL := startWeb(t, e)

	resp, err := noRedirect.Get(webURL + "/profile")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Sign in from the CLI; the console reads the same slot
	output, err := cli.run("register", "--name", "Ann", "--email", "ann@example.com", "--password", "secret1")
	require.NoError(t, err, output)

	resp, err = noRedirect.Get(webURL + "/profile")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", strings.TrimSpace(doc.Find("#email").Text()))

	// Signing out on the console ends the CLI session too
	resp, err = noRedirect.PostForm(webURL+"/logout", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	output, err = cli.run("status")
	require.NoError(t, err, output)
	assert.Contains(t, output, `"state": "anonymous"`)
}
