package cli

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada-remote/internal/config"
	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/remote/remotetest"
	"github.com/Makepad-fr/tada-remote/internal/ui"
	"github.com/Makepad-fr/tada-remote/internal/view"
)

type harness struct {
	srv *remotetest.Server
	dir string
}

func newHarness(t *testing.T, seed ...model.Todo) *harness {
	t.Helper()
	for _, k := range []string{config.EnvHome, config.EnvServer, config.EnvTheme, config.EnvToken, config.EnvTimeout, envLogLevel} {
		t.Setenv(k, "")
	}
	srv := remotetest.New()
	t.Cleanup(srv.Close)
	srv.Seed(seed...)
	t.Cleanup(func() {
		ui.SetOutput(os.Stdout, os.Stderr)
		ui.SetColorForcing(false, false)
		_ = ui.SetTheme(config.DefaultTheme)
	})
	return &harness{srv: srv, dir: t.TempDir()}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (h *harness) run(t *testing.T, args ...string) result {
	t.Helper()
	return h.runIn(t, "", args...)
}

func (h *harness) runIn(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append(args, "--config-dir", h.dir, "--server", h.srv.URL, "--no-color")
	code := Execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (h *harness) methods() []string {
	var out []string
	for _, r := range h.srv.Requests() {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func TestLs_Empty(t *testing.T) {
	h := newHarness(t)
	r := h.run(t, "ls")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, view.EmptyText)
	assert.Contains(t, r.stdout, "Total: 0")
}

func TestLs_RowsInServerOrder(t *testing.T) {
	h := newHarness(t,
		model.Todo{ID: "2", Text: "Walk dog", Completed: true},
		model.Todo{ID: "1", Text: "Buy milk"},
	)
	r := h.run(t, "ls")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Total: 2")
	assert.Contains(t, r.stdout, "Completed: 1")
	walk := strings.Index(r.stdout, "Walk dog")
	buy := strings.Index(r.stdout, "Buy milk")
	require.True(t, walk >= 0 && buy >= 0)
	assert.Less(t, walk, buy)
}

func TestLs_Group(t *testing.T) {
	h := newHarness(t,
		model.Todo{ID: "1", Text: "Buy milk"},
		model.Todo{ID: "2", Text: "Walk dog", Completed: true},
	)
	r := h.run(t, "ls", "--group")
	require.Equal(t, ExitOK, r.code, r.stderr)
	pending := strings.Index(r.stdout, "Pending")
	done := strings.Index(r.stdout, "Done")
	require.True(t, pending >= 0 && done >= 0)
	assert.Less(t, pending, strings.Index(r.stdout, "Buy milk"))
	assert.Less(t, done, strings.Index(r.stdout, "Walk dog"))
}

func TestLs_HTMLEscapesText(t *testing.T) {
	h := newHarness(t, model.Todo{ID: "1", Text: "<b>x</b>"})
	r := h.run(t, "ls", "--html")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "&lt;b&gt;x&lt;/b&gt;")
	assert.NotContains(t, r.stdout, "<b>x</b>")
	assert.Contains(t, r.stdout, `id="totalCount"`)
}

func TestLs_ServerDown(t *testing.T) {
	h := newHarness(t)
	h.srv.FailNext(http.StatusInternalServerError, "")
	r := h.run(t, "ls")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "Failed to load todos")
}

func TestAddDoneEditRm(t *testing.T) {
	h := newHarness(t)

	r := h.run(t, "add", "Buy", "milk")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "added #1")

	r = h.run(t, "done", "1")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "#1 done")

	r = h.run(t, "edit", "1", "Buy", "oat", "milk")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Equal(t, []model.Todo{{ID: "1", Text: "Buy oat milk", Completed: true}}, h.srv.Todos())

	r = h.run(t, "done", "1")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "#1 pending")

	r = h.run(t, "rm", "1")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "removed #1")
	assert.Empty(t, h.srv.Todos())

	assert.Equal(t, []string{
		"POST /api/todos",
		"PUT /api/todos/1",
		"PUT /api/todos/1",
		"PUT /api/todos/1",
		"DELETE /api/todos/1",
	}, h.methods())
}

func TestAdd_BlankIsUsageAndSendsNothing(t *testing.T) {
	h := newHarness(t)
	r := h.run(t, "add", "   ")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.stderr, "Please enter a todo")
	assert.Empty(t, h.srv.Requests())
}

func TestEdit_ServerMessageIsShown(t *testing.T) {
	h := newHarness(t, model.Todo{ID: "1", Text: "Buy milk"})
	h.srv.FailNext(http.StatusBadRequest, "Text is too long")
	r := h.run(t, "edit", "1", "x")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "Text is too long")
}

func TestDone_UnknownID(t *testing.T) {
	h := newHarness(t)
	r := h.run(t, "done", "42")
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "Failed to update todo")
}

func TestUsageErrors(t *testing.T) {
	cases := map[string][]string{
		"unknown command": {"frobnicate"},
		"missing id":      {"done"},
		"too many ids":    {"rm", "1", "2"},
		"edit needs text": {"edit", "1"},
		"unknown flag":    {"ls", "--bogus"},
		"bad theme":       {"ls", "--theme", "sparkly"},
		"bad log level":   {"ls", "--log-level", "loud"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			r := h.run(t, args...)
			assert.Equal(t, ExitUsage, r.code, r.stderr)
			assert.Empty(t, h.srv.Requests())
		})
	}
}

func TestAuth_LoginStatusLogout(t *testing.T) {
	h := newHarness(t)

	r := h.run(t, "auth", "status")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "token:  none")

	r = h.run(t, "auth", "login", "--token", "Bearer secret-token")
	require.Equal(t, ExitOK, r.code, r.stderr)

	r = h.run(t, "auth", "status")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "****oken (from file)")
	assert.NotContains(t, r.stdout, "secret-token")

	r = h.run(t, "ls")
	require.Equal(t, ExitOK, r.code, r.stderr)
	reqs := h.srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer secret-token", reqs[0].Auth)

	r = h.run(t, "auth", "logout")
	require.Equal(t, ExitOK, r.code, r.stderr)
	r = h.run(t, "auth", "status")
	assert.Contains(t, r.stdout, "token:  none")
}

func TestAuth_EnvTokenWins(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, config.SetToken(h.dir, "from-file", nil))
	t.Setenv(config.EnvToken, "from-env")

	r := h.run(t, "ls")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Equal(t, "Bearer from-env", h.srv.Requests()[0].Auth)
}

func TestServerFromConfigFile(t *testing.T) {
	h := newHarness(t)
	cfg := config.Default()
	cfg.ServerURL = h.srv.URL
	require.NoError(t, config.Save(h.dir, cfg))

	var out, errOut bytes.Buffer
	code := Execute(context.Background(),
		[]string{"ls", "--config-dir", h.dir, "--no-color"},
		strings.NewReader(""), &out, &errOut)
	require.Equal(t, ExitOK, code, errOut.String())
	assert.Len(t, h.srv.Requests(), 1)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", maskToken("abc"))
	assert.Equal(t, "****6789", maskToken("0123456789"))
}

func TestAuth_WhoAmI(t *testing.T) {
	h := newHarness(t)

	r := h.run(t, "auth", "whoami")
	assert.Equal(t, ExitUsage, r.code)

	// {"sub":"ada"}
	require.NoError(t, config.SetToken(h.dir, "eyJhbGciOiJub25lIn0.eyJzdWIiOiJhZGEifQ.sig", nil))
	r = h.run(t, "auth", "whoami")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, `{"sub":"ada"}`)

	require.NoError(t, config.SetToken(h.dir, "opaque", nil))
	r = h.run(t, "auth", "whoami")
	require.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Opaque token")
}

// openHandles counts this process's descriptors pointing at path.
func openHandles(t *testing.T, path string) int {
	t.Helper()
	fds, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	n := 0
	for _, fd := range fds {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", fd.Name()))
		if err == nil && target == path {
			n++
		}
	}
	return n
}

func TestLogFileClosedWhenCommandFails(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs /proc")
	}
	h := newHarness(t)
	logPath := filepath.Join(h.dir, "run.log")
	h.srv.FailNext(http.StatusInternalServerError, "")

	r := h.run(t, "ls", "--log-file", logPath, "--log-level", "debug")
	require.Equal(t, ExitFailure, r.code)

	assert.Equal(t, 0, openHandles(t, logPath))
	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "op=list")
}
