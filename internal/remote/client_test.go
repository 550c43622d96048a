package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/remote"
	"github.com/Makepad-fr/tada-remote/internal/remote/remotetest"
)

func newClient(t *testing.T, srv *remotetest.Server, opts ...remote.Option) *remote.Client {
	t.Helper()
	c, err := remote.New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "http://", "::"} {
		_, err := remote.New(u)
		assert.Error(t, err, "url %q", u)
	}
}

func TestClient_Verbs(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()
	c := newClient(t, srv)
	ctx := context.Background()

	todos, err := c.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)

	created, err := c.Create(ctx, "  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: "1", Text: "buy milk"}, created)

	toggled, err := c.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	edited, err := c.UpdateText(ctx, created.ID, "buy oat milk")
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", edited.Text)
	assert.True(t, edited.Completed)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.Empty(t, srv.Todos())

	reqs := srv.Requests()
	require.Len(t, reqs, 5)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/api/todos", reqs[0].Path)
	assert.Equal(t, http.MethodPost, reqs[1].Method)
	assert.JSONEq(t, `{"text":"buy milk"}`, reqs[1].Body)
	assert.Equal(t, http.MethodPut, reqs[2].Method)
	assert.Equal(t, "/api/todos/1", reqs[2].Path)
	assert.Empty(t, reqs[2].Body, "toggle sends no payload")
	assert.JSONEq(t, `{"text":"buy oat milk"}`, reqs[3].Body)
	assert.Equal(t, http.MethodDelete, reqs[4].Method)
	assert.Equal(t, http.StatusNoContent, reqs[4].Status)
}

func TestClient_EmptyTextMakesNoRequest(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()
	c := newClient(t, srv)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := c.Create(context.Background(), text)
		assert.ErrorIs(t, err, remote.ErrEmptyText)
		_, err = c.UpdateText(context.Background(), "1", text)
		assert.ErrorIs(t, err, remote.ErrEmptyText)
	}
	assert.Empty(t, srv.Requests())
}

func TestClient_StatusError(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()
	c := newClient(t, srv)

	srv.FailNext(http.StatusUnprocessableEntity, "Text too long")
	_, err := c.UpdateText(context.Background(), "1", "x")
	var se *remote.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Equal(t, "Text too long", se.Message)
	assert.Equal(t, "Text too long", remote.UserMessage(remote.OpEdit, err))

	srv.FailNext(http.StatusInternalServerError, "")
	_, err = c.UpdateText(context.Background(), "1", "x")
	require.True(t, errors.As(err, &se))
	assert.Empty(t, se.Message)
	assert.Equal(t, "Failed to update todo", remote.UserMessage(remote.OpEdit, err))

	// Only edit text surfaces the server's message.
	srv.FailNext(http.StatusBadRequest, "nope")
	_, err = c.Create(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, "Failed to add todo", remote.UserMessage(remote.OpCreate, err))

	err = c.Delete(context.Background(), "404")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "Failed to delete todo", remote.UserMessage(remote.OpDelete, err))
}

func TestClient_MalformedBodyIsTransportError(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()
	c := newClient(t, srv)

	srv.MalformedNext()
	_, err := c.List(context.Background())
	var te *remote.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, remote.OpList, te.Op)
	assert.Equal(t, "Failed to load todos", remote.UserMessage(remote.OpList, err))
}

func TestClient_UnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := remote.New(url)
	require.NoError(t, err)
	_, err = c.Toggle(context.Background(), "1")
	var te *remote.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Failed to update todo", remote.UserMessage(remote.OpToggle, err))
}

func TestClient_BearerToken(t *testing.T) {
	srv := remotetest.New()
	defer srv.Close()
	c := newClient(t, srv, remote.WithToken(" secret "))

	_, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", srv.Requests()[0].Auth)
}

func TestClient_PathPrefixAndStringIDs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a b","text":"x","completed":true}`))
	}))
	defer srv.Close()

	c, err := remote.New(srv.URL + "/v1")
	require.NoError(t, err)
	got, err := c.Toggle(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "/v1/api/todos/a%20b", gotPath)
	assert.Equal(t, model.ID("a b"), got.ID)
}

func TestUserMessage_EmptyText(t *testing.T) {
	assert.Equal(t, "Please enter a todo", remote.UserMessage(remote.OpCreate, remote.ErrEmptyText))
	assert.Equal(t, "", remote.UserMessage(remote.OpCreate, nil))
}
