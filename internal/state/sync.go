package state

import (
	"context"
	"strings"

	"github.com/Makepad-fr/tada-remote/internal/model"
	"github.com/Makepad-fr/tada-remote/internal/remote"
)

// API is the remote store as seen by Sync. *remote.Client implements it.
type API interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, text string) (model.Todo, error)
	Toggle(ctx context.Context, id model.ID) (model.Todo, error)
	UpdateText(ctx context.Context, id model.ID, text string) (model.Todo, error)
	Delete(ctx context.Context, id model.ID) error
}

var _ API = (*remote.Client)(nil)

// Result is one confirmed server response. Apply reconciles a State with
// it; the network call and the state change are split so the change can run
// on the caller's own loop after the call returns.
type Result struct {
	Op   remote.Op
	ID   model.ID
	Todo model.Todo

	todos []model.Todo
}

// Apply returns s reconciled with the response.
func (r Result) Apply(s State) State {
	switch r.Op {
	case remote.OpList:
		return New(r.todos)
	case remote.OpCreate:
		return s.Append(r.Todo)
	case remote.OpToggle, remote.OpEdit:
		return s.Update(r.ID, r.Todo)
	case remote.OpDelete:
		return s.Remove(r.ID)
	}
	return s
}

// Sync runs one network round trip per operation. Failed operations return
// an error and no Result, so the caller's State stays as it was.
type Sync struct {
	api API
}

func NewSync(api API) *Sync { return &Sync{api: api} }

func (s *Sync) FetchAll(ctx context.Context) (Result, error) {
	todos, err := s.api.List(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Op: remote.OpList, todos: todos}, nil
}

// Create fails with remote.ErrEmptyText, without a request, on blank text.
func (s *Sync) Create(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, remote.ErrEmptyText
	}
	t, err := s.api.Create(ctx, text)
	if err != nil {
		return Result{}, err
	}
	return Result{Op: remote.OpCreate, ID: t.ID, Todo: t}, nil
}

func (s *Sync) Toggle(ctx context.Context, id model.ID) (Result, error) {
	t, err := s.api.Toggle(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Op: remote.OpToggle, ID: id, Todo: t}, nil
}

// UpdateText fails with remote.ErrEmptyText, without a request, on blank text.
func (s *Sync) UpdateText(ctx context.Context, id model.ID, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, remote.ErrEmptyText
	}
	t, err := s.api.UpdateText(ctx, id, text)
	if err != nil {
		return Result{}, err
	}
	return Result{Op: remote.OpEdit, ID: id, Todo: t}, nil
}

func (s *Sync) Remove(ctx context.Context, id model.ID) (Result, error) {
	if err := s.api.Delete(ctx, id); err != nil {
		return Result{}, err
	}
	return Result{Op: remote.OpDelete, ID: id}, nil
}

// Do runs op and applies its Result to st. On error st is returned as is.
func Do(st State, op func() (Result, error)) (State, Result, error) {
	res, err := op()
	if err != nil {
		return st, Result{}, err
	}
	return res.Apply(st), res, nil
}
