// Package state holds the client's cached copy of the todo list.
//
// A State is a value: every mutation returns a new State and leaves the
// receiver untouched, so callers own the data flow explicitly.
package state

import "github.com/Makepad-fr/tada-remote/internal/model"

// State is the ordered sequence of todos as last confirmed by the server.
// It never holds two records with the same id.
type State struct {
	todos []model.Todo
}

// New builds a State from todos in order. A repeated id keeps the position
// of its first occurrence and the value of its last.
func New(todos []model.Todo) State {
	out := make([]model.Todo, 0, len(todos))
	pos := make(map[model.ID]int, len(todos))
	for _, t := range todos {
		if i, ok := pos[t.ID]; ok {
			out[i] = t
			continue
		}
		pos[t.ID] = len(out)
		out = append(out, t)
	}
	return State{todos: out}
}

// Todos returns a copy of the records in order.
func (s State) Todos() []model.Todo {
	return append([]model.Todo(nil), s.todos...)
}

func (s State) Len() int { return len(s.todos) }

func (s State) Index(id model.ID) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s State) Find(id model.ID) (model.Todo, bool) {
	if i := s.Index(id); i >= 0 {
		return s.todos[i], true
	}
	return model.Todo{}, false
}

// CompletedCount counts records with Completed set.
func (s State) CompletedCount() int {
	n := 0
	for _, t := range s.todos {
		if t.Completed {
			n++
		}
	}
	return n
}

// Append adds t at the end, or replaces in place when its id is already held.
func (s State) Append(t model.Todo) State {
	if i := s.Index(t.ID); i >= 0 {
		return s.set(i, t)
	}
	out := make([]model.Todo, len(s.todos), len(s.todos)+1)
	copy(out, s.todos)
	return State{todos: append(out, t)}
}

// Update replaces the record held under id with t, in place. It is a no-op
// when id is no longer held.
func (s State) Update(id model.ID, t model.Todo) State {
	i := s.Index(id)
	if i < 0 {
		return s
	}
	if t.ID != id {
		// keep ids unique if the server answered with another record's id
		if j := s.Index(t.ID); j >= 0 {
			s = s.Remove(t.ID)
			if j < i {
				i--
			}
		}
	}
	return s.set(i, t)
}

// Remove drops the record with id, if held.
func (s State) Remove(id model.ID) State {
	i := s.Index(id)
	if i < 0 {
		return s
	}
	out := make([]model.Todo, 0, len(s.todos)-1)
	out = append(out, s.todos[:i]...)
	out = append(out, s.todos[i+1:]...)
	return State{todos: out}
}

func (s State) set(i int, t model.Todo) State {
	out := append([]model.Todo(nil), s.todos...)
	out[i] = t
	return State{todos: out}
}
