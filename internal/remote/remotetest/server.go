// Package remotetest runs an in-memory todo API for tests.
package remotetest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

// Request is one handled call as seen by the server.
type Request struct {
	Method string
	Path   string
	Body   string
	Status int
	Auth   string
}

type failure struct {
	status    int
	message   string
	malformed bool
}

// Server is an httptest server implementing /api/todos with numeric ids.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	todos    []model.Todo
	nextID   int
	requests []Request
	fail     *failure
}

func New() *Server {
	s := &Server{nextID: 1}

	r := mux.NewRouter()
	r.Use(s.capture)
	r.Methods(http.MethodGet).Path("/api/todos").HandlerFunc(s.list)
	r.Methods(http.MethodPost).Path("/api/todos").HandlerFunc(s.create)
	r.Methods(http.MethodPut).Path("/api/todos/{id}").HandlerFunc(s.update)
	r.Methods(http.MethodDelete).Path("/api/todos/{id}").HandlerFunc(s.remove)

	s.Server = httptest.NewServer(r)
	return s
}

// Seed replaces the stored todos and continues ids after the largest one.
func (s *Server) Seed(todos ...model.Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = append([]model.Todo(nil), todos...)
	for _, t := range todos {
		if n, err := strconv.Atoi(t.ID.String()); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
}

// Todos returns a copy of the stored records.
func (s *Server) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Todo(nil), s.todos...)
}

// Requests returns every handled call in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// FailNext makes the next request answer status with an optional
// {"error": message} body.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = &failure{status: status, message: message}
}

// MalformedNext makes the next request answer 200 with a body that is not JSON.
func (s *Server) MalformedNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = &failure{status: http.StatusOK, malformed: true}
}

func (s *Server) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Body:   string(body),
			Status: m.Code,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
	})
}

// injected answers a pending FailNext/MalformedNext. Caller holds s.mu.
func (s *Server) injected(w http.ResponseWriter) bool {
	f := s.fail
	if f == nil {
		return false
	}
	s.fail = nil
	if f.malformed {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte("{not json"))
		return true
	}
	if f.message != "" {
		writeJSON(w, f.status, map[string]string{"error": f.message})
		return true
	}
	w.WriteHeader(f.status)
	return true
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injected(w) {
		return
	}
	out := append([]model.Todo{}, s.todos...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injected(w) {
		return
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Text is required"})
		return
	}
	t := model.Todo{ID: model.ID(strconv.Itoa(s.nextID)), Text: text}
	s.nextID++
	s.todos = append(s.todos, t)
	writeJSON(w, http.StatusCreated, t)
}

// update toggles completion when the body is empty and replaces the text
// when it carries {"text": ...}.
func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in struct {
		Text *string `json:"text"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injected(w) {
		return
	}
	i := s.index(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
		return
	}
	if in.Text == nil {
		s.todos[i].Completed = !s.todos[i].Completed
	} else {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Text is required"})
			return
		}
		s.todos[i].Text = text
	}
	writeJSON(w, http.StatusOK, s.todos[i])
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injected(w) {
		return
	}
	i := s.index(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
		return
	}
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) index(id string) int {
	for i, t := range s.todos {
		if t.ID.String() == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
