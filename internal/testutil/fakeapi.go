package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todoctl/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// RecordedRequest is a request received by FakeAPI.
type RecordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// FakeAPI is an in-process Todo REST API for tests. Routes can be replaced
// per test with Override.
type FakeAPI struct {
	mu        sync.Mutex
	todos     []service.Todo
	requests  []RecordedRequest
	overrides map[string]gin.HandlerFunc

	server *httptest.Server
}

// NewFakeAPI starts a FakeAPI that is closed when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()

	f := &FakeAPI{overrides: make(map[string]gin.HandlerFunc)}

	engine := gin.New()
	f.route(engine, http.MethodGet, "/api/todos", f.listTodos)
	f.route(engine, http.MethodPost, "/api/todos", f.createTodo)
	f.route(engine, http.MethodPut, "/api/todos/:id", f.updateTodo)
	f.route(engine, http.MethodDelete, "/api/todos/:id", f.deleteTodo)
	engine.NoRoute(func(c *gin.Context) {
		f.record(c)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	f.server = httptest.NewServer(engine)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL of the server.
func (f *FakeAPI) URL() string {
	return f.server.URL
}

// Seed appends todos to the store.
func (f *FakeAPI) Seed(todos ...service.Todo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.todos = append(f.todos, todos...)
}

// Todos returns a copy of the stored todos.
func (f *FakeAPI) Todos() []service.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Todo, len(f.todos))
	copy(out, f.todos)
	return out
}

// Override replaces the handler for method and route, e.g.
// Override("PUT", "/api/todos/:id", h).
func (f *FakeAPI) Override(method, route string, h gin.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+route] = h
}

// Requests returns the received requests in order.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestCount returns the number of requests matching method and path.
func (f *FakeAPI) RequestCount(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeAPI) route(engine *gin.Engine, method, route string, h gin.HandlerFunc) {
	engine.Handle(method, route, func(c *gin.Context) {
		f.record(c)

		f.mu.Lock()
		override := f.overrides[method+" "+route]
		f.mu.Unlock()

		if override != nil {
			override(c)
			return
		}
		h(c)
	})
}

func (f *FakeAPI) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, RecordedRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.EscapedPath(),
		Body:   body,
	})
}

func notFound(c *gin.Context, id string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
		"error":   "Not Found",
		"message": fmt.Sprintf("Todo with id '%s' not found", id),
	})
}

func (f *FakeAPI) listTodos(c *gin.Context) {
	c.JSON(http.StatusOK, f.Todos())
}

func (f *FakeAPI) createTodo(c *gin.Context) {
	var in service.CreateTodo
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": "Title is required"})
		return
	}

	now := time.Now().UTC()
	todo := service.Todo{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	f.mu.Lock()
	f.todos = append(f.todos, todo)
	f.mu.Unlock()

	c.JSON(http.StatusCreated, todo)
}

func (f *FakeAPI) updateTodo(c *gin.Context) {
	id := c.Param("id")

	var in service.UpdateTodo
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": "Title is required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.todos {
		if t.ID != id {
			continue
		}
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.DueDate != nil {
			due := in.DueDate.UTC()
			t.DueDate = &due
		}
		if in.Completed != nil {
			t.Completed = *in.Completed
		}
		t.UpdatedAt = time.Now().UTC()
		f.todos[i] = t
		c.JSON(http.StatusOK, t)
		return
	}
	notFound(c, id)
}

func (f *FakeAPI) deleteTodo(c *gin.Context) {
	id := c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.todos {
		if t.ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			c.JSON(http.StatusOK, gin.H{})
			return
		}
	}
	notFound(c, id)
}

// FailingTransport is an http.RoundTripper whose requests never complete.
type FailingTransport struct {
	Err error
}

// RoundTrip implements http.RoundTripper.
func (t FailingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	return nil, ErrFailedToFetch
}
