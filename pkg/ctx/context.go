// Package ctx provides a gin.Context-inspired request context for handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helper methods:
//
//	func (pc *ParcelController) Show(c *ctx.Context) {
//	    p, err := pc.svc.Get(c.Context(), c.Param("id"))
//	    ...
//	    c.Success(p)
//	}
//
//	// Register with ctx.Wrap:
//	router.Get("/parcels/{id}", "parcels.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/parcelhub/pkg/auth"
	"github.com/shashiranjanraj/parcelhub/pkg/bind"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"github.com/shashiranjanraj/parcelhub/pkg/response"
	"github.com/shashiranjanraj/parcelhub/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc so it can be
// passed to any router method.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair and provides a helper API.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	mu     sync.RWMutex
	store  map[string]any
	status int // written status code (0 = not written yet)
}

// pool recycles Context objects to reduce GC pressure.
var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter (e.g. "/parcels/{id}" → c.Param("id")).
// chi matches on the raw path, so the value is unescaped here; a malformed
// escape is returned as sent.
func (c *Context) Param(key string) string {
	raw := chi.URLParam(c.R, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// DefaultQuery returns a query-string value, or def if it is empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// Header returns the value of a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Log returns the per-request logger.
func (c *Context) Log() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// Claims returns the verified caller identity, or nil on public routes.
func (c *Context) Claims() *auth.Claims { return auth.FromCtx(c.R.Context()) }

// CallerEmail returns the verified caller email, or "".
func (c *Context) CallerEmail() string { return auth.EmailFromCtx(c.R.Context()) }

// ─── Per-request store ────────────────────────────────────────────────────────

// Set stores a value in the per-request key-value store.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

// Get retrieves a value from the per-request store.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

// GetString returns a string value from the store, or "" if absent/wrong type.
func (c *Context) GetString(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// On validation failure it sends a 422 response and returns false.
// On decode error it sends a 400 and returns false.
//
//	var input ApplyInput
//	if !c.BindJSON(&input) {
//	    return // response already sent
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.decodeError(err)
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// BindJSONStrict behaves like BindJSON but reports validation failures as
// 400 with the first failing field's message, for endpoints whose contract
// uses 400 for missing or invalid fields.
func (c *Context) BindJSONStrict(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.decodeError(err)
		return false
	}
	if validate.HasErrors(errs) {
		c.JSON(http.StatusBadRequest, response.Envelope{
			Status:  http.StatusBadRequest,
			Message: validate.First(errs),
			Errors:  errs,
		})
		return false
	}
	return true
}

// DecodeJSON decodes the body into dest without validation. Sends 400 and
// returns false on failure.
func (c *Context) DecodeJSON(dest any) bool {
	if err := bind.Decode(c.R, dest); err != nil {
		c.decodeError(err)
		return false
	}
	return true
}

func (c *Context) decodeError(err error) {
	if errors.Is(err, bind.ErrEmptyBody) {
		c.Error(http.StatusBadRequest, "Request body is required")
		return
	}
	c.ErrorDetail(http.StatusBadRequest, "Invalid request body", err.Error())
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// SetHeader sets a response header.
func (c *Context) SetHeader(key, value string) {
	c.W.Header().Set(key, value)
}

// JSON writes a JSON response with the given status code.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

// Success sends a 200 JSON envelope: {"status":200,"data":...}
func (c *Context) Success(data any) {
	c.JSON(http.StatusOK, response.Envelope{Status: http.StatusOK, Data: data})
}

// SuccessMessage sends a 200 envelope with a message and data.
func (c *Context) SuccessMessage(message string, data any) {
	c.JSON(http.StatusOK, response.Envelope{Status: http.StatusOK, Message: message, Data: data})
}

// Created sends a 201 JSON envelope.
func (c *Context) Created(data any) {
	c.JSON(http.StatusCreated, response.Envelope{Status: http.StatusCreated, Data: data})
}

// Error sends a JSON error envelope with the given status and message.
func (c *Context) Error(code int, message string) {
	c.JSON(code, response.Envelope{Status: code, Message: message})
}

// ErrorDetail sends a JSON error envelope carrying the underlying cause.
func (c *Context) ErrorDetail(code int, message, detail string) {
	c.JSON(code, response.Envelope{Status: code, Message: message, Error: detail})
}

// ValidationError sends a 422 Unprocessable Entity with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, response.Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// NotFound sends a 404.
func (c *Context) NotFound(message ...string) {
	msg := "Not found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusNotFound, msg)
}

// String writes a plain-text response.
func (c *Context) String(code int, format string, args ...any) {
	c.W.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.W.WriteHeader(code)
	c.status = code
	fmt.Fprintf(c.W, format, args...)
}

// WrittenStatus returns the HTTP status code that was written to the response,
// or 0 if no response has been written yet.
func (c *Context) WrittenStatus() int { return c.status }
