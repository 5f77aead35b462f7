// Package aitest provides a scripted generator for tests.
package aitest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spigell/talent-intake/internal/ai"
)

// ErrNoResponse is returned when no responder matches a request.
var ErrNoResponse = errors.New("aitest: no scripted response")

// Responder answers one request. Returning ok=false passes the request on.
type Responder func(req ai.Request) (out string, ok bool, err error)

// Generator answers requests from a list of responders and records every call.
type Generator struct {
	mu         sync.Mutex
	responders []Responder
	calls      []ai.Request
}

// New returns a generator using the given responders in order.
func New(responders ...Responder) *Generator {
	return &Generator{responders: responders}
}

// Generate implements ai.Generator.
func (g *Generator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	responders := g.responders
	g.mu.Unlock()

	for _, r := range responders {
		if out, ok, err := r(req); ok {
			return out, err
		}
	}
	return "", ErrNoResponse
}

// Provider implements ai.Generator.
func (g *Generator) Provider() string { return "aitest" }

// Calls returns a copy of the recorded requests.
func (g *Generator) Calls() []ai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ai.Request(nil), g.calls...)
}

// CallsFor counts recorded requests for the named schema.
func (g *Generator) CallsFor(schemaName string) int {
	n := 0
	for _, c := range g.Calls() {
		if c.Schema != nil && c.Schema.Name == schemaName {
			n++
		}
	}
	return n
}

// OnSchema answers every request for the named schema with out.
func OnSchema(schemaName, out string) Responder {
	return func(req ai.Request) (string, bool, error) {
		if req.Schema == nil || req.Schema.Name != schemaName {
			return "", false, nil
		}
		return out, true, nil
	}
}

// FailSchema fails every request for the named schema with err.
func FailSchema(schemaName string, err error) Responder {
	return func(req ai.Request) (string, bool, error) {
		if req.Schema == nil || req.Schema.Name != schemaName {
			return "", false, nil
		}
		return "", true, err
	}
}

// OnText answers requests for the named schema whose last turn contains substr.
func OnText(schemaName, substr, out string) Responder {
	return func(req ai.Request) (string, bool, error) {
		if req.Schema == nil || req.Schema.Name != schemaName || len(req.Turns) == 0 {
			return "", false, nil
		}
		if !strings.Contains(strings.ToLower(req.Turns[len(req.Turns)-1].Text), strings.ToLower(substr)) {
			return "", false, nil
		}
		return out, true, nil
	}
}
