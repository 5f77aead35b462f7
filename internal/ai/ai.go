// Package ai describes requests to the language-model inference service and
// turns its raw answers into validated records.
package ai

import (
	"context"
	"errors"

	"github.com/spigell/talent-intake/internal/schema"
)

// ModelClass selects a model by capability; the provider maps it to a concrete model name.
type ModelClass string

const (
	ModelFast      ModelClass = "fast"
	ModelReasoning ModelClass = "reasoning"
)

// Role of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

var (
	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("model returned empty response")
	// ErrMalformed is returned when the response is not a JSON object.
	ErrMalformed = errors.New("model response is not a JSON object")
)

// Attachment is an inline document sent along with a turn. Data is base64 encoded.
type Attachment struct {
	MIMEType string
	Data     string
}

// Turn is one message of the prompt.
type Turn struct {
	Role        Role
	Text        string
	Attachments []Attachment
}

// Request is a single structured-generation call.
type Request struct {
	Model  ModelClass
	System string
	Turns  []Turn
	// Schema constrains the response shape; nil asks for free text.
	Schema *schema.Schema
	// Temperature defaults to 0.
	Temperature float32
}

// UserText builds a request holding one user turn.
func UserText(model ModelClass, system, text string, s *schema.Schema) Request {
	return Request{
		Model:  model,
		System: system,
		Turns:  []Turn{{Role: RoleUser, Text: text}},
		Schema: s,
	}
}

// Generator sends a request to an inference provider and returns the raw text answer.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
}
