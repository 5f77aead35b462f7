package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type callRecord struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu    sync.Mutex
	calls []callRecord
	queue []fakeResponse
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, callRecord{model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGenerator(models *fakeModels, attempts int) *Generator {
	return &Generator{
		models: models,
		modelNames: map[ai.ModelClass]string{
			ai.ModelFast:      "gemini-flash",
			ai.ModelReasoning: "gemini-pro",
		},
		maxAttempts: attempts,
		logger:      zap.NewNop(),
	}
}

func noSleep(t *testing.T) {
	t.Helper()
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = originalWait })
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	noSleep(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse(`{"intent":"affirm"}`), nil)

	g := newTestGenerator(models, 2)
	output, err := g.Generate(context.Background(), ai.UserText(ai.ModelReasoning, "system", "message", schema.Intent))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != `{"intent":"affirm"}` {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}

	for _, call := range models.calls {
		if call.model != "gemini-pro" {
			t.Fatalf("unexpected model: %q", call.model)
		}
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if call.config.ResponseMIMEType != "application/json" || call.config.ResponseSchema == nil {
			t.Fatalf("expected json response schema, got %+v", call.config)
		}
		if call.config.Temperature == nil || *call.config.Temperature != 0 {
			t.Fatalf("expected deterministic temperature")
		}
		if len(call.contents) != 1 || call.contents[0].Parts[0].Text != "message" {
			t.Fatalf("unexpected contents: %+v", call.contents)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noSleep(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := newTestGenerator(models, 2)
	_, err := g.Generate(context.Background(), ai.UserText(ai.ModelFast, "sys", "msg", nil))
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := newTestGenerator(models, 3)
	_, err := g.Generate(context.Background(), ai.UserText(ai.ModelFast, "sys", "msg", nil))
	if err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := newTestGenerator(models, 3)
	if _, err := g.Generate(context.Background(), ai.UserText(ai.ModelFast, "", "msg", nil)); err == nil {
		t.Fatal("expected error")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorSendsInlineAttachments(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("ok"), nil)

	payload := []byte("%PDF-1.4 fake")
	req := ai.Request{
		Model: ai.ModelFast,
		Turns: []ai.Turn{{
			Role: ai.RoleUser,
			Text: "extract",
			Attachments: []ai.Attachment{{
				MIMEType: "application/pdf",
				Data:     base64.StdEncoding.EncodeToString(payload),
			}},
		}},
	}

	g := newTestGenerator(models, 1)
	if _, err := g.Generate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parts := models.calls[0].contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil {
		t.Fatalf("expected inline data followed by text, got %+v", parts)
	}
	if parts[0].InlineData.MIMEType != "application/pdf" || string(parts[0].InlineData.Data) != string(payload) {
		t.Fatalf("unexpected blob: %+v", parts[0].InlineData)
	}
	if models.calls[0].config.ResponseSchema != nil {
		t.Fatal("free text request must not set a response schema")
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{}, nil)

	g := newTestGenerator(models, 1)
	_, err := g.Generate(context.Background(), ai.UserText(ai.ModelFast, "", "msg", nil))
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestResponseSchema(t *testing.T) {
	s := responseSchema(schema.ProfileExtraction)

	if s.Type != genai.TypeObject {
		t.Fatalf("expected object schema, got %v", s.Type)
	}

	level := s.Properties[schema.FieldLanguageLevel]
	if level == nil || len(level.Enum) != 6 || level.Nullable == nil || !*level.Nullable {
		t.Fatalf("unexpected language level schema: %+v", level)
	}

	exp := s.Properties[schema.FieldExperiences]
	if exp == nil || exp.Type != genai.TypeArray || exp.Items == nil || exp.Items.Type != genai.TypeObject {
		t.Fatalf("unexpected experiences schema: %+v", exp)
	}

	for _, name := range s.Required {
		if name == schema.FieldConfidence {
			t.Fatal("optional fields must not be required")
		}
	}
}
