package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/logger"
	"github.com/spigell/talent-intake/internal/schema"
	"github.com/spigell/talent-intake/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"

	defaultFastModel      = "gemini-2.5-flash"
	defaultReasoningModel = "gemini-2.5-pro"
	defaultMaxAttempts    = 3
	baseBackoff           = time.Second
	maxRetryDelay         = 10 * time.Second
)

var (
	wait = utils.WaitFor

	retryDelayRe = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Generator.
type Options struct {
	APIKey         string
	FastModel      string
	ReasoningModel string
	MaxAttempts    int
}

// Generator wraps the Google GenAI client and produces JSON constrained by a response schema.
type Generator struct {
	models      contentModels
	modelNames  map[ai.ModelClass]string
	maxAttempts int
	logger      *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	fast := strings.TrimSpace(opts.FastModel)
	if fast == "" {
		fast = defaultFastModel
	}
	reasoning := strings.TrimSpace(opts.ReasoningModel)
	if reasoning == "" {
		reasoning = defaultReasoningModel
	}

	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{
		models: client.Models,
		modelNames: map[ai.ModelClass]string{
			ai.ModelFast:      fast,
			ai.ModelReasoning: reasoning,
		},
		maxAttempts: attempts,
		logger:      log,
	}, nil
}

// Provider implements ai.Generator.
func (g *Generator) Provider() string { return ProviderName }

// Model returns the concrete model name for a class.
func (g *Generator) Model(class ai.ModelClass) string {
	if g == nil {
		return ""
	}
	if name, ok := g.modelNames[class]; ok {
		return name
	}
	return g.modelNames[ai.ModelFast]
}

// Generate sends the request and returns the concatenated text of the first candidate.
// Temporary API errors are retried with exponential backoff.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	contents, err := buildContents(req.Turns)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = responseSchema(req.Schema)
	}

	model := g.Model(req.Model)
	log := logger.WithCommonFields(g.logger, ProviderName, model)

	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseBackoff << (attempt - 1)
			log.Debug("retrying gemini request", zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(lastErr))
			if err := wait(ctx, delay); err != nil {
				return "", err
			}
		}

		resp, err := g.models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			return responseText(resp)
		}

		lastErr = fmt.Errorf("generate content: %w", err)
		if !shouldRetry(err) {
			return "", lastErr
		}
	}

	return "", fmt.Errorf("gemini retries exhausted after %d attempts: %w", g.maxAttempts, lastErr)
}

func buildContents(turns []ai.Turn) ([]*genai.Content, error) {
	if len(turns) == 0 {
		return nil, errors.New("request has no turns")
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := string(turn.Role)
		if role == "" {
			role = string(ai.RoleUser)
		}

		parts := make([]*genai.Part, 0, len(turn.Attachments)+1)
		for _, att := range turn.Attachments {
			data, err := base64.StdEncoding.DecodeString(att.Data)
			if err != nil {
				return nil, fmt.Errorf("decode %s attachment: %w", att.MIMEType, err)
			}
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: att.MIMEType, Data: data}})
		}
		if text := strings.TrimSpace(turn.Text); text != "" {
			parts = append(parts, &genai.Part{Text: text})
		}
		if len(parts) == 0 {
			continue
		}

		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	if len(contents) == 0 {
		return nil, errors.New("prompt must not be empty")
	}
	return contents, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ai.ErrEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		// Only the first candidate with content is used.
		if builder.Len() > 0 {
			break
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.ErrEmptyResponse
	}

	return output, nil
}

func shouldRetry(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if delay, ok := retryDelay(apiErr.Message); ok && delay > maxRetryDelay {
			return false
		}
		return true
	case apiErr.Code >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

func retryDelay(message string) (time.Duration, bool) {
	m := retryDelayRe.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// responseSchema converts a record schema into the Gemini response schema.
func responseSchema(s *schema.Schema) *genai.Schema {
	return objectSchema(s.Description, s.Fields)
}

func objectSchema(description string, fields []schema.Field) *genai.Schema {
	out := &genai.Schema{
		Type:        genai.TypeObject,
		Description: description,
		Properties:  make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		out.Properties[f.Name] = fieldSchema(f)
		out.PropertyOrdering = append(out.PropertyOrdering, f.Name)
		if !f.Optional {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func fieldSchema(f schema.Field) *genai.Schema {
	var out *genai.Schema
	switch f.Kind {
	case schema.KindStringList:
		out = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	case schema.KindEnum:
		out = &genai.Schema{Type: genai.TypeString, Enum: f.Enum}
	case schema.KindInteger:
		out = &genai.Schema{Type: genai.TypeInteger}
	case schema.KindNumber:
		out = &genai.Schema{Type: genai.TypeNumber}
	case schema.KindBool:
		out = &genai.Schema{Type: genai.TypeBoolean}
	case schema.KindObjectList:
		out = &genai.Schema{Type: genai.TypeArray, Items: objectSchema("", f.Fields)}
	default:
		out = &genai.Schema{Type: genai.TypeString}
	}

	out.Description = f.Description
	if f.Nullable {
		out.Nullable = genai.Ptr(true)
	}
	if f.Range != nil {
		out.Minimum = genai.Ptr(f.Range.Min)
		out.Maximum = genai.Ptr(f.Range.Max)
	}
	return out
}
