// Package document downloads candidate uploads and extracts a redacted
// profile from them. The downloaded artifact never outlives the call.
package document

import (
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spigell/talent-intake/internal/ai"
	"github.com/spigell/talent-intake/internal/schema"
	"go.uber.org/zap"
)

//go:embed prompt.md
var redactionPrompt string

const (
	DefaultMaxBytes = 10 << 20
	DefaultTimeout  = 30 * time.Second
)

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrOversize        = errors.New("document exceeds size limit")
	ErrTimeout         = errors.New("document download timed out")
	ErrTransport       = errors.New("document download failed")
	ErrExtractionEmpty = errors.New("no profile data found in document")
	ErrUnavailable     = errors.New("document extraction unavailable")
)

// DefaultAllowedTypes are the media types accepted for extraction.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/heic",
	"text/plain",
}

// Media describes an inbound attachment.
type Media struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
}

// Extractor is the subset of ai.Extractor the pipeline needs.
type Extractor interface {
	Extract(ctx context.Context, req ai.Request) (schema.Record, error)
}

// Config bounds the pipeline.
type Config struct {
	MaxBytes     int64
	Timeout      time.Duration
	AllowedTypes []string
	// TempDir holds artifacts while they are processed; empty means os.TempDir.
	TempDir string
}

// Pipeline downloads, re-encodes and extracts documents.
type Pipeline struct {
	client    *http.Client
	limiter   *HostLimiter
	extractor Extractor
	cfg       Config
	allowed   map[string]bool
	logger    *zap.Logger
}

// NewPipeline builds a pipeline. A nil client uses http.DefaultClient; a nil limiter disables throttling.
func NewPipeline(client *http.Client, limiter *HostLimiter, extractor Extractor, cfg Config, log *zap.Logger) *Pipeline {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = DefaultAllowedTypes
	}
	if log == nil {
		log = zap.NewNop()
	}

	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[normalizeType(t)] = true
	}

	return &Pipeline{
		client:    client,
		limiter:   limiter,
		extractor: extractor,
		cfg:       cfg,
		allowed:   allowed,
		logger:    log,
	}
}

// Process runs the whole pipeline for one upload.
func (p *Pipeline) Process(ctx context.Context, media Media) (*schema.ExtractionResult, error) {
	mimeType := normalizeType(media.MIMEType)
	if !p.allowed[mimeType] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, media.MIMEType)
	}

	path, err := p.download(ctx, media.URL)
	if path != "" {
		defer p.cleanup(path)
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact: %v", ErrTransport, err)
	}

	req := ai.Request{
		Model:  ai.ModelFast,
		System: redactionPrompt,
		Turns: []ai.Turn{{
			Role: ai.RoleUser,
			Text: "Extract the profile from the attached document.",
			Attachments: []ai.Attachment{{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			}},
		}},
		Schema: schema.DocumentExtraction,
	}

	rec, err := p.extractor.Extract(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extractionError(err), err)
	}

	var out schema.ExtractionResult
	if err := schema.Decode(rec, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionEmpty, err)
	}
	// Identifiers are never taken from documents.
	out.Name = ""
	if out.Empty() {
		return nil, ErrExtractionEmpty
	}

	return &out, nil
}

// extractionError maps an extractor failure onto the pipeline taxonomy. Only
// an unusable answer means the document itself held nothing.
func extractionError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, ai.ErrEmptyResponse), errors.Is(err, ai.ErrMalformed), errors.Is(err, schema.ErrInvalid):
		return ErrExtractionEmpty
	default:
		return ErrUnavailable
	}
}

// download streams the file into a temp artifact. The returned path is set
// whenever an artifact was created, even on error, so the caller can remove it.
func (p *Pipeline) download(ctx context.Context, rawURL string) (string, error) {
	if err := p.limiter.WaitURL(ctx, rawURL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}
	if resp.ContentLength > p.cfg.MaxBytes {
		return "", fmt.Errorf("%w: declared %d bytes, limit %d", ErrOversize, resp.ContentLength, p.cfg.MaxBytes)
	}

	file, err := os.CreateTemp(p.cfg.TempDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	path := file.Name()

	written, copyErr := io.Copy(file, io.LimitReader(resp.Body, p.cfg.MaxBytes+1))
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		return path, classifyTransport(ctx, copyErr)
	case written > p.cfg.MaxBytes:
		return path, fmt.Errorf("%w: more than %d bytes received", ErrOversize, p.cfg.MaxBytes)
	case closeErr != nil:
		return path, fmt.Errorf("%w: %v", ErrTransport, closeErr)
	case written == 0:
		return path, fmt.Errorf("%w: empty body", ErrTransport)
	}

	p.logger.Debug("document downloaded", zap.Int64("bytes", written))
	return path, nil
}

func (p *Pipeline) cleanup(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("failed to delete document artifact", zap.String("path", path), zap.Error(err))
	}
}

func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func normalizeType(t string) string {
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(t))
	}
	return mt
}
