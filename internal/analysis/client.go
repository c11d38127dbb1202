package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"github.com/jask/pathoscreen/internal/logx"
	"github.com/jask/pathoscreen/internal/screening"
)

// ErrTransport covers network errors, non-2xx statuses and malformed bodies alike.
var ErrTransport = errors.New("analysis transport failure")

const (
	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 1 << 20

	slideFilename    = "slide.jpg"
	slideContentType = "image/jpeg"
)

// Client posts slides to the remote analysis service.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	readFile func(string) ([]byte, error)
}

type Option func(*Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken adds a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
		readFile: os.ReadFile,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ screening.Analyzer = (*Client)(nil)

// Analyze sends one multipart request and decodes the JSON result.
func (c *Client) Analyze(ctx context.Context, req screening.AnalysisRequest) (screening.AnalysisResult, error) {
	img, err := c.readFile(req.Image.URI)
	if err != nil {
		return screening.AnalysisResult{}, fmt.Errorf("read slide %s: %w", req.Image.Name, errors.Join(ErrTransport, err))
	}

	body, contentType, err := encodeForm(req, img)
	if err != nil {
		return screening.AnalysisResult{}, fmt.Errorf("encode form: %w", errors.Join(ErrTransport, err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return screening.AnalysisResult{}, fmt.Errorf("build request: %w", errors.Join(ErrTransport, err))
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if req.ID != "" {
		httpReq.Header.Set("X-Request-ID", req.ID)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logx.Warn().Err(err).Str("request_id", req.ID).Msg("analysis request failed")
		return screening.AnalysisResult{}, fmt.Errorf("post %s: %w", c.endpoint, errors.Join(ErrTransport, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return screening.AnalysisResult{}, fmt.Errorf("read response: %w", errors.Join(ErrTransport, err))
	}
	logx.Debug().
		Str("request_id", req.ID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("analysis response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return screening.AnalysisResult{}, fmt.Errorf("status %d: %w", resp.StatusCode, ErrTransport)
	}

	res, err := decodeResult(raw)
	if err != nil {
		return screening.AnalysisResult{}, fmt.Errorf("decode response: %w", errors.Join(ErrTransport, err))
	}
	return res, nil
}

func encodeForm(req screening.AnalysisRequest, img []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"model", req.Variant.Tag},
		{"organ", req.Organ},
		{"clinical_context", req.ClinicalContext},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, slideFilename))
	h.Set("Content-Type", slideContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// wireResult uses pointers so a missing field is told apart from an empty one.
type wireResult struct {
	Observations *string `json:"observations"`
	Diagnosis    *string `json:"diagnosis"`
	Confidence   *string `json:"confidence"`
	Disclaimer   *string `json:"disclaimer"`
}

func decodeResult(raw []byte) (screening.AnalysisResult, error) {
	var w wireResult
	if err := json.Unmarshal(raw, &w); err != nil {
		return screening.AnalysisResult{}, err
	}
	if w.Observations == nil || w.Diagnosis == nil || w.Confidence == nil || w.Disclaimer == nil {
		return screening.AnalysisResult{}, errors.New("response missing result fields")
	}
	return screening.AnalysisResult{
		Observations: *w.Observations,
		Diagnosis:    *w.Diagnosis,
		Confidence:   *w.Confidence,
		Disclaimer:   *w.Disclaimer,
	}, nil
}
