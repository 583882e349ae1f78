// Package inference talks to the model server that hosts the clause
// classifier and the T5 summarizer.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"lexsaksham-backend/models"
	"lexsaksham-backend/service"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrEmptyResponse = errors.New("model server returned no predictions")
	ErrLabelMismatch = errors.New("logits do not match label vocabulary")
)

const (
	defaultTimeout = 60 * time.Second

	summaryMaxLength = 150
	summaryMinLength = 30
)

// Client is an HTTP client for the model server
type Client struct {
	baseURL     string
	httpClient  *http.Client
	temperature float64
}

// ClientOption is a functional option for Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTemperature sets the softmax temperature applied to raw logits
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// NewClient creates a model server client for baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		temperature: 1.0,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.temperature <= 0 {
		c.temperature = 1.0
	}
	return c
}

type classifyRequest struct {
	Texts     []string `json:"texts"`
	MaxLength int      `json:"max_length"`
}

type classifyResponse struct {
	Logits [][]float64 `json:"logits"`
	Labels []string    `json:"labels"`
}

type summarizeRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
	MinLength int    `json:"min_length"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Classify predicts the clause type of a single text
func (c *Client) Classify(ctx context.Context, text string) (*models.Classification, error) {
	resp, err := c.classify(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return Classification(Softmax(resp.Logits[0], c.temperature), resp.Labels), nil
}

// Probabilities returns the calibrated class distribution for each text
func (c *Client) Probabilities(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	resp, err := c.classify(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(resp.Logits))
	for i, logits := range resp.Logits {
		out[i] = Softmax(logits, c.temperature)
	}
	return out, nil
}

func (c *Client) classify(ctx context.Context, texts []string) (*classifyResponse, error) {
	var resp classifyResponse
	err := c.post(ctx, "/classify", classifyRequest{
		Texts:     texts,
		MaxLength: service.MaxClassifierTokens,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Logits) != len(texts) {
		return nil, fmt.Errorf("%w: got %d results for %d texts", ErrEmptyResponse, len(resp.Logits), len(texts))
	}
	for _, logits := range resp.Logits {
		if len(logits) == 0 || (len(resp.Labels) > 0 && len(logits) != len(resp.Labels)) {
			return nil, ErrLabelMismatch
		}
	}
	return &resp, nil
}

// Summarize asks the T5 model for an abstractive summary
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	var resp summarizeResponse
	err := c.post(ctx, "/summarize", summarizeRequest{
		Text:      text,
		MaxLength: summaryMaxLength,
		MinLength: summaryMinLength,
	}, &resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Summary), nil
}

// Ping checks that the model server is up
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach model server: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server error: %d - %s", resp.StatusCode, truncate(string(bodyBytes), 200))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Softmax converts logits to probabilities, dividing by temperature first
func Softmax(logits []float64, temperature float64) []float64 {
	if temperature <= 0 {
		temperature = 1.0
	}
	maxLogit := math.Inf(-1)
	for _, z := range logits {
		if z > maxLogit {
			maxLogit = z
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, z := range logits {
		probs[i] = math.Exp((z - maxLogit) / temperature)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// Classification picks the argmax class; indices without a label become "Unknown"
func Classification(probs []float64, labels []string) *models.Classification {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	label := string(models.ClauseUnknown)
	if best < len(labels) && labels[best] != "" {
		label = labels[best]
	}
	confidence := 0.0
	if len(probs) > 0 {
		confidence = probs[best]
	}
	return &models.Classification{
		Label:         label,
		Type:          models.ParseClauseType(label),
		LabelIndex:    best,
		Confidence:    confidence,
		Probabilities: probs,
		NeedsReview:   confidence < models.ReviewThreshold,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
