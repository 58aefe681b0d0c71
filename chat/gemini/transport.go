package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Transport issues generateContent calls. The default implementation speaks
// HTTP with retry-with-backoff; retry policy lives here, not in the client.
type Transport interface {
	Complete(ctx context.Context, model string, req GenerateRequest) (*GenerateResponse, error)
	Stream(ctx context.Context, model string, req GenerateRequest) (ChunkStream, error)
}

// ChunkStream delivers streamed response chunks until io.EOF.
type ChunkStream interface {
	Recv() (*GenerateResponse, error)
	Close() error
}

type httpTransport struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries uint
}

func newHTTPTransport(cfg Config) *httpTransport {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	return &httpTransport{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(base, "/"),
		httpClient: hc,
		maxRetries: retries,
	}
}

func (t *httpTransport) url(model, method, query string) string {
	return fmt.Sprintf("%s/models/%s:%s?%skey=%s", t.baseURL, model, method, query, t.apiKey)
}

func (t *httpTransport) Complete(ctx context.Context, model string, req GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}
	url := t.url(model, "generateContent", "")

	op := func() (*GenerateResponse, error) {
		resp, err := t.post(ctx, url, body)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return nil, err
		}
		var out GenerateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("gemini: decode response: %w", err))
		}
		return &out, nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(t.maxRetries),
	)
}

func (t *httpTransport) Stream(ctx context.Context, model string, req GenerateRequest) (ChunkStream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}
	url := t.url(model, "streamGenerateContent", "alt=sse&")

	resp, err := t.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{body: resp.Body, scanner: scanner}, nil
}

func (t *httpTransport) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return t.httpClient.Do(httpReq)
}

// checkStatus turns error responses into errors, marking client mistakes
// permanent so the retry loop gives up immediately.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = string(body)
	}
	err := fmt.Errorf("gemini: http %d: %s", resp.StatusCode, msg)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return err
	}
	return backoff.Permanent(err)
}

// sseStream reads server-sent events framed as "data: {json}" lines.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (s *sseStream) Recv() (*GenerateResponse, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil, io.EOF
		}
		var chunk GenerateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("gemini: decode stream chunk: %w", err)
		}
		return &chunk, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
