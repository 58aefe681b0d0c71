package ollama

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

const defaultBaseURL = "http://localhost:11434"

// Transport issues /api/chat calls. The default implementation speaks HTTP
// with retry-with-backoff for blocking calls; streaming uses NDJSON framing.
type Transport interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Stream(ctx context.Context, req ChatRequest) (ChunkStream, error)
}

// ChunkStream delivers streamed response chunks until io.EOF.
type ChunkStream interface {
	Recv() (*ChatResponse, error)
	Close() error
}

type httpTransport struct {
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
		baseURL:    strings.TrimSuffix(base, "/"),
		httpClient: hc,
		maxRetries: retries,
	}
}

func (t *httpTransport) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	stream := false
	req.Stream = &stream
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	op := func() (*ChatResponse, error) {
		resp, err := t.post(ctx, body)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return nil, err
		}
		var out ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("ollama: decode response: %w", err))
		}
		return &out, nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(t.maxRetries),
	)
}

func (t *httpTransport) Stream(ctx context.Context, req ChatRequest) (ChunkStream, error) {
	stream := true
	req.Stream = &stream
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}
	resp, err := t.post(ctx, body)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ndjsonStream{body: resp.Body, scanner: scanner}, nil
}

func (t *httpTransport) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return t.httpClient.Do(httpReq)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	msg := gjson.GetBytes(body, "error").String()
	if msg == "" {
		msg = string(body)
	}
	err := fmt.Errorf("ollama: http %d: %s", resp.StatusCode, msg)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return err
	}
	return backoff.Permanent(err)
}

// ndjsonStream reads newline-delimited JSON chunks.
type ndjsonStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (s *ndjsonStream) Recv() (*ChatResponse, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var chunk ChatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, fmt.Errorf("ollama: decode stream chunk: %w", err)
		}
		return &chunk, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *ndjsonStream) Close() error {
	return s.body.Close()
}
