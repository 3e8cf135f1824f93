// Package ollama provides the client for the local generation backend.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/promptlab/promptlab/internal/domain"
)

// Client talks to an Ollama-compatible backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client for baseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		// No overall timeout: generations may legitimately run for minutes
		// and are cancelled through the request context instead.
		http:   &http.Client{},
		logger: logger,
	}
}

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	Model      string
	Prompt     string
	System     string
	Parameters domain.ModelParameters
}

// generatePayload is the backend wire format for /api/generate.
type generatePayload struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateOptions struct {
	Temperature   float64 `json:"temperature"`
	NumPredict    int     `json:"num_predict"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// generateFrame is one newline-delimited JSON frame of the stream. The final
// frame has done=true and carries no further text.
type generateFrame struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate opens one streaming generation request and returns the response as
// a lazy, finite, non-restartable sequence of text fragments. Malformed frames
// are skipped without aborting the stream. Cancelling ctx closes the transport
// and yields the context error, which callers can distinguish from a network
// failure with errors.Is.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		params := req.Parameters.Clamp()
		body, err := json.Marshal(generatePayload{
			Model:  req.Model,
			Prompt: req.Prompt,
			System: req.System,
			Options: generateOptions{
				Temperature:   params.Temperature,
				NumPredict:    params.MaxTokens,
				TopP:          params.TopP,
				TopK:          params.TopK,
				RepeatPenalty: params.RepeatPenalty,
			},
			Stream: true,
		})
		if err != nil {
			yield("", fmt.Errorf("encode generate request: %w", err))
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			yield("", fmt.Errorf("build generate request: %w", err))
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			yield("", fmt.Errorf("generate request failed: %w", err))
			return
		}
		defer func() {
			if closeErr := resp.Body.Close(); closeErr != nil {
				c.logger.Debug("failed to close generate response body", "error", closeErr)
			}
		}()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			yield("", fmt.Errorf("backend error: %s: %s", resp.Status, bytes.TrimSpace(msg)))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var frame generateFrame
			if err := json.Unmarshal(line, &frame); err != nil {
				// Garbage resilience: one bad frame never kills the stream.
				c.logger.Debug("skipping malformed stream frame", "error", err)
				continue
			}

			if frame.Done {
				return
			}
			if frame.Response == "" {
				continue
			}
			if !yield(frame.Response, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			yield("", fmt.Errorf("read stream: %w", err))
		}
	}
}

// ModelInfo is one entry of the backend's local model inventory.
type ModelInfo struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
	Digest     string `json:"digest"`
}

// CheckConnection probes backend reachability. It never returns an error.
func (c *Client) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the backend's local model inventory. Any failure yields
// an empty list, not an error.
func (c *Client) ListModels(ctx context.Context) []ModelInfo {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var payload struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Debug("failed to decode model inventory", "error", err)
		return nil
	}
	return payload.Models
}

// Pull asks the backend to download a model. Returns whether the request
// was accepted.
func (c *Client) Pull(ctx context.Context, name string) bool {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
