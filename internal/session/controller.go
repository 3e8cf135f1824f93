// Package session orchestrates one generation request/response cycle:
// lifecycle state, fragment accumulation, latency timing, and the handoff of
// settled exchanges to the ledger.
package session

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/promptlab/promptlab/internal/domain"
	"github.com/promptlab/promptlab/internal/ollama"
)

var (
	// ErrBlankPrompt rejects submissions with no prompt text.
	ErrBlankPrompt = errors.New("prompt must not be blank")
	// ErrBusy rejects a submission while a generation is already in flight.
	ErrBusy = errors.New("a generation is already in flight")
)

// StoppedMarker is appended to the displayed text of an aborted generation.
const StoppedMarker = " [stopped]"

// Phase is the lifecycle state of a generation cycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSending   Phase = "sending"
	PhaseStreaming Phase = "streaming"
	PhaseSettled   Phase = "settled"
	PhaseAborted   Phase = "aborted"
	PhaseErrored   Phase = "errored"
)

// Update is published to the consumer after every lifecycle transition and
// after every received fragment. Content always carries the full accumulated
// buffer, never a single fragment.
type Update struct {
	Phase      Phase              `json:"phase"`
	Content    string             `json:"content"`
	Error      string             `json:"error,omitempty"`
	Experiment *domain.Experiment `json:"experiment,omitempty"`
}

// Generator produces a fragment stream for one generation request.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) iter.Seq2[string, error]
}

// Recorder receives the settled experiment. Satisfied by *ledger.Ledger.
type Recorder interface {
	Add(ctx context.Context, exp domain.Experiment) error
}

// ModelNamer resolves a model id to its display name.
type ModelNamer interface {
	DisplayName(id string) string
}

// Request is one prompt submission.
type Request struct {
	ModelID    string                 `json:"modelId"`
	Prompt     string                 `json:"prompt"`
	System     string                 `json:"system,omitempty"`
	Parameters domain.ModelParameters `json:"parameters"`
}

// Controller runs at most one generation cycle at a time and is reusable for
// the next prompt after any outcome.
type Controller struct {
	client Generator
	ledger Recorder
	names  ModelNamer
	logger *slog.Logger

	mu     sync.Mutex
	busy   bool
	gen    uint64
	cancel context.CancelFunc
}

// NewController wires a controller to its generation client and ledger.
func NewController(client Generator, ledger Recorder, names ModelNamer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{client: client, ledger: ledger, names: names, logger: logger}
}

// Busy reports whether a generation is currently in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Stop cancels the in-flight generation, if any. Runs that were already
// superseded by a newer submission are not affected.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Run starts one generation cycle and returns its update sequence. Blank
// prompts and concurrent submissions are rejected before any state changes;
// these are preconditions, not stream errors.
//
// The sequence re-publishes the full accumulated buffer after every fragment.
// It ends with exactly one terminal update: settled (carrying the recorded
// experiment), aborted (content preserved with a stopped marker, nothing
// recorded), or errored (partial content discarded, nothing recorded).
func (c *Controller) Run(ctx context.Context, req Request) (iter.Seq2[Update, error], error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrBlankPrompt
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.busy = true
	c.gen++
	myGen := c.gen
	c.cancel = cancel
	c.mu.Unlock()

	return func(yield func(Update, error) bool) {
		defer c.finish(myGen, cancel)

		userMsg := domain.NewMessage(domain.RoleUser, prompt)
		start := time.Now()
		firstFragment := true
		var ttft time.Duration
		var buf strings.Builder
		fragments := 0

		if !yield(Update{Phase: PhaseSending}, nil) {
			return
		}

		for fragment, err := range c.client.Generate(runCtx, ollama.GenerateRequest{
			Model:      req.ModelID,
			Prompt:     prompt,
			System:     req.System,
			Parameters: req.Parameters,
		}) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					// User cancellation is not an error: keep what streamed
					// and mark it stopped. Nothing is recorded.
					content := buf.String()
					if content != "" {
						content += StoppedMarker
					}
					c.logger.Info("generation aborted", "model", req.ModelID, "fragments", fragments)
					yield(Update{Phase: PhaseAborted, Content: content}, nil)
					return
				}
				c.logger.Warn("generation failed", "model", req.ModelID, "error", err)
				yield(Update{Phase: PhaseErrored, Error: err.Error()}, err)
				return
			}

			if firstFragment {
				ttft = time.Since(start)
				firstFragment = false
			}
			buf.WriteString(fragment)
			fragments++

			if !yield(Update{Phase: PhaseStreaming, Content: buf.String()}, nil) {
				return
			}
		}

		latency := time.Since(start)
		assistantMsg := domain.NewMessage(domain.RoleAssistant, buf.String())
		metrics := domain.NewMetrics(
			domain.ApproxTokens(prompt),
			fragments,
			int(latency.Milliseconds()),
			int(ttft.Milliseconds()),
		)

		exp := domain.NewExperiment(req.ModelID, c.names.DisplayName(req.ModelID),
			req.Parameters.Clamp(), userMsg, assistantMsg, metrics)

		if err := c.ledger.Add(ctx, exp); err != nil {
			c.logger.Error("failed to record experiment", "error", err)
			yield(Update{Phase: PhaseErrored, Error: err.Error()}, err)
			return
		}

		c.logger.Info("generation settled",
			"model", req.ModelID,
			"latency_ms", metrics.LatencyMs,
			"tokens", metrics.CompletionTokens,
			"ttft_ms", metrics.TimeToFirstToken)

		yield(Update{Phase: PhaseSettled, Content: buf.String(), Experiment: &exp}, nil)
	}, nil
}

// finish releases the single-flight slot, unless a newer run already took it.
func (c *Controller) finish(gen uint64, cancel context.CancelFunc) {
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.busy = false
		c.cancel = nil
	}
}
