package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExperimentMetrics are the derived performance numbers for one exchange.
// Token counts are word-count approximations, not backend-reported counts.
type ExperimentMetrics struct {
	TotalTokens      int     `json:"totalTokens"`
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
	LatencyMs        int     `json:"latencyMs"`
	TokensPerSecond  float64 `json:"tokensPerSecond"`
	TimeToFirstToken int     `json:"timeToFirstToken"`
}

// NewMetrics derives metrics from raw timing and token counts, maintaining
// tokensPerSecond == completionTokens / (latencyMs/1000), or 0 when
// latencyMs is 0.
func NewMetrics(promptTokens, completionTokens, latencyMs, timeToFirstToken int) ExperimentMetrics {
	var tps float64
	if latencyMs > 0 {
		tps = float64(completionTokens) / (float64(latencyMs) / 1000)
	}
	return ExperimentMetrics{
		TotalTokens:      completionTokens,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		LatencyMs:        latencyMs,
		TokensPerSecond:  tps,
		TimeToFirstToken: timeToFirstToken,
	}
}

// Experiment is one immutable record of a prompt/response exchange.
// Only Tags and Annotation may change after creation.
type Experiment struct {
	ID         string            `json:"id"`
	CreatedAt  int64             `json:"createdAt"`
	ModelID    string            `json:"modelId"`
	ModelName  string            `json:"modelName"`
	Parameters ModelParameters   `json:"parameters"`
	Messages   []Message         `json:"messages"`
	Metrics    ExperimentMetrics `json:"metrics"`
	Tags       []string          `json:"tags"`
	Annotation *Annotation       `json:"annotation,omitempty"`
}

// NewExperiment assembles an experiment from a settled generation cycle.
// Parameters are copied by value so the record is insulated from later edits.
func NewExperiment(modelID, modelName string, params ModelParameters, userMsg, assistantMsg Message, metrics ExperimentMetrics) Experiment {
	return Experiment{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UnixMilli(),
		ModelID:    modelID,
		ModelName:  modelName,
		Parameters: params,
		Messages:   []Message{userMsg, assistantMsg},
		Metrics:    metrics,
		Tags:       []string{},
	}
}

// UserPrompt returns the content of the first user message, or "".
func (e *Experiment) UserPrompt() string {
	for _, m := range e.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// AssistantResponse returns the content of the first assistant message, or "".
func (e *Experiment) AssistantResponse() string {
	for _, m := range e.Messages {
		if m.Role == RoleAssistant {
			return m.Content
		}
	}
	return ""
}
