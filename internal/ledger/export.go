package ledger

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// csvHeader fixes the export column order.
var csvHeader = []string{
	"ID",
	"Created At",
	"Model",
	"Prompt",
	"Response",
	"Temperature",
	"Max Tokens",
	"Top P",
	"Total Tokens",
	"Prompt Tokens",
	"Completion Tokens",
	"Latency (ms)",
	"Tokens/Sec",
	"TTFT (ms)",
	"Rating",
	"Thumbs",
	"Tags",
	"Notes",
}

// ExportJSON returns a pretty-printed structural dump of all experiments.
func (l *Ledger) ExportJSON() ([]byte, error) {
	out, err := json.MarshalIndent(l.Experiments(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return out, nil
}

// ExportCSV returns one row per experiment in the fixed column order.
// encoding/csv applies the escaping rule: fields containing a comma, quote
// or newline are wrapped in quotes with internal quotes doubled.
func (l *Ledger) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("export csv header: %w", err)
	}

	for _, e := range l.Experiments() {
		rating, thumbs, tags, notes := "", "", "", ""
		if e.Annotation != nil {
			if e.Annotation.Rating > 0 {
				rating = strconv.Itoa(e.Annotation.Rating)
			}
			thumbs = string(e.Annotation.Thumbs)
			tags = strings.Join(e.Annotation.Tags, ";")
			notes = e.Annotation.Notes
		}

		record := []string{
			e.ID,
			time.UnixMilli(e.CreatedAt).UTC().Format(time.RFC3339),
			e.ModelName,
			e.UserPrompt(),
			e.AssistantResponse(),
			strconv.FormatFloat(e.Parameters.Temperature, 'f', -1, 64),
			strconv.Itoa(e.Parameters.MaxTokens),
			strconv.FormatFloat(e.Parameters.TopP, 'f', -1, 64),
			strconv.Itoa(e.Metrics.TotalTokens),
			strconv.Itoa(e.Metrics.PromptTokens),
			strconv.Itoa(e.Metrics.CompletionTokens),
			strconv.Itoa(e.Metrics.LatencyMs),
			strconv.FormatFloat(e.Metrics.TokensPerSecond, 'f', 2, 64),
			strconv.Itoa(e.Metrics.TimeToFirstToken),
			rating,
			thumbs,
			tags,
			notes,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("export csv row %s: %w", e.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return buf.Bytes(), nil
}
