package domain

// ModelParameters are the sampling settings for one generation request.
// A value object: copied into each Experiment at creation time so later
// edits never alter historical records.
type ModelParameters struct {
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"maxTokens"`
	TopP          float64 `json:"topP"`
	TopK          int     `json:"topK"`
	RepeatPenalty float64 `json:"repeatPenalty"`
}

// DefaultParameters returns the baseline sampling settings shared by all
// registry models.
func DefaultParameters() ModelParameters {
	return ModelParameters{
		Temperature:   0.7,
		MaxTokens:     2048,
		TopP:          0.9,
		TopK:          40,
		RepeatPenalty: 1.1,
	}
}

// Clamp forces every field into its valid range.
func (p ModelParameters) Clamp() ModelParameters {
	if p.Temperature < 0 {
		p.Temperature = 0
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultParameters().MaxTokens
	}
	if p.TopP < 0 {
		p.TopP = 0
	}
	if p.TopP > 1 {
		p.TopP = 1
	}
	if p.TopK < 1 {
		p.TopK = 1
	}
	if p.RepeatPenalty < 1 {
		p.RepeatPenalty = 1
	}
	return p
}

// Preset is a named partial parameter profile.
type Preset struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

// Presets returns the built-in sampling profiles.
func Presets() []Preset {
	return []Preset{
		{Name: "creative", Temperature: 1.2, TopP: 0.95, TopK: 100},
		{Name: "balanced", Temperature: 0.7, TopP: 0.9, TopK: 40},
		{Name: "precise", Temperature: 0.2, TopP: 0.5, TopK: 10},
	}
}

// Apply overlays a preset onto existing parameters.
func (p ModelParameters) Apply(preset Preset) ModelParameters {
	p.Temperature = preset.Temperature
	p.TopP = preset.TopP
	p.TopK = preset.TopK
	return p.Clamp()
}
