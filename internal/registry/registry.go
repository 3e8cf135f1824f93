// Package registry holds the list of selectable models.
package registry

import (
	"fmt"
	"os"

	"github.com/promptlab/promptlab/internal/domain"
	"gopkg.in/yaml.v3"
)

// Model describes one selectable model and its default parameters.
type Model struct {
	ID                string                 `json:"id" yaml:"id"`
	Name              string                 `json:"name" yaml:"name"`
	DisplayName       string                 `json:"displayName" yaml:"display_name"`
	Size              string                 `json:"size" yaml:"size"`
	Description       string                 `json:"description" yaml:"description"`
	DefaultParameters domain.ModelParameters `json:"defaultParameters" yaml:"default_parameters"`
}

// Registry is a static list of models.
type Registry struct {
	models []Model
}

// Default returns the built-in registry.
func Default() *Registry {
	params := domain.DefaultParameters()
	return &Registry{models: []Model{
		{
			ID:                "llama3.2:1b",
			Name:              "llama3.2:1b",
			DisplayName:       "Llama 3.2",
			Size:              "1B",
			Description:       "Meta's compact and efficient model, great for quick responses",
			DefaultParameters: params,
		},
		{
			ID:                "phi3:mini",
			Name:              "phi3:mini",
			DisplayName:       "Phi-3 Mini",
			Size:              "3.8B",
			Description:       "Microsoft's efficient model with strong reasoning capabilities",
			DefaultParameters: params,
		},
		{
			ID:                "gemma2:2b",
			Name:              "gemma2:2b",
			DisplayName:       "Gemma 2",
			Size:              "2B",
			Description:       "Google's lightweight model optimized for quality",
			DefaultParameters: params,
		},
	}}
}

// LoadFile builds a registry from a YAML file. The file fully replaces the
// built-in list.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}

	var doc struct {
		Models []Model `yaml:"models"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse models file: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, fmt.Errorf("models file %s declares no models", path)
	}

	for i := range doc.Models {
		if doc.Models[i].Name == "" {
			doc.Models[i].Name = doc.Models[i].ID
		}
		if doc.Models[i].DisplayName == "" {
			doc.Models[i].DisplayName = doc.Models[i].Name
		}
		doc.Models[i].DefaultParameters = doc.Models[i].DefaultParameters.Clamp()
	}
	return &Registry{models: doc.Models}, nil
}

// Models returns all registry entries.
func (r *Registry) Models() []Model {
	out := make([]Model, len(r.models))
	copy(out, r.models)
	return out
}

// ByID returns the model with the given id, if present.
func (r *Registry) ByID(id string) (Model, bool) {
	for _, m := range r.models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// DisplayName returns the display name for id, falling back to the id itself
// for models not in the registry.
func (r *Registry) DisplayName(id string) string {
	if m, ok := r.ByID(id); ok {
		return m.DisplayName
	}
	return id
}
