// Package template stores reusable prompt templates with {{name}}
// placeholders and substitutes values into them.
package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/promptlab/promptlab/internal/store"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned for unknown template ids.
	ErrNotFound = errors.New("template not found")
	// ErrBuiltin is returned when deleting a built-in template.
	ErrBuiltin = errors.New("built-in templates cannot be deleted")
	// ErrMissingVariable is returned when Apply lacks a non-blank value for
	// a declared variable.
	ErrMissingVariable = errors.New("missing template variable")
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is one reusable prompt with declared variables.
type Template struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Content   string   `json:"content"`
	Variables []string `json:"variables"`
	CreatedAt int64    `json:"createdAt"`
	Builtin   bool     `json:"builtin,omitempty"`
}

// Engine manages the template collection, persisted under its own
// namespaced store key.
type Engine struct {
	mu        sync.Mutex
	templates []Template
	store     store.Store
	logger    *slog.Logger
}

func builtins() []Template {
	now := time.Now().UnixMilli()
	mk := func(id, name, content string) Template {
		return Template{
			ID:        id,
			Name:      name,
			Content:   content,
			Variables: extractVariables(content),
			CreatedAt: now,
			Builtin:   true,
		}
	}
	return []Template{
		mk("default-explain", "Explain Concept",
			"Explain {{concept}} in simple terms that a beginner could understand."),
		mk("default-compare", "Compare Two Things",
			"Compare and contrast {{thing1}} and {{thing2}}. List the key similarities and differences."),
		mk("default-code", "Code Task",
			"Write a {{language}} function that {{task}}. Include comments explaining the code."),
	}
}

// extractVariables scans content for {{name}} placeholders, deduplicated,
// in first-occurrence order.
func extractVariables(content string) []string {
	vars := []string{}
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return vars
}

// New loads the engine from the store, seeding built-in templates on first
// run.
func New(ctx context.Context, st store.Store, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{store: st, logger: logger}

	found, err := st.Load(ctx, store.KeyTemplates, &e.templates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if !found {
		e.templates = builtins()
		if err := e.persist(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// persist must be called with e.mu held (or before the engine is shared).
func (e *Engine) persist(ctx context.Context) error {
	if err := e.store.Save(ctx, store.KeyTemplates, e.templates); err != nil {
		return fmt.Errorf("persist templates: %w", err)
	}
	return nil
}

// SeedFile merges templates from a YAML file into the collection, skipping
// names that already exist.
func (e *Engine) SeedFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates file: %w", err)
	}

	var doc struct {
		Templates []struct {
			Name    string `yaml:"name"`
			Content string `yaml:"content"`
		} `yaml:"templates"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse templates file: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	added := 0
	for _, t := range doc.Templates {
		exists := false
		for _, have := range e.templates {
			if have.Name == t.Name {
				exists = true
				break
			}
		}
		if exists || t.Name == "" || t.Content == "" {
			continue
		}
		e.templates = append(e.templates, newTemplate(t.Name, t.Content))
		added++
	}
	if added == 0 {
		return nil
	}
	e.logger.Info("seeded templates from file", "path", path, "added", added)
	return e.persist(ctx)
}

func newTemplate(name, content string) Template {
	return Template{
		ID:        fmt.Sprintf("tmpl_%s", uuid.NewString()),
		Name:      name,
		Content:   content,
		Variables: extractVariables(content),
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Add registers a template, auto-extracting its variables. Newest first.
func (e *Engine) Add(ctx context.Context, name, content string) (Template, error) {
	t := newTemplate(name, content)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates = append([]Template{t}, e.templates...)
	if err := e.persist(ctx); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Update changes a template's name and/or content. Changing the content
// re-extracts the declared variables.
func (e *Engine) Update(ctx context.Context, id string, name, content *string) (Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.templates {
		if e.templates[i].ID != id {
			continue
		}
		if name != nil {
			e.templates[i].Name = *name
		}
		if content != nil {
			e.templates[i].Content = *content
			e.templates[i].Variables = extractVariables(*content)
		}
		if err := e.persist(ctx); err != nil {
			return Template{}, err
		}
		return e.templates[i], nil
	}
	return Template{}, fmt.Errorf("update template %s: %w", id, ErrNotFound)
}

// Delete removes a template. Built-in templates are exempt.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.templates {
		if e.templates[i].ID != id {
			continue
		}
		if e.templates[i].Builtin {
			return ErrBuiltin
		}
		e.templates = append(e.templates[:i], e.templates[i+1:]...)
		return e.persist(ctx)
	}
	return fmt.Errorf("delete template %s: %w", id, ErrNotFound)
}

// Templates returns a copy of the collection.
func (e *Engine) Templates() []Template {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Template(nil), e.templates...)
}

// Get returns the template with the given id.
func (e *Engine) Get(id string) (Template, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Apply substitutes values into the template. Every declared variable must
// have a non-blank value; repeated placeholders all receive the same
// substitution.
func (e *Engine) Apply(id string, values map[string]string) (string, error) {
	t, ok := e.Get(id)
	if !ok {
		return "", fmt.Errorf("apply template %s: %w", id, ErrNotFound)
	}

	for _, v := range t.Variables {
		if strings.TrimSpace(values[v]) == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingVariable, v)
		}
	}

	result := t.Content
	for _, v := range t.Variables {
		result = strings.ReplaceAll(result, "{{"+v+"}}", values[v])
	}
	return result, nil
}
