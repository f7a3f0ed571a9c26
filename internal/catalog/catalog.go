// Package catalog holds the static question and persona tables the engine
// consults. Tables are immutable once loaded; hot reload swaps a whole
// snapshot so an in-flight turn never observes a torn table.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"boardroom/internal/logging"
	"boardroom/internal/types"
)

// Catalog is one immutable snapshot of the configured questions and personas.
type Catalog struct {
	questions []types.Question // sorted by ordinal
	byID      map[string]types.Question
	personas  map[string]types.Persona
	phases    []string // phase ordinal -> persona id
}

// QuestionCount returns the number of audit questions, which is also the
// terminal phase count for quick_audit sessions.
func (c *Catalog) QuestionCount() int {
	return len(c.questions)
}

// Question returns the question at the given ordinal position.
func (c *Catalog) Question(ordinal int) (types.Question, bool) {
	if ordinal < 0 || ordinal >= len(c.questions) {
		return types.Question{}, false
	}
	return c.questions[ordinal], true
}

// QuestionByID looks a question up by identifier.
func (c *Catalog) QuestionByID(id string) (types.Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// PhaseCount returns the number of board-meeting phases.
func (c *Catalog) PhaseCount() int {
	return len(c.phases)
}

// PersonaForPhase returns the persona assigned to a board-meeting phase.
// Phases past the end of the mapping keep the final persona, so a session
// sitting on its terminal phase still has a speaker.
func (c *Catalog) PersonaForPhase(phase int) (types.Persona, bool) {
	if len(c.phases) == 0 {
		return types.Persona{}, false
	}
	if phase < 0 {
		phase = 0
	}
	if phase >= len(c.phases) {
		phase = len(c.phases) - 1
	}
	p, ok := c.personas[c.phases[phase]]
	return p, ok
}

// questionsFile and personasFile are the catalog directory layout.
const (
	questionsFile = "questions.yaml"
	personasFile  = "personas.yaml"
)

type questionsDoc struct {
	Questions []types.Question `yaml:"questions"`
}

type personasDoc struct {
	Personas []types.Persona `yaml:"personas"`
	Phases   []string        `yaml:"phases"`
}

// LoadDir reads questions.yaml and personas.yaml from dir and builds a
// validated snapshot.
func LoadDir(dir string) (*Catalog, error) {
	qData, err := os.ReadFile(filepath.Join(dir, questionsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", questionsFile, err)
	}
	pData, err := os.ReadFile(filepath.Join(dir, personasFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", personasFile, err)
	}

	var qd questionsDoc
	if err := yaml.Unmarshal(qData, &qd); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", questionsFile, err)
	}
	var pd personasDoc
	if err := yaml.Unmarshal(pData, &pd); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", personasFile, err)
	}

	return build(qd.Questions, pd.Personas, pd.Phases)
}

// build assembles and validates a snapshot from raw tables.
func build(questions []types.Question, personas []types.Persona, phases []string) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog has no questions")
	}
	if len(personas) == 0 {
		return nil, fmt.Errorf("catalog has no personas")
	}
	if len(phases) == 0 {
		return nil, fmt.Errorf("catalog has no phase mapping")
	}

	sorted := make([]types.Question, len(questions))
	copy(sorted, questions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })

	byID := make(map[string]types.Question, len(sorted))
	for _, q := range sorted {
		if q.ID == "" {
			return nil, fmt.Errorf("question at ordinal %d has no id", q.Ordinal)
		}
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		byID[q.ID] = q
	}

	byPersona := make(map[string]types.Persona, len(personas))
	for _, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona %q has no id", p.Name)
		}
		byPersona[p.ID] = p
	}
	for i, id := range phases {
		if _, ok := byPersona[id]; !ok {
			return nil, fmt.Errorf("phase %d references unknown persona %q", i, id)
		}
	}

	return &Catalog{
		questions: sorted,
		byID:      byID,
		personas:  byPersona,
		phases:    phases,
	}, nil
}

// Provider hands out the current catalog snapshot. Reload replaces the whole
// snapshot atomically.
type Provider struct {
	current atomic.Pointer[Catalog]
	dir     string // empty for the built-in catalog
}

// NewProvider loads the initial snapshot. An empty dir selects the built-in
// default catalog.
func NewProvider(dir string) (*Provider, error) {
	p := &Provider{dir: dir}

	var cat *Catalog
	var err error
	if dir == "" {
		cat, err = Default()
	} else {
		cat, err = LoadDir(dir)
	}
	if err != nil {
		return nil, err
	}

	p.current.Store(cat)
	logging.Catalog("Catalog loaded: %d questions, %d board phases", cat.QuestionCount(), cat.PhaseCount())
	return p, nil
}

// Snapshot returns the current immutable catalog.
func (p *Provider) Snapshot() *Catalog {
	return p.current.Load()
}

// Reload re-reads the catalog directory and swaps the snapshot. A reload
// failure keeps the previous snapshot in place.
func (p *Provider) Reload() error {
	if p.dir == "" {
		return nil
	}
	cat, err := LoadDir(p.dir)
	if err != nil {
		logging.Get(logging.CategoryCatalog).Warn("Catalog reload failed, keeping previous snapshot: %v", err)
		return err
	}
	p.current.Store(cat)
	logging.Catalog("Catalog reloaded: %d questions, %d board phases", cat.QuestionCount(), cat.PhaseCount())
	return nil
}

// Dir returns the watched catalog directory, empty for the built-in catalog.
func (p *Provider) Dir() string {
	return p.dir
}
