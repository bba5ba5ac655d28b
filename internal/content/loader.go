// Package content loads authored drama catalogs from YAML. Files are decoded
// strictly: unknown keys are a load error, so typos in authored content fail
// fast instead of silently disabling a condition or effect.
package content

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pitchside/frontoffice/internal/calendar"
	"github.com/pitchside/frontoffice/internal/drama"
	"github.com/pitchside/frontoffice/internal/errors"
)

// catalogFile is the YAML document shape for a catalog file.
type catalogFile struct {
	Templates []templateYAML `yaml:"templates"`
}

type templateYAML struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Severity string `yaml:"severity"`
	Title    string `yaml:"title"`
	Text     string `yaml:"text"`

	Conditions  []conditionYAML `yaml:"conditions"`
	Probability int             `yaml:"probability"`
	Selector    string          `yaml:"selector"`

	CooldownDays  int  `yaml:"cooldown_days"`
	OncePerSeason bool `yaml:"once_per_season"`

	Effects []effectYAML `yaml:"effects"`
	Choices []choiceYAML `yaml:"choices"`

	EscalateDays         int    `yaml:"escalate_days"`
	EscalationTemplateID string `yaml:"escalation_template_id"`
}

type conditionYAML struct {
	Kind         string `yaml:"kind"`
	Flag         string `yaml:"flag"`
	PlayerScoped bool   `yaml:"player_scoped"`
	Value        int    `yaml:"value"`
	Stat         string `yaml:"stat"`
	Phase        string `yaml:"phase"`
	Trait        string `yaml:"trait"`
}

type effectYAML struct {
	Kind         string `yaml:"kind"`
	Selector     string `yaml:"selector"`
	Stat         string `yaml:"stat"`
	Delta        int    `yaml:"delta"`
	Amount       int64  `yaml:"amount"`
	Flag         string `yaml:"flag"`
	PlayerScoped bool   `yaml:"player_scoped"`
	DurationDays int    `yaml:"duration_days"`
	TemplateID   string `yaml:"template_id"`
}

type choiceYAML struct {
	ID              string       `yaml:"id"`
	Label           string       `yaml:"label"`
	OutcomeText     string       `yaml:"outcome_text"`
	Effects         []effectYAML `yaml:"effects"`
	TriggersEventID string       `yaml:"triggers_event_id"`
}

// ParseTemplates decodes one catalog document without building a catalog.
func ParseTemplates(r io.Reader) ([]drama.Template, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc catalogFile
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(errors.CodeContentInvalid, "decode catalog yaml", err)
	}

	templates := make([]drama.Template, 0, len(doc.Templates))
	for _, t := range doc.Templates {
		templates = append(templates, t.toDomain())
	}
	return templates, nil
}

// ParseCatalog decodes and validates one catalog document.
func ParseCatalog(r io.Reader) (*drama.Catalog, error) {
	templates, err := ParseTemplates(r)
	if err != nil {
		return nil, err
	}
	return drama.NewCatalog(templates)
}

// LoadFile loads and validates a single catalog file.
func LoadFile(path string) (*drama.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	catalog, err := ParseCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// LoadDir loads every .yaml/.yml file in dir, in lexical order, and validates
// the merged template set as one catalog. Cross-file references are legal.
func LoadDir(dir string) (*drama.Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	var templates []drama.Template
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalog %s: %w", path, err)
		}
		parsed, err := ParseTemplates(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		templates = append(templates, parsed...)
	}
	return drama.NewCatalog(templates)
}

func (t templateYAML) toDomain() drama.Template {
	out := drama.Template{
		ID:                   t.ID,
		Category:             t.Category,
		Severity:             drama.Severity(t.Severity),
		Title:                t.Title,
		Text:                 t.Text,
		Probability:          t.Probability,
		Selector:             drama.Selector(t.Selector),
		CooldownDays:         t.CooldownDays,
		OncePerSeason:        t.OncePerSeason,
		EscalateDays:         t.EscalateDays,
		EscalationTemplateID: t.EscalationTemplateID,
	}
	for _, c := range t.Conditions {
		out.Conditions = append(out.Conditions, drama.Condition{
			Kind:         drama.ConditionKind(c.Kind),
			Flag:         c.Flag,
			PlayerScoped: c.PlayerScoped,
			Value:        c.Value,
			Stat:         c.Stat,
			Phase:        calendar.SeasonPhase(c.Phase),
			Trait:        c.Trait,
		})
	}
	out.Effects = effectsToDomain(t.Effects)
	for _, ch := range t.Choices {
		out.Choices = append(out.Choices, drama.Choice{
			ID:              ch.ID,
			Label:           ch.Label,
			OutcomeText:     ch.OutcomeText,
			Effects:         effectsToDomain(ch.Effects),
			TriggersEventID: ch.TriggersEventID,
		})
	}
	return out
}

func effectsToDomain(effects []effectYAML) []drama.Effect {
	out := make([]drama.Effect, 0, len(effects))
	for _, e := range effects {
		out = append(out, drama.Effect{
			Kind:         drama.EffectKind(e.Kind),
			Selector:     drama.Selector(e.Selector),
			Stat:         e.Stat,
			Delta:        e.Delta,
			Amount:       e.Amount,
			Flag:         e.Flag,
			PlayerScoped: e.PlayerScoped,
			DurationDays: e.DurationDays,
			TemplateID:   e.TemplateID,
		})
	}
	return out
}
