package drama

import (
	"fmt"

	"github.com/pitchside/frontoffice/internal/errors"
)

// Catalog is a validated, immutable set of drama templates. Escalation and
// chain-trigger references form a directed graph over templates; the graph is
// validated here at load time so the engine never resolves a dangling id and
// immediate chains can never recurse unboundedly.
type Catalog struct {
	templates map[string]Template
	order     []string
}

// NewCatalog validates templates and builds a catalog. Template order is
// preserved for deterministic evaluation.
func NewCatalog(templates []Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]Template, len(templates))}

	for _, tmpl := range templates {
		if tmpl.ID == "" {
			return nil, contentErr("template with empty id")
		}
		if _, dup := c.templates[tmpl.ID]; dup {
			return nil, contentErr(fmt.Sprintf("duplicate template id %q", tmpl.ID))
		}
		if err := validateTemplate(tmpl); err != nil {
			return nil, err
		}
		c.templates[tmpl.ID] = tmpl
		c.order = append(c.order, tmpl.ID)
	}

	for _, tmpl := range c.templates {
		if err := c.validateReferences(tmpl); err != nil {
			return nil, err
		}
	}
	if err := c.validateImmediateChains(); err != nil {
		return nil, err
	}
	return c, nil
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (Template, bool) {
	tmpl, ok := c.templates[id]
	return tmpl, ok
}

// Templates returns all templates in catalog order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.order)
}

func contentErr(message string) error {
	return errors.New(errors.CodeContentInvalid, message)
}

func validateTemplate(tmpl Template) error {
	fail := func(format string, args ...any) error {
		return contentErr(fmt.Sprintf("template %q: %s", tmpl.ID, fmt.Sprintf(format, args...)))
	}

	if !tmpl.Severity.IsValid() {
		return fail("invalid severity %q", tmpl.Severity)
	}
	if tmpl.Probability < 0 || tmpl.Probability > 100 {
		return fail("probability %d out of range 0-100", tmpl.Probability)
	}
	if tmpl.CooldownDays < 0 {
		return fail("negative cooldown days")
	}
	if tmpl.Selector != "" && !tmpl.Selector.IsValid() {
		return fail("invalid selector %q", tmpl.Selector)
	}
	if len(tmpl.Effects) == 0 && len(tmpl.Choices) == 0 {
		return fail("must define effects or choices")
	}
	if len(tmpl.Effects) > 0 && len(tmpl.Choices) > 0 {
		return fail("cannot define both effects and choices")
	}
	if tmpl.EscalationTemplateID != "" && tmpl.EscalateDays < 1 {
		return fail("escalation requires escalate_days of at least 1")
	}

	for i, cond := range tmpl.Conditions {
		if !cond.Kind.IsValid() {
			return fail("condition %d has unknown kind %q", i, cond.Kind)
		}
		switch cond.Kind {
		case CondFlagActive, CondFlagAbsent:
			if cond.Flag == "" {
				return fail("condition %d needs a flag name", i)
			}
		case CondPlayerStatBelow, CondPlayerStatAbove:
			if cond.Stat == "" {
				return fail("condition %d needs a stat name", i)
			}
		case CondSeasonPhase:
			if !cond.Phase.IsValid() {
				return fail("condition %d has unknown phase %q", i, cond.Phase)
			}
		case CondPersonalityIs:
			if cond.Trait == "" {
				return fail("condition %d needs a trait", i)
			}
		case CondRandomChance:
			if cond.Value < 0 || cond.Value > 100 {
				return fail("condition %d chance %d out of range 0-100", i, cond.Value)
			}
		}
	}

	seen := map[string]bool{}
	for i, choice := range tmpl.Choices {
		if choice.ID == "" {
			return fail("choice %d has empty id", i)
		}
		if seen[choice.ID] {
			return fail("duplicate choice id %q", choice.ID)
		}
		seen[choice.ID] = true
		if err := validateEffects(tmpl.ID, choice.Effects); err != nil {
			return err
		}
	}
	return validateEffects(tmpl.ID, tmpl.Effects)
}

func validateEffects(templateID string, effects []Effect) error {
	for i, eff := range effects {
		fail := func(format string, args ...any) error {
			return contentErr(fmt.Sprintf("template %q effect %d: %s", templateID, i, fmt.Sprintf(format, args...)))
		}
		if !eff.Kind.IsValid() {
			return fail("unknown kind %q", eff.Kind)
		}
		switch eff.Kind {
		case EffectPlayerStat:
			if eff.Stat == "" {
				return fail("needs a stat name")
			}
		case EffectSetFlag:
			if eff.Flag == "" {
				return fail("needs a flag name")
			}
			if eff.DurationDays < 1 {
				return fail("set_flag needs a positive duration")
			}
		case EffectClearFlag:
			if eff.Flag == "" {
				return fail("needs a flag name")
			}
		case EffectTriggerTemplate:
			if eff.TemplateID == "" {
				return fail("needs a template id")
			}
		}
		if eff.Selector != "" && !eff.Selector.IsValid() {
			return fail("invalid selector %q", eff.Selector)
		}
	}
	return nil
}

// validateReferences checks every template id mentioned by tmpl exists.
func (c *Catalog) validateReferences(tmpl Template) error {
	check := func(ref, kind string) error {
		if ref == "" {
			return nil
		}
		if _, ok := c.templates[ref]; !ok {
			return contentErr(fmt.Sprintf("template %q: %s references unknown template %q", tmpl.ID, kind, ref))
		}
		return nil
	}

	if err := check(tmpl.EscalationTemplateID, "escalation"); err != nil {
		return err
	}
	for _, eff := range tmpl.Effects {
		if eff.Kind == EffectTriggerTemplate {
			if err := check(eff.TemplateID, "trigger effect"); err != nil {
				return err
			}
		}
	}
	for _, choice := range tmpl.Choices {
		if err := check(choice.TriggersEventID, "choice trigger"); err != nil {
			return err
		}
		for _, eff := range choice.Effects {
			if eff.Kind == EffectTriggerTemplate {
				if err := check(eff.TemplateID, "trigger effect"); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// validateImmediateChains rejects cycles among same-day trigger edges.
// Escalation edges are excluded: they advance at most one hop per simulated
// day, so cycles through them are time-bounded.
func (c *Catalog) validateImmediateChains() error {
	edges := map[string][]string{}
	addEffectEdges := func(from string, effects []Effect) {
		for _, eff := range effects {
			if eff.Kind == EffectTriggerTemplate {
				edges[from] = append(edges[from], eff.TemplateID)
			}
		}
	}
	for id, tmpl := range c.templates {
		addEffectEdges(id, tmpl.Effects)
		for _, choice := range tmpl.Choices {
			addEffectEdges(id, choice.Effects)
			if choice.TriggersEventID != "" {
				edges[id] = append(edges[id], choice.TriggersEventID)
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := map[string]int{}

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return contentErr(fmt.Sprintf("trigger chain cycle through template %q", id))
		case done:
			return nil
		}
		state[id] = visiting
		for _, next := range edges[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, id := range c.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
