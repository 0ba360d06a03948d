package weft

import (
	"fmt"
	"regexp"
	"strings"
)

// Goal declares which direction counts as an improvement for a field.
type Goal string

const (
	GoalNone           Goal = ""
	GoalHigherIsBetter Goal = "higher_is_better"
	GoalLowerIsBetter  Goal = "lower_is_better"
)

// ParseGoal converts a configuration string into a Goal.
func ParseGoal(s string) (Goal, error) {
	switch Goal(strings.TrimSpace(s)) {
	case GoalNone, GoalHigherIsBetter, GoalLowerIsBetter:
		return Goal(strings.TrimSpace(s)), nil
	}
	return GoalNone, fmt.Errorf("%w: unknown goal %q", ErrConfig, s)
}

// FieldSpec configures display rules for fields whose name matches Pattern.
//
// Pattern is matched against incoming field names either by literal equality
// or as a regular expression. Regex patterns must match the whole field name,
// not a substring. Specs are tried in declaration order and the first match
// wins.
type FieldSpec struct {
	Pattern string
	Goal    Goal
	Format  string // fmt verb applied to the raw value, e.g. "%.2f"
	Name    string // display name; may reference capture groups ($1, ${1}) when Pattern matches as a regex
	Hide    bool   // drop matching fields from the table entirely
}

// resolvedField holds the display rules derived for one raw field name.
type resolvedField struct {
	name   string
	goal   Goal
	format string
	hide   bool
}

type compiledSpec struct {
	spec FieldSpec
	re   *regexp.Regexp
}

// resolver matches raw field names against the configured FieldSpec set.
// Results are cached: the spec set is frozen at construction, so a raw name
// always resolves the same way.
type resolver struct {
	specs []compiledSpec
	cache map[string]resolvedField
}

func newResolver(specs []FieldSpec) (*resolver, error) {
	r := &resolver{
		specs: make([]compiledSpec, 0, len(specs)),
		cache: make(map[string]resolvedField),
	}
	for _, s := range specs {
		re, err := regexp.Compile(`\A(?:` + s.Pattern + `)\z`)
		if err != nil {
			return nil, fmt.Errorf("%w: field pattern %q: %v", ErrConfig, s.Pattern, err)
		}
		r.specs = append(r.specs, compiledSpec{spec: s, re: re})
	}
	return r, nil
}

func (r *resolver) resolve(raw string) resolvedField {
	if res, ok := r.cache[raw]; ok {
		return res
	}

	res := resolvedField{name: raw}
	for _, cs := range r.specs {
		if raw == cs.spec.Pattern {
			if cs.spec.Name != "" {
				res.name = cs.spec.Name
			}
			res.goal = cs.spec.Goal
			res.format = cs.spec.Format
			res.hide = cs.spec.Hide
			break
		}
		if m := cs.re.FindStringSubmatchIndex(raw); m != nil {
			if cs.spec.Name != "" {
				res.name = string(cs.re.ExpandString(nil, cs.spec.Name, raw, m))
			}
			res.goal = cs.spec.Goal
			res.format = cs.spec.Format
			res.hide = cs.spec.Hide
			break
		}
	}

	r.cache[raw] = res
	return res
}

// formatValue renders a raw value with the given fmt verb string. A mismatch
// between verb and value type (fmt leaves a "%!" marker in the output) falls
// back to a float64 coercion for numeric values, then to the natural %v form.
func formatValue(format string, v any) string {
	if format == "" {
		return fmt.Sprintf("%v", v)
	}
	s := fmt.Sprintf(format, v)
	if !strings.Contains(s, "%!") {
		return s
	}
	if f, ok := toFloat(v); ok {
		if s := fmt.Sprintf(format, f); !strings.Contains(s, "%!") {
			return s
		}
	}
	return fmt.Sprintf("%v", v)
}
