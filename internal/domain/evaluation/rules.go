package evaluation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

type rulesFile struct {
	Version  int           `yaml:"version"`
	Sections []sectionRule `yaml:"sections"`
}

type sectionRule struct {
	Kind     SectionKind `yaml:"kind"`
	Required []string    `yaml:"required"`
	Checks   []fieldRule `yaml:"checks"`
}

type fieldRule struct {
	Field string `yaml:"field"`
	Expr  string `yaml:"expr"`
}

type compiledCheck struct {
	field   string
	program cel.Program
}

type compiledSection struct {
	required []string
	checks   []compiledCheck
}

// Rules holds the completeness and value checks applied before a section
// may advance its record.
type Rules struct {
	sections map[SectionKind]compiledSection
}

// DefaultRules returns the rules embedded in the binary.
func DefaultRules() (*Rules, error) {
	return LoadRules(defaultRulesYAML)
}

// MustDefaultRules panics when the embedded rules do not compile.
func MustDefaultRules() *Rules {
	rules, err := DefaultRules()
	if err != nil {
		panic(err)
	}
	return rules
}

func LoadRulesFile(path string) (*Rules, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	rules, err := LoadRules(content)
	if err != nil {
		return nil, fmt.Errorf("rules: %s: %w", path, err)
	}
	return rules, nil
}

func LoadRules(data []byte) (*Rules, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("rules: payload is empty")
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}
	if rf.Version != 1 {
		return nil, errors.New("rules: unsupported version")
	}

	env, err := cel.NewEnv(cel.Variable("section", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		return nil, err
	}

	out := &Rules{sections: make(map[SectionKind]compiledSection, len(rf.Sections))}
	for _, sr := range rf.Sections {
		if sr.Kind.Position() < 0 {
			return nil, fmt.Errorf("rules: unknown section kind %q", sr.Kind)
		}
		if _, dup := out.sections[sr.Kind]; dup {
			return nil, fmt.Errorf("rules: duplicate section %q", sr.Kind)
		}
		cs := compiledSection{required: sr.Required}
		for _, fr := range sr.Checks {
			program, err := compileCheck(env, fr)
			if err != nil {
				return nil, fmt.Errorf("rules: %s.%s: %w", sr.Kind, fr.Field, err)
			}
			cs.checks = append(cs.checks, compiledCheck{field: fr.Field, program: program})
		}
		out.sections[sr.Kind] = cs
	}
	return out, nil
}

func compileCheck(env *cel.Env, fr fieldRule) (cel.Program, error) {
	expr := strings.TrimSpace(fr.Expr)
	if fr.Field == "" || expr == "" {
		return nil, errors.New("field and expression required")
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.New("expression output type mismatch")
	}
	return env.Program(ast)
}

// Missing lists the fields of s that are absent or fail a value check,
// in rule order and without duplicates. A nil section is missing every
// required field.
func (r *Rules) Missing(kind SectionKind, s Section) ([]string, error) {
	cs, ok := r.sections[kind]
	if !ok {
		return nil, nil
	}
	fields := map[string]any{}
	if s != nil {
		var err error
		fields, err = sectionFields(s)
		if err != nil {
			return nil, err
		}
	}

	var missing []string
	seen := map[string]bool{}
	add := func(field string) {
		if !seen[field] {
			seen[field] = true
			missing = append(missing, field)
		}
	}
	for _, field := range cs.required {
		if blank(fields[field]) {
			add(field)
		}
	}
	if s == nil {
		return missing, nil
	}
	for _, check := range cs.checks {
		out, _, err := check.program.Eval(map[string]any{"section": fields})
		if err != nil {
			add(check.field)
			continue
		}
		if ok, _ := out.Value().(bool); !ok {
			add(check.field)
		}
	}
	return missing, nil
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	default:
		return false
	}
}
