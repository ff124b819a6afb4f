package validate

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Metrics is the environment configured rules are evaluated against.
type Metrics struct {
	Clusters           int `expr:"clusters"`
	Vectors            int `expr:"vectors"`
	Themes             int `expr:"themes"`
	CustomClusters     int `expr:"customClusters"`
	CustomVectors      int `expr:"customVectors"`
	CustomThemes       int `expr:"customThemes"`
	DeletedThemes      int `expr:"deletedThemes"`
	EmptyVectors       int `expr:"emptyVectors"`
	MaxThemesPerVector int `expr:"maxThemesPerVector"`
	CrossListedThemes  int `expr:"crossListedThemes"`
	TotalUsage         int `expr:"totalUsage"`
}

// Measure computes the rule environment for a state snapshot.
func Measure(s types.State) Metrics {
	m := Metrics{
		Clusters:       len(s.Taxonomy.Clusters),
		Themes:         len(s.Taxonomy.Themes),
		CustomClusters: len(s.Customizations.CustomClusters),
		CustomVectors:  len(s.Customizations.CustomVectors),
		CustomThemes:   len(s.Customizations.CustomThemes),
		DeletedThemes:  len(s.Customizations.DeletedThemes),
	}
	for _, c := range s.Taxonomy.Clusters {
		m.Vectors += len(c.Vectors)
		for _, v := range c.Vectors {
			n := len(v.ThemeIDs)
			if n == 0 {
				m.EmptyVectors++
			}
			if n > m.MaxThemesPerVector {
				m.MaxThemesPerVector = n
			}
		}
	}
	for _, th := range s.Taxonomy.Themes {
		if len(th.VectorIDs) > 1 {
			m.CrossListedThemes++
		}
		m.TotalUsage += th.UsageCount
	}
	return m
}

// CompileRules turns configured rules into validators. Each expression is
// compiled once and must evaluate to a boolean; a rule whose expression
// fails at run time counts as failed.
func CompileRules(rules []types.Rule) ([]Validator, error) {
	out := make([]Validator, 0, len(rules))
	for _, r := range rules {
		program, err := exprlang.Compile(r.Expr, exprlang.Env(Metrics{}), exprlang.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling rule %s: %w", r.ID, err)
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("rule %s failed: %s", r.ID, r.Expr)
		}
		out = append(out, Validator{
			ID:           r.ID,
			Validate:     ruleFunc(program),
			ErrorMessage: msg,
			Required:     r.Required,
		})
	}
	return out, nil
}

func ruleFunc(program *exprvm.Program) func(types.State) bool {
	return func(s types.State) bool {
		result, err := exprlang.Run(program, Measure(s))
		if err != nil {
			return false
		}
		ok, _ := result.(bool)
		return ok
	}
}
