// Package steps defines the ordered steps of each deal pipeline and checks
// that every step runs after the steps it depends on.
package steps

import (
	"fmt"
)

// Pipeline categories.
const (
	CategorySigned = "signed"
	CategoryScrape = "scrape"
	CategoryManual = "manual"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Dependencies []string
	// Optional steps may be skipped without failing the run.
	Optional bool
}

// StepRegistry lists the steps of each pipeline in execution order.
var StepRegistry = map[string][]StepDefinition{
	CategorySigned: {
		{Name: "resolve_credentials"},
		{Name: "get_item", Dependencies: []string{"resolve_credentials"}},
		{Name: "write_post", Dependencies: []string{"get_item"}},
		{Name: "notify", Dependencies: []string{"write_post"}, Optional: true},
	},
	CategoryScrape: {
		{Name: "fetch_page"},
		{Name: "extract_metadata", Dependencies: []string{"fetch_page"}},
		{Name: "write_post", Dependencies: []string{"extract_metadata"}},
		{Name: "notify", Dependencies: []string{"write_post"}, Optional: true},
	},
	CategoryManual: {
		{Name: "build_product"},
		{Name: "write_post", Dependencies: []string{"build_product"}},
		{Name: "notify", Dependencies: []string{"write_post"}, Optional: true},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Sequence returns the step definitions of category.
func Sequence(category string) ([]StepDefinition, error) {
	seq, ok := StepRegistry[category]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline: %s", category)
	}
	return seq, nil
}

// Position returns the 1-based index of step within category and the step count.
func Position(category, step string) (int, int) {
	seq := StepRegistry[category]
	for i, def := range seq {
		if def.Name == step {
			return i + 1, len(seq)
		}
	}
	return 0, len(seq)
}

// IsOptional reports whether step is marked Optional in category.
func IsOptional(category, step string) bool {
	for _, def := range StepRegistry[category] {
		if def.Name == step {
			return def.Optional
		}
	}
	return false
}

// ValidateDependencies checks that step's dependencies are all in completed.
func ValidateDependencies(category, step string, completed map[string]bool) error {
	seq, err := Sequence(category)
	if err != nil {
		return err
	}

	for _, def := range seq {
		if def.Name != step {
			continue
		}
		var missing []string
		for _, dep := range def.Dependencies {
			if !completed[dep] {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			return &DependencyError{Step: step, MissingDependencies: missing}
		}
		return nil
	}
	return fmt.Errorf("unknown step %s in pipeline %s", step, category)
}
