// Package extract defines the narrow interfaces to the opaque collaborators
// that turn knowledge text into strategy specs and specs into executable
// rules. The evaluation core depends only on these interfaces, never on how
// a collaborator is implemented.
package extract

import (
	"context"
	"fmt"

	"github.com/raykavin/rulegate/pkg/core"
)

// Extractor turns raw knowledge text into a strategy spec. A spec that cannot
// be represented comes back with only its skip reason populated; called twice
// with the same input it must answer the same, with no state leakage.
type Extractor interface {
	Extract(ctx context.Context, knowledgeText, reference string) (*core.StrategySpec, error)
}

// Generator turns a spec into an executable rule, or reports an explicit
// generation failure
type Generator interface {
	Generate(ctx context.Context, spec core.StrategySpec) (core.Rule, error)
}

// RegistryGenerator resolves specs against a fixed set of known rule
// implementations. It is the in-process Generator used by the pipeline and
// tests; a remote code-generation service plugs in through the same interface.
type RegistryGenerator struct {
	rules map[string]core.Rule
}

// NewRegistryGenerator creates a generator serving the given rules by name
func NewRegistryGenerator(rules ...core.Rule) *RegistryGenerator {
	registry := make(map[string]core.Rule, len(rules))
	for _, rule := range rules {
		registry[rule.Name()] = rule
	}
	return &RegistryGenerator{rules: registry}
}

// Register adds or replaces a rule implementation
func (g *RegistryGenerator) Register(rule core.Rule) {
	g.rules[rule.Name()] = rule
}

// Generate implements Generator
func (g *RegistryGenerator) Generate(_ context.Context, spec core.StrategySpec) (core.Rule, error) {
	rule, ok := g.rules[spec.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no rule implementation for spec %q", core.ErrGenerationFailed, spec.Name)
	}
	return rule, nil
}
