package rules

import "github.com/rlefko/planguard/internal/guardrail"

// All returns the closed, tagged inventory of plan guardrail rules (spec
// §9's "a simple inventory/table suffices" translation of the original's
// directory-scan discover_rules, same pattern already applied to
// coderules.All).
func All() []guardrail.Rule {
	return []guardrail.Rule{
		TestRequirementRule{},
		DocRequirementRule{},
		DuplicateDetectionRule{},
		ArchitecturalConsistencyRule{},
		PerformancePatternRule{},
	}
}
