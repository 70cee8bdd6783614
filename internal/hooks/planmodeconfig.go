package hooks

import (
	"encoding/json"
	"os"

	"github.com/rlefko/planguard/internal/planmode"
)

// injectionConfigFile mirrors PlanContextInjectionConfig.from_dict's JSON
// shape (injector.py): tolerant deserialization over a snake_case document,
// decoded directly onto a copy of the default config so any field the
// document omits keeps its default value (spec §6 "the file is a serialised
// injection config... missing fields as defaults").
type injectionConfigFile struct {
	Enabled          *bool                 `json:"enabled"`
	GuidelinesConfig *guidelinesConfigFile `json:"guidelines_config"`
	HintsConfig      *hintsConfigFile      `json:"hints_config"`
	InjectGuidelines *bool                 `json:"inject_guidelines"`
	InjectHints      *bool                 `json:"inject_hints"`
	CompactMode      *bool                 `json:"compact_mode"`
}

type guidelinesConfigFile struct {
	Enabled                          *bool    `json:"enabled"`
	IncludeCodeReuseCheck            *bool    `json:"include_code_reuse_check"`
	IncludeTestingRequirements       *bool    `json:"include_testing_requirements"`
	IncludeDocumentationRequirements *bool    `json:"include_documentation_requirements"`
	IncludeArchitectureAlignment     *bool    `json:"include_architecture_alignment"`
	IncludePerformanceConsiderations *bool    `json:"include_performance_considerations"`
	CustomGuidelines                 []string `json:"custom_guidelines"`
	ProjectPatternsPath               string   `json:"project_patterns_path"`
}

type hintsConfigFile struct {
	Enabled                  *bool `json:"enabled"`
	MaxEntityHints           *int  `json:"max_entity_hints"`
	IncludeDuplicateCheck    *bool `json:"include_duplicate_check"`
	IncludeTestDiscovery     *bool `json:"include_test_discovery"`
	IncludeDocDiscovery      *bool `json:"include_doc_discovery"`
	IncludeArchitectureHints *bool `json:"include_architecture_hints"`
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// mergeGuidelinesConfig overlays a partially-specified document onto base.
func mergeGuidelinesConfig(base planmode.GuidelinesConfig, doc *guidelinesConfigFile) planmode.GuidelinesConfig {
	if doc == nil {
		return base
	}
	applyBool(&base.Enabled, doc.Enabled)
	applyBool(&base.IncludeCodeReuseCheck, doc.IncludeCodeReuseCheck)
	applyBool(&base.IncludeTestingRequirements, doc.IncludeTestingRequirements)
	applyBool(&base.IncludeDocumentationRequirements, doc.IncludeDocumentationRequirements)
	applyBool(&base.IncludeArchitectureAlignment, doc.IncludeArchitectureAlignment)
	applyBool(&base.IncludePerformanceConsiderations, doc.IncludePerformanceConsiderations)
	if doc.CustomGuidelines != nil {
		base.CustomGuidelines = doc.CustomGuidelines
	}
	if doc.ProjectPatternsPath != "" {
		base.ProjectPatternsPath = doc.ProjectPatternsPath
	}
	return base
}

func mergeHintsConfig(base planmode.HintsConfig, doc *hintsConfigFile) planmode.HintsConfig {
	if doc == nil {
		return base
	}
	applyBool(&base.Enabled, doc.Enabled)
	if doc.MaxEntityHints != nil {
		base.MaxEntityHints = *doc.MaxEntityHints
	}
	applyBool(&base.IncludeDuplicateCheck, doc.IncludeDuplicateCheck)
	applyBool(&base.IncludeTestDiscovery, doc.IncludeTestDiscovery)
	applyBool(&base.IncludeDocDiscovery, doc.IncludeDocDiscovery)
	applyBool(&base.IncludeArchitectureHints, doc.IncludeArchitectureHints)
	return base
}

// LoadInjectionConfig resolves the plan-mode injection config the same way
// _load_plan_mode_config does: a JSON file named by configFile (when
// non-empty and it exists) overlaid on the defaults, else a bare compact-mode
// toggle, else the plain defaults.
func LoadInjectionConfig(configFile string, compactEnv bool) planmode.InjectionConfig {
	cfg := planmode.DefaultInjectionConfig()

	if configFile != "" {
		if data, err := os.ReadFile(configFile); err == nil {
			var doc injectionConfigFile
			if json.Unmarshal(data, &doc) == nil {
				applyBool(&cfg.Enabled, doc.Enabled)
				applyBool(&cfg.InjectGuidelines, doc.InjectGuidelines)
				applyBool(&cfg.InjectHints, doc.InjectHints)
				applyBool(&cfg.CompactMode, doc.CompactMode)
				cfg.GuidelinesConfig = mergeGuidelinesConfig(cfg.GuidelinesConfig, doc.GuidelinesConfig)
				cfg.HintsConfig = mergeHintsConfig(cfg.HintsConfig, doc.HintsConfig)
				return cfg
			}
		}
	}

	if compactEnv {
		cfg.CompactMode = true
	}
	return cfg
}
