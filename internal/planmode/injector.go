package planmode

import (
	"strings"
)

// InjectionConfig controls plan-context injection end to end (spec §4.6
// "Injector").
type InjectionConfig struct {
	Enabled          bool
	GuidelinesConfig GuidelinesConfig
	HintsConfig      HintsConfig
	InjectGuidelines bool
	InjectHints      bool
	CompactMode      bool
}

// DefaultInjectionConfig enables guidelines and hints in full (non-compact)
// mode.
func DefaultInjectionConfig() InjectionConfig {
	return InjectionConfig{
		Enabled:          true,
		GuidelinesConfig: DefaultGuidelinesConfig(),
		HintsConfig:      DefaultHintsConfig(),
		InjectGuidelines: true,
		InjectHints:      true,
	}
}

// InjectionResult is the outcome of one context-injection pass.
type InjectionResult struct {
	Success      bool
	InjectedText string
	Guidelines   *Guidelines
	Hints        *Hints
	Error        string
}

// Injector coordinates the guidelines and hints generators into a single
// block of text for injection into the plan-mode prompt, grounded on
// PlanContextInjector. It does not run plan-QA verification on the
// resulting plan text: that check lives in internal/planqa's Verifier,
// which this package does not import and no hook calls.
type Injector struct {
	CollectionName string
	Config         InjectionConfig

	guidelines *GuidelinesGenerator
	hints      *HintsGenerator
}

// NewInjector builds an injector scoped to collectionName and projectPath.
func NewInjector(collectionName, projectPath string, config InjectionConfig) *Injector {
	return &Injector{
		CollectionName: collectionName,
		Config:         config,
		guidelines:     NewGuidelinesGenerator(collectionName, projectPath, config.GuidelinesConfig),
		hints:          NewHintsGenerator(collectionName, config.HintsConfig),
	}
}

// Inject generates and assembles plan-mode context text for prompt.
func (inj *Injector) Inject(prompt string) InjectionResult {
	if !inj.Config.Enabled {
		return InjectionResult{Success: true}
	}

	var parts []string
	result := InjectionResult{}

	if inj.Config.InjectGuidelines {
		guidelines := inj.guidelines.Generate()
		result.Guidelines = &guidelines
		if inj.Config.CompactMode {
			parts = append(parts, inj.guidelines.GenerateCompact())
		} else {
			parts = append(parts, guidelines.FullText)
		}
	}

	if inj.Config.InjectHints {
		hints := inj.hints.Generate(prompt)
		result.Hints = &hints
		if hintsText := hints.FormatForInjection(); hintsText != "" {
			parts = append(parts, hintsText)
		}
	}

	result.InjectedText = strings.Join(nonEmpty(parts), "\n")
	result.Success = true
	return result
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
