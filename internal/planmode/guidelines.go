package planmode

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

const maxPatternCacheSize = 32

type patternCacheKey struct {
	path  string
	mtime int64
}

var (
	patternCacheMu sync.Mutex
	patternCache   = map[patternCacheKey][]string{}
	patternCacheFIFO []patternCacheKey
)

// GuidelinesConfig toggles which guideline sections are generated (spec
// §4.6 "Guidelines generator").
type GuidelinesConfig struct {
	Enabled                          bool
	IncludeCodeReuseCheck             bool
	IncludeTestingRequirements        bool
	IncludeDocumentationRequirements  bool
	IncludeArchitectureAlignment      bool
	IncludePerformanceConsiderations  bool
	CustomGuidelines                  []string
	ProjectPatternsPath                string
}

// DefaultGuidelinesConfig enables every standard section.
func DefaultGuidelinesConfig() GuidelinesConfig {
	return GuidelinesConfig{
		Enabled:                          true,
		IncludeCodeReuseCheck:             true,
		IncludeTestingRequirements:        true,
		IncludeDocumentationRequirements:  true,
		IncludeArchitectureAlignment:      true,
		IncludePerformanceConsiderations:  true,
	}
}

// Guidelines is the generated output ready for context injection.
type Guidelines struct {
	FullText         string
	Sections         map[string]string
	MCPCommands      []string
	ProjectPatterns  []string
}

const codeReuseTemplate = `## 1. Code Reuse Check (CRITICAL)
Before proposing ANY new function, class, or component:
- Search the codebase: %[1]ssearch_similar("functionality")
- Check existing patterns: %[1]sread_graph(entity="ComponentName", mode="smart")
- If similar exists, plan to REUSE or EXTEND it
- State explicitly: "Verified no existing implementation" or "Will extend existing Y"

**read_graph tips:**
- ALWAYS use entity="Name" for focused results (10-20 items vs 300+ unfiltered)
- Test code is filtered by default; use includeTests=true to include tests
- Use mode="smart" for AI summary, mode="relationships" for raw connections`

const testingTemplate = `## 2. Testing Requirements
Every plan that modifies code MUST include:
- [ ] Unit tests for new/modified functions
- [ ] Integration tests for API changes
- Task format: "Add tests for [feature] in [test_file]"`

const documentationTemplate = `## 3. Documentation Requirements
Include documentation tasks when:
- Adding public APIs -> Update API docs
- Changing user-facing behavior -> Update README
- Adding configuration -> Update config docs`

const architectureTemplate = `## 4. Architecture Alignment
Your plan MUST align with project patterns:
%s`

const performanceTemplate = `## 5. Performance Considerations
Flag any step that may introduce:
- O(n^2) or worse complexity
- Unbounded memory usage
- Missing timeouts on network calls`

var patternSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(?:Code\s*Style|Patterns?|Conventions?|Architecture)[^\n]*\n((?:[-*]\s+[^\n]+\n?)+)`),
	regexp.MustCompile(`(?im)^##\s*(?:Guidelines|Rules|Standards)[^\n]*\n((?:[-*]\s+[^\n]+\n?)+)`),
}

// GuidelinesGenerator renders planning guidelines for injection into a
// plan-mode prompt, grounded on PlanningGuidelinesGenerator.
type GuidelinesGenerator struct {
	CollectionName string
	ProjectPath    string
	Config         GuidelinesConfig
	mcpPrefix      string
}

// NewGuidelinesGenerator builds a generator scoped to collectionName and
// projectPath (cwd if empty).
func NewGuidelinesGenerator(collectionName, projectPath string, config GuidelinesConfig) *GuidelinesGenerator {
	if projectPath == "" {
		if wd, err := os.Getwd(); err == nil {
			projectPath = wd
		}
	}
	return &GuidelinesGenerator{
		CollectionName: collectionName,
		ProjectPath:    projectPath,
		Config:         config,
		mcpPrefix:      fmt.Sprintf("mcp__%s-memory__", collectionName),
	}
}

// Generate produces the full guidelines document.
func (g *GuidelinesGenerator) Generate() Guidelines {
	sections := map[string]string{}
	var mcpCommands []string
	var order []string

	if g.Config.IncludeCodeReuseCheck {
		sections["code_reuse"] = fmt.Sprintf(codeReuseTemplate, g.mcpPrefix)
		order = append(order, "code_reuse")
		mcpCommands = append(mcpCommands,
			fmt.Sprintf(`%ssearch_similar("query")`, g.mcpPrefix),
			fmt.Sprintf(`%sread_graph(entity="Name", mode="relations")`, g.mcpPrefix),
		)
	}
	if g.Config.IncludeTestingRequirements {
		sections["testing"] = testingTemplate
		order = append(order, "testing")
	}
	if g.Config.IncludeDocumentationRequirements {
		sections["documentation"] = documentationTemplate
		order = append(order, "documentation")
	}

	patterns := g.loadProjectPatterns()
	if g.Config.IncludeArchitectureAlignment {
		sections["architecture"] = g.renderArchitectureSection(patterns)
		order = append(order, "architecture")
	}
	if g.Config.IncludePerformanceConsiderations {
		sections["performance"] = performanceTemplate
		order = append(order, "performance")
	}
	for i, custom := range g.Config.CustomGuidelines {
		key := fmt.Sprintf("custom_%d", i)
		sections[key] = custom
		order = append(order, key)
	}

	return Guidelines{
		FullText:        assembleFullText(sections, order),
		Sections:        sections,
		MCPCommands:     mcpCommands,
		ProjectPatterns: patterns,
	}
}

// GenerateCompact produces an abbreviated, low-latency guidelines string.
func (g *GuidelinesGenerator) GenerateCompact() string {
	return fmt.Sprintf(`[Planning Mode] Remember:
- Search before implementing: %ssearch_similar("feature")
- Use entity-specific read_graph: %sread_graph(entity="Name", mode="smart")
- Test code filtered by default (includeTests=true to include)
- Include test tasks for new code
- Include doc tasks for user-facing changes`, g.mcpPrefix, g.mcpPrefix)
}

func (g *GuidelinesGenerator) renderArchitectureSection(patterns []string) string {
	patternText := "- (No project patterns detected - check for CLAUDE.md)"
	if len(patterns) > 0 {
		lines := make([]string, len(patterns))
		for i, p := range patterns {
			lines[i] = "- " + p
		}
		patternText = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(architectureTemplate, patternText)
}

func (g *GuidelinesGenerator) loadProjectPatterns() []string {
	if g.Config.ProjectPatternsPath != "" {
		if patterns := loadPatternsFromFile(g.Config.ProjectPatternsPath); len(patterns) > 0 {
			return patterns
		}
	}
	candidates := []string{
		filepath.Join(g.ProjectPath, "CLAUDE.md"),
		filepath.Join(g.ProjectPath, ".claude", "CLAUDE.md"),
	}
	for _, path := range candidates {
		if patterns := loadPatternsFromFile(path); len(patterns) > 0 {
			return patterns
		}
	}
	return nil
}

func loadPatternsFromFile(path string) []string {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	key := patternCacheKey{path: path, mtime: info.ModTime().UnixNano()}

	patternCacheMu.Lock()
	if cached, ok := patternCache[key]; ok {
		patternCacheMu.Unlock()
		return cached
	}
	patternCacheMu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	patterns := extractPatterns(string(content))

	patternCacheMu.Lock()
	if len(patternCacheFIFO) >= maxPatternCacheSize {
		oldest := patternCacheFIFO[0]
		patternCacheFIFO = patternCacheFIFO[1:]
		delete(patternCache, oldest)
	}
	patternCache[key] = patterns
	patternCacheFIFO = append(patternCacheFIFO, key)
	patternCacheMu.Unlock()

	return patterns
}

func extractPatterns(content string) []string {
	var patterns []string
	for _, re := range patternSectionPatterns {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			if len(match) < 2 {
				continue
			}
			lines := strings.Split(strings.TrimSpace(match[1]), "\n")
			for i, line := range lines {
				if i >= 5 {
					break
				}
				cleaned := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*"))
				cleaned = strings.TrimSpace(cleaned)
				if len(cleaned) > 10 {
					patterns = append(patterns, cleaned)
				}
			}
		}
	}
	if len(patterns) > 10 {
		patterns = patterns[:10]
	}
	return patterns
}

func assembleFullText(sections map[string]string, order []string) string {
	lines := []string{
		"",
		"=== PLANNING QUALITY GUIDELINES ===",
		"",
		"When formulating this implementation plan, follow these guidelines:",
		"",
	}
	for _, key := range order {
		lines = append(lines, strings.TrimSpace(sections[key]), "")
	}
	lines = append(lines, "=== END PLANNING GUIDELINES ===", "")
	return strings.Join(lines, "\n")
}
