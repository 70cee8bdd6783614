package planmode

import (
	"container/list"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const maxEntityCacheSize = 128

var (
	camelCasePattern    = regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)+)\b`)
	snakeCasePattern    = regexp.MustCompile(`\b([a-z]+(?:_[a-z]+)+)\b`)
	quotedTermsPattern  = regexp.MustCompile(`["']([^"']+)["']`)
	technicalTermsPattern = regexp.MustCompile(`(?i)\b(api|auth(?:entication)?|database|service|controller|handler|manager|provider|factory|repository|client|validator|parser|serializer|middleware|hook|plugin|component|module|endpoint|route|model|schema|config)\b`)
)

// entityCache is a small LRU cache over extracted-entity lists, keyed by
// raw prompt text (ported from the original's lru_cache(maxsize=128)).
type entityCache struct {
	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

type entityCacheEntry struct {
	key      string
	entities []string
}

var extractionCache = &entityCache{
	order: list.New(),
	items: map[string]*list.Element{},
}

func (c *entityCache) get(prompt string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[prompt]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entityCacheEntry).entities, true
}

func (c *entityCache) put(prompt string, entities []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[prompt]; ok {
		el.Value.(*entityCacheEntry).entities = entities
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&entityCacheEntry{key: prompt, entities: entities})
	c.items[prompt] = el
	if c.order.Len() > maxEntityCacheSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entityCacheEntry).key)
		}
	}
}

// HintsConfig controls which exploration hints are generated (spec §4.6
// "Exploration-hints generator").
type HintsConfig struct {
	Enabled                  bool
	MaxEntityHints           int
	IncludeDuplicateCheck    bool
	IncludeTestDiscovery     bool
	IncludeDocDiscovery      bool
	IncludeArchitectureHints bool
}

// DefaultHintsConfig enables every standard hint with up to 3 entity hints.
func DefaultHintsConfig() HintsConfig {
	return HintsConfig{
		Enabled:                  true,
		MaxEntityHints:           3,
		IncludeDuplicateCheck:    true,
		IncludeTestDiscovery:     true,
		IncludeDocDiscovery:      true,
		IncludeArchitectureHints: true,
	}
}

// Hints is the generated exploration-hints output.
type Hints struct {
	Hints             []string
	ExtractedEntities []string
	MCPCommands       []string
}

// FormatForInjection renders hints as an injectable text block, or an
// empty string when there are no hints to show.
func (h Hints) FormatForInjection() string {
	if len(h.Hints) == 0 {
		return ""
	}
	lines := []string{
		"",
		"=== EXPLORATION HINTS ===",
		"",
		"Consider running these queries to inform your plan:",
		"",
	}
	for _, hint := range h.Hints {
		lines = append(lines, hint, "")
	}
	lines = append(lines, "=== END EXPLORATION HINTS ===")
	return strings.Join(lines, "\n")
}

// HintsGenerator extracts likely code entities from a prompt and proposes
// targeted MCP exploration commands, grounded on ExplorationHintsGenerator.
type HintsGenerator struct {
	CollectionName string
	Config         HintsConfig
	mcpPrefix      string
}

// NewHintsGenerator builds a generator scoped to collectionName.
func NewHintsGenerator(collectionName string, config HintsConfig) *HintsGenerator {
	return &HintsGenerator{
		CollectionName: collectionName,
		Config:         config,
		mcpPrefix:      fmt.Sprintf("mcp__%s-memory__", collectionName),
	}
}

// Generate produces exploration hints for prompt.
func (g *HintsGenerator) Generate(prompt string) Hints {
	entities := extractEntities(prompt)

	var hintLines, commands []string

	if g.Config.IncludeDuplicateCheck && len(entities) > 0 {
		hint, cmd := g.duplicateHint(entities[0])
		hintLines = append(hintLines, hint)
		commands = append(commands, cmd)
	}
	if g.Config.IncludeTestDiscovery {
		hint, cmd := g.testHint(entities)
		hintLines = append(hintLines, hint)
		commands = append(commands, cmd)
	}
	if g.Config.IncludeDocDiscovery {
		hint, cmd := g.docHint()
		hintLines = append(hintLines, hint)
		commands = append(commands, cmd)
	}
	if g.Config.IncludeArchitectureHints {
		limit := g.Config.MaxEntityHints
		if limit > len(entities) {
			limit = len(entities)
		}
		for _, entity := range entities[:limit] {
			hint, cmd := g.architectureHint(entity)
			hintLines = append(hintLines, hint)
			commands = append(commands, cmd)
		}
	}

	return Hints{
		Hints:             hintLines,
		ExtractedEntities: entities,
		MCPCommands:       commands,
	}
}

func (g *HintsGenerator) duplicateHint(entity string) (string, string) {
	cmd := fmt.Sprintf(`%ssearch_similar("%s", entityTypes=["function", "class"])`, g.mcpPrefix, entity)
	return "## Duplicate Check\n" + cmd, cmd
}

func (g *HintsGenerator) testHint(entities []string) (string, string) {
	query := "test"
	if len(entities) > 0 {
		query = entities[0]
	}
	cmd := fmt.Sprintf(`%ssearch_similar("%s test", entityTypes=["file", "function"])`, g.mcpPrefix, query)
	return "## Test Discovery\n" + cmd, cmd
}

func (g *HintsGenerator) docHint() (string, string) {
	cmd := fmt.Sprintf(`%ssearch_similar("documentation README", entityTypes=["documentation", "file"])`, g.mcpPrefix)
	return "## Documentation\n" + cmd, cmd
}

func (g *HintsGenerator) architectureHint(entity string) (string, string) {
	cmd := fmt.Sprintf(`%sread_graph(entity="%s", mode="smart")`, g.mcpPrefix, entity)
	return fmt.Sprintf("## %s Analysis\n%s", entity, cmd), cmd
}

func extractEntities(prompt string) []string {
	if cached, ok := extractionCache.get(prompt); ok {
		return cached
	}

	seen := map[string]bool{}
	var ordered []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		ordered = append(ordered, s)
	}

	for _, m := range camelCasePattern.FindAllString(prompt, -1) {
		add(m)
	}
	for _, m := range snakeCasePattern.FindAllString(prompt, -1) {
		add(m)
	}
	for _, m := range quotedTermsPattern.FindAllStringSubmatch(prompt, -1) {
		if len(m) > 1 && len(m[1]) > 2 {
			add(m[1])
		}
	}
	for _, m := range technicalTermsPattern.FindAllString(prompt, -1) {
		add(strings.ToLower(m))
	}

	if len(ordered) > 10 {
		ordered = ordered[:10]
	}

	extractionCache.put(prompt, ordered)
	return ordered
}
