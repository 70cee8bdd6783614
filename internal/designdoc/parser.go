package designdoc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

type docTypePattern struct {
	re        *regexp.Regexp
	matchType string // "filename" or "content"
}

// docTypePatterns mirrors the original's DOC_TYPE_PATTERNS table: for each
// kind, a list of (pattern, match-type) checks tried in order.
var docTypePatterns = map[Kind][]docTypePattern{
	KindPRD: {
		{regexp.MustCompile(`(?i)product\s+requirements?\s+document`), "content"},
		{regexp.MustCompile(`(?i)^prd[_-]`), "filename"},
		{regexp.MustCompile(`(?i)(?:^|/)prd\.`), "filename"},
		{regexp.MustCompile(`(?i)requirements\s+specification`), "content"},
		{regexp.MustCompile(`(?i)product\s+specification`), "content"},
	},
	KindTDD: {
		{regexp.MustCompile(`(?i)technical\s+design\s+document`), "content"},
		{regexp.MustCompile(`(?i)^tdd[_-]`), "filename"},
		{regexp.MustCompile(`(?i)(?:^|/)tdd\.`), "filename"},
		{regexp.MustCompile(`(?i)system\s+design`), "content"},
		{regexp.MustCompile(`(?i)technical\s+specification`), "content"},
	},
	KindADR: {
		{regexp.MustCompile(`(?i)architecture\s+decision\s+record`), "content"},
		{regexp.MustCompile(`(?i)^adr[_-]\d+`), "filename"},
		{regexp.MustCompile(`(?i)(?:^|/)adr[_-]`), "filename"},
		{regexp.MustCompile(`(?i)decision:\s*\w+`), "content"},
		{regexp.MustCompile(`(?i)status:\s*(?:accepted|proposed|deprecated|superseded)`), "content"},
	},
	KindSpec: {
		{regexp.MustCompile(`(?i)specification`), "content"},
		{regexp.MustCompile(`(?i)^spec[_-]`), "filename"},
		{regexp.MustCompile(`(?i)(?:^|/)spec\.`), "filename"},
		{regexp.MustCompile(`(?i)functional\s+requirements`), "content"},
	},
}

// docTypeOrder fixes iteration order to match the original's dict
// insertion order (prd, tdd, adr, spec), since map iteration in Go is
// randomized and detection is first-match.
var docTypeOrder = []Kind{KindPRD, KindTDD, KindADR, KindSpec}

// requirementPatterns mirrors REQUIREMENT_PATTERNS: RFC-2119 bullets,
// bracketed requirement IDs, and numbered normative statements.
var requirementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\n)\s*[-*]\s*(?:The\s+system\s+)?(?i:MUST|SHALL|SHOULD|MAY)\s+(.+?)(?:\n|$)`),
	regexp.MustCompile(`\[REQ-\d+\]\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?:^|\n)\s*\d+\.\s*(?:The\s+system\s+)?(?i:must|shall|should|may)\s+(.+?)(?:\n|$)`),
}

var mustWord = regexp.MustCompile(`(?i)\bMUST\b`)
var shouldWord = regexp.MustCompile(`(?i)\bSHOULD\b`)
var mayWord = regexp.MustCompile(`(?i)\bMAY\b`)

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
var titlePattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// MaxSectionDepth is the original's default max_section_depth; headings
// deeper than this are folded into the enclosing section's content.
const MaxSectionDepth = 3

// CanParse reports whether path looks like a design document: a markdown
// file whose name matches one of the filename-match patterns (spec §4.5
// "recognises structured design documents"). Content-only matches are not
// sufficient here, matching the original's selective can_parse.
func CanParse(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".md" {
		return false
	}
	filename := strings.ToLower(filepath.Base(path))
	for _, kind := range docTypeOrder {
		for _, p := range docTypePatterns[kind] {
			if p.matchType == "filename" && p.re.MatchString(filename) {
				return true
			}
		}
	}
	return false
}

// Parse extracts entities, relations, and chunks from a design document's
// content. path is used for naming and chunk-id derivation only; Parse does
// not perform file I/O itself (spec's collaborator boundary keeps file
// reading at the caller).
func Parse(path, content string) Result {
	result := Result{}

	kind, ok := detectDocType(path, content)
	if !ok {
		// Not a recognized design-doc type: no entities are produced here;
		// the caller falls back to generic markdown handling.
		return result
	}

	docEntity := createDocEntity(path, content, kind)
	result.Entities = append(result.Entities, docEntity)

	sections := extractSections(content, path, kind)
	for _, sec := range sections {
		result.Entities = append(result.Entities, sec.entity)
		result.Relations = append(result.Relations, ContainsRelation(docEntity.Name, sec.entity.Name))
		result.Chunks = append(result.Chunks, createSectionChunk(path, sec.entity, sec.content, sec.startLine))
	}

	requirements := extractRequirements(content, path, kind)
	for _, req := range requirements {
		result.Entities = append(result.Entities, req.entity)
		parentName := req.parentSection
		if parentName == "" {
			parentName = docEntity.Name
		}
		result.Relations = append(result.Relations, ContainsRelation(parentName, req.entity.Name))
	}

	docContent := content
	if len(docContent) > 10000 {
		docContent = docContent[:10000]
	}
	result.Chunks = append(result.Chunks, Chunk{
		ID:         chunkID(path, docEntity.Name, "implementation"),
		EntityName: docEntity.Name,
		ChunkKind:  "implementation",
		Content:    docContent,
		Metadata: map[string]any{
			"entity_type":       string(kind),
			"file_path":         path,
			"doc_type":          string(kind),
			"section_count":     len(sections),
			"requirement_count": len(requirements),
		},
	})

	return result
}

func detectDocType(path, content string) (Kind, bool) {
	filename := strings.ToLower(filepath.Base(path))
	contentLower := strings.ToLower(content)

	for _, kind := range docTypeOrder {
		for _, p := range docTypePatterns[kind] {
			switch p.matchType {
			case "filename":
				if p.re.MatchString(filename) {
					return kind, true
				}
			case "content":
				if p.re.MatchString(contentLower) {
					return kind, true
				}
			}
		}
	}
	return "", false
}

func createDocEntity(path, content string, kind Kind) Entity {
	title := filepath.Base(path)
	if m := titlePattern.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	sectionCount := 0
	for _, line := range strings.Split(content, "\n") {
		if headingPattern.MatchString(line) {
			sectionCount++
		}
	}

	reqCount := 0
	for _, p := range requirementPatterns {
		reqCount += len(p.FindAllString(content, -1))
	}

	name := fmt.Sprintf("%s: %s", strings.ToUpper(string(kind)), title)
	return Entity{
		Name: name,
		Kind: EntityKindDocument,
		Observations: []string{
			fmt.Sprintf("%s: %s", strings.ToUpper(string(kind)), title),
			fmt.Sprintf("Design document type: %s", kind),
			fmt.Sprintf("Sections: %d", sectionCount),
			fmt.Sprintf("Requirements detected: %d", reqCount),
			fmt.Sprintf("File: %s", filepath.Base(path)),
		},
		FilePath:   path,
		LineNumber: 1,
		Metadata: map[string]any{
			"type":              string(kind),
			"title":             title,
			"section_count":     sectionCount,
			"requirement_count": reqCount,
		},
	}
}

type section struct {
	entity    Entity
	content   string
	startLine int
}

type openSection struct {
	level     int
	title     string
	startLine int
}

func extractSections(content, path string, kind Kind) []section {
	var sections []section
	lines := strings.Split(content, "\n")

	var current *openSection
	var buf []string

	flush := func() {
		if current == nil {
			return
		}
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if body == "" {
			return
		}
		entity := createSectionEntity(*current, body, path, kind)
		sections = append(sections, section{entity: entity, content: body, startLine: current.startLine})
	}

	for i, line := range lines {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			level := len(m[1])
			title := strings.TrimSpace(m[2])
			if level <= MaxSectionDepth {
				current = &openSection{level: level, title: title, startLine: i + 1}
				buf = nil
			} else if current != nil {
				buf = append(buf, line)
			}
			continue
		}
		if current != nil {
			buf = append(buf, line)
		}
	}
	flush()

	return sections
}

func createSectionEntity(sec openSection, content, path string, kind Kind) Entity {
	name := fmt.Sprintf("Section: %s", sec.title)

	reqCount := 0
	for _, p := range requirementPatterns {
		reqCount += len(p.FindAllString(content, -1))
	}

	preview := content
	if len(preview) > 150 {
		preview = preview[:150] + "..."
	}

	observations := []string{
		fmt.Sprintf("Section: %s", sec.title),
		fmt.Sprintf("Heading level: %d", sec.level),
		fmt.Sprintf("From %s document", strings.ToUpper(string(kind))),
		preview,
	}
	if reqCount > 0 {
		observations = append(observations, fmt.Sprintf("Contains %d requirements", reqCount))
	}

	return Entity{
		Name:         name,
		Kind:         EntityKindSection,
		Observations: observations,
		FilePath:     path,
		LineNumber:   sec.startLine,
		Metadata: map[string]any{
			"type":              "section",
			"doc_type":          string(kind),
			"heading_level":     sec.level,
			"requirement_count": reqCount,
		},
	}
}

type requirement struct {
	entity        Entity
	parentSection string
}

func extractRequirements(content, path string, kind Kind) []requirement {
	var out []requirement
	lines := strings.Split(content, "\n")

	currentSection := ""
	sectionHeading := regexp.MustCompile(`^#{1,3}\s+(.+)$`)
	counter := 0

	for i, line := range lines {
		if m := sectionHeading.FindStringSubmatch(line); m != nil {
			currentSection = fmt.Sprintf("Section: %s", strings.TrimSpace(m[1]))
			continue
		}

		for _, p := range requirementPatterns {
			for _, m := range p.FindAllStringSubmatch(line, -1) {
				counter++
				reqText := m[0]
				if len(m) > 1 && m[1] != "" {
					reqText = m[1]
				}
				reqText = strings.TrimSpace(reqText)

				reqType := RequirementGeneral
				switch {
				case mustWord.MatchString(line):
					reqType = RequirementMandatory
				case shouldWord.MatchString(line):
					reqType = RequirementRecommended
				case mayWord.MatchString(line):
					reqType = RequirementOptional
				}

				label := reqText
				if len(label) > 50 {
					label = label[:50]
				}
				entity := Entity{
					Name: fmt.Sprintf("REQ-%03d: %s", counter, label),
					Kind: EntityKindRequirement,
					Observations: []string{
						fmt.Sprintf("Requirement: %s", reqText),
						fmt.Sprintf("Type: %s", reqType),
						fmt.Sprintf("From %s document", strings.ToUpper(string(kind))),
						fmt.Sprintf("Source section: %s", sectionOrRoot(currentSection)),
					},
					FilePath:   path,
					LineNumber: i + 1,
					Metadata: map[string]any{
						"type":              "requirement",
						"requirement_type":  string(reqType),
						"doc_type":          string(kind),
						"full_text":         reqText,
						"parent_section":    currentSection,
					},
				}
				out = append(out, requirement{entity: entity, parentSection: currentSection})
			}
		}
	}

	return out
}

func sectionOrRoot(section string) string {
	if section == "" {
		return "Document root"
	}
	return section
}

func createSectionChunk(path string, entity Entity, content string, startLine int) Chunk {
	return Chunk{
		ID:         chunkID(path, entity.Name, "implementation"),
		EntityName: entity.Name,
		ChunkKind:  "implementation",
		Content:    content,
		Metadata: map[string]any{
			"entity_type":    "section",
			"file_path":      path,
			"start_line":     startLine,
			"content_length": len(content),
		},
	}
}

// chunkID derives a deterministic id from (file, entity name, chunk kind)
// via a truncated SHA-256 hash (spec §9 redesign flag: "document the
// algorithm used"; SPEC_FULL.md Open Question 1: 12 hex chars, stable
// across platforms since it hashes UTF-8 bytes, not machine-native ints).
func chunkID(path, entityName, chunkKind string) string {
	hashInput := strings.Join([]string{path, entityName, chunkKind}, "|")
	sum := sha256.Sum256([]byte(hashInput))
	suffix := hex.EncodeToString(sum[:])[:12]
	return path + "::" + entityName + "::" + chunkKind + "::" + suffix
}
