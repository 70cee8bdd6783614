package coderules

import (
	"regexp"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
)

// retryCandidate is a network/external-call pattern that should be
// wrapped by a retry mechanism.
type retryCandidate struct {
	re          *regexp.Regexp
	description string
	confidence  float64
}

var retryCandidatesByLanguage = map[string][]retryCandidate{
	"python": {
		{regexp.MustCompile(`requests\.(get|post|put|delete|patch)\s*\(`), "HTTP request without retry logic", 0.75},
		{regexp.MustCompile(`httpx\.(get|post|put|delete|patch|Client)\s*\(`), "HTTP client call without retry logic", 0.70},
		{regexp.MustCompile(`urllib\.request\.urlopen\s*\(`), "urllib request without retry logic", 0.70},
		{regexp.MustCompile(`\.execute\s*\(`), "Database execute without retry logic", 0.60},
		{regexp.MustCompile(`\.query\s*\(`), "Database query without retry logic", 0.55},
		{regexp.MustCompile(`boto3\.client\s*\(`), "Cloud API call without retry logic", 0.65},
		{regexp.MustCompile(`\.send\s*\(`), "Messaging send without retry logic", 0.55},
	},
	"javascript": {
		{regexp.MustCompile(`fetch\s*\(`), "fetch call without retry logic", 0.70},
		{regexp.MustCompile(`axios\.(get|post|put|delete|patch)\s*\(`), "axios call without retry logic", 0.75},
		{regexp.MustCompile(`\.query\s*\(`), "database query without retry logic", 0.55},
		{regexp.MustCompile(`\.execute\s*\(`), "database execute without retry logic", 0.60},
		{regexp.MustCompile(`\.send\s*\(`), "messaging send without retry logic", 0.55},
	},
	"typescript": {
		{regexp.MustCompile(`fetch\s*\(`), "fetch call without retry logic", 0.70},
		{regexp.MustCompile(`axios\.(get|post|put|delete|patch)\s*\(`), "axios call without retry logic", 0.75},
		{regexp.MustCompile(`\.query\s*\(`), "database query without retry logic", 0.55},
		{regexp.MustCompile(`\.execute\s*\(`), "database execute without retry logic", 0.60},
		{regexp.MustCompile(`\.send\s*\(`), "messaging send without retry logic", 0.55},
	},
}

// retryIndicators are textual signals (anywhere in a ±N-line window or the
// whole file) that retry logic is already present nearby: decorator/library
// imports, manual attempt loops, and retry-suggestive naming.
var retryIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)@retry\b`),
	regexp.MustCompile(`(?i)@tenacity\.retry`),
	regexp.MustCompile(`(?i)@backoff\.`),
	regexp.MustCompile(`(?i)from\s+tenacity\s+import`),
	regexp.MustCompile(`(?i)from\s+backoff\s+import`),
	regexp.MustCompile(`(?i)import\s+tenacity`),
	regexp.MustCompile(`(?i)import\s+backoff`),
	regexp.MustCompile(`(?i)from\s+retrying\s+import`),
	regexp.MustCompile(`(?i)Retrying\(`),
	regexp.MustCompile(`(?i)retry_call\s*\(`),
	regexp.MustCompile(`(?i)p-retry`),
	regexp.MustCompile(`(?i)async-retry`),
	regexp.MustCompile(`(?i)axios-retry`),
	regexp.MustCompile(`(?i)retry\s*\(`),
	regexp.MustCompile(`(?i)withRetry\s*\(`),
	regexp.MustCompile(`(?i)retryable\s*\(`),
	regexp.MustCompile(`(?i)while.*retry`),
	regexp.MustCompile(`(?i)while.*attempt`),
	regexp.MustCompile(`(?i)for.*range.*try`),
	regexp.MustCompile(`(?i)for.*attempt`),
	regexp.MustCompile(`(?i)max_retries`),
	regexp.MustCompile(`(?i)maxRetries`),
	regexp.MustCompile(`(?i)retry_count`),
	regexp.MustCompile(`(?i)retryCount`),
	regexp.MustCompile(`(?i)attempts?\s*[<>=]`),
	regexp.MustCompile(`(?i)backoff`),
	regexp.MustCompile(`(?i)exponential`),
	regexp.MustCompile(`(?i)def\s+.*retry.*\(`),
	regexp.MustCompile(`(?i)function\s+.*retry.*\(`),
	regexp.MustCompile(`(?i)const\s+.*retry.*\s*=`),
	regexp.MustCompile(`(?i)async\s+function\s+.*retry`),
}

// retryImportIndicators is the first 8 entries of retryIndicators above —
// the import/decorator subset checked file-wide for a "file-level retry
// configuration" signal (original's RETRY_INDICATORS[:8]).
var retryImportIndicators = retryIndicators[:8]

var retryContextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)class.*Retry`),
	regexp.MustCompile(`(?i)class.*Client.*retry`),
	regexp.MustCompile(`(?i)with.*retry`),
	regexp.MustCompile(`(?i)@.*retry`),
	regexp.MustCompile(`(?i)retry_policy`),
	regexp.MustCompile(`(?i)retryPolicy`),
}

// MissingRetryRule is RESILIENCE.MISSING_RETRY (spec §4.3).
type MissingRetryRule struct{}

func (MissingRetryRule) RuleID() string                   { return "RESILIENCE.MISSING_RETRY" }
func (MissingRetryRule) Name() string                     { return "Missing Retry Logic Detection" }
func (MissingRetryRule) Category() string                 { return "resilience" }
func (MissingRetryRule) DefaultSeverity() findings.Severity { return findings.SeverityMedium }
func (MissingRetryRule) Triggers() []findings.Trigger {
	return []findings.Trigger{findings.TriggerOnWrite, findings.TriggerOnStop, findings.TriggerOnCommit}
}
func (MissingRetryRule) SupportedLanguages() []string { return []string{"python", "javascript", "typescript"} }
func (MissingRetryRule) IsFast() bool                 { return true }
func (MissingRetryRule) Description() string {
	return "Detects network operations and external calls without retry logic. Transient failures are common with external services, and retry mechanisms with backoff help improve reliability."
}

const retryContextWindow = 20

func (r MissingRetryRule) Check(ctx Context) []findings.Finding {
	candidates := retryCandidatesByLanguage[ctx.Language]
	if len(candidates) == 0 {
		return nil
	}

	lines := strings.Split(ctx.Content, "\n")
	fileLevelRetry := hasFileLevelRetry(ctx.Content)

	var out []findings.Finding
	for lineNum, line := range lines {
		if !ctx.InHunk(lineNum + 1) {
			continue
		}
		if isCommentLine(line, ctx.Language) {
			continue
		}

		for _, c := range candidates {
			if !c.re.MatchString(line) {
				continue
			}
			if fileLevelRetry || hasRetryNearby(lines, lineNum, retryContextWindow) {
				break
			}

			confidence := c.confidence
			if isTestFile(ctx.FilePath) {
				confidence *= 0.5
			}

			f := findings.NewFinding(r.RuleID(), r.DefaultSeverity(), c.description, ctx.FilePath, lineNum+1, lineNum+1, confidence)
			ln := lineNum + 1
			f.Evidence = []findings.Evidence{{
				Description: c.description,
				Line:        &ln,
				Snippet:     strings.TrimSpace(line),
			}}
			f.RemediationHints = retryRemediationHint(ctx.Language)
			out = append(out, f)
			break
		}
	}
	return out
}

func hasRetryNearby(lines []string, lineNum, window int) bool {
	start := max0(lineNum - window)
	end := min(lineNum+window, len(lines))
	context := strings.Join(lines[start:end], "\n")
	return containsAnyPattern(context, retryIndicators)
}

func hasFileLevelRetry(content string) bool {
	if containsAnyPattern(content, retryImportIndicators) {
		return true
	}
	return containsAnyPattern(content, retryContextPatterns)
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func retryRemediationHint(language string) []string {
	switch language {
	case "python":
		return []string{
			"Use tenacity: @retry(stop=stop_after_attempt(3), wait=wait_exponential())",
			"Use backoff: @backoff.on_exception(backoff.expo, Exception, max_tries=3)",
			"Implement manual retry: for attempt in range(3): try: ... except: time.sleep(2**attempt)",
			"Consider idempotency - retries may not be safe for all operations",
		}
	default:
		return []string{
			"Use a retry library (p-retry, async-retry, axios-retry)",
			"Implement manual retry with exponential backoff",
			"Consider idempotency - retries may not be safe for all operations",
		}
	}
}
