package pipeline

import (
	"sort"
	"strings"

	"github.com/lintforge/lintforge/pkg/diagnostic"
	"github.com/lintforge/lintforge/pkg/runconfig"
)

// IssueTag categorizes a diagnostic for semantic-overlap dedupe rules
// (spec §4.8 Deduplicate).
const (
	TagComplexity    = "COMPLEXITY"
	TagMagicNumber   = "MAGIC_NUMBER"
	TagTyping        = "TYPING"
	TagDocstring     = "DOCSTRING"
	TagEncapsulation = "ENCAPSULATION"
)

// equivalenceClasses lists the small, fixed sets of cross-tool
// equivalent codes named in spec §4.8 ("a small, fixed set, e.g.
// {override, w0221}, {f821, reportUndefinedVariable}").
var equivalenceClasses = [][]string{
	{"override", "w0221"},
	{"f821", "reportundefinedvariable"},
	{"arg-type", "reportargumenttype"},
	{"no-untyped-def", "reportmissingparametertype"},
}

var equivalenceIndex = buildEquivalenceIndex()

func buildEquivalenceIndex() map[string]int {
	idx := make(map[string]int)
	for classID, codes := range equivalenceClasses {
		for _, code := range codes {
			idx[code] = classID
		}
	}
	return idx
}

func crossToolEquivalent(a, b string) bool {
	na, nb := normalizeCode(a), normalizeCode(b)
	if na == "" || nb == "" {
		return false
	}
	ca, oka := equivalenceIndex[na]
	cb, okb := equivalenceIndex[nb]
	return oka && okb && ca == cb
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Summary reports the outcome of a dedupe pass, for diagnostics/logging.
type Summary struct {
	TotalIn  int `json:"total_in"`
	TotalOut int `json:"total_out"`
	Removed  int `json:"removed"`
}

// Dedupe collapses cross-tool duplicate diagnostics (spec §4.8
// Deduplicate). Scope is always restricted to the same file (plus the
// same function when both diagnostics set one) — see DESIGN.md for why
// the config's same-file-only toggle is not consulted for loosening this.
func Dedupe(diags []diagnostic.Diagnostic, cfg runconfig.DedupeConfig) ([]diagnostic.Diagnostic, Summary) {
	kept := make([]diagnostic.Diagnostic, 0, len(diags))
	removed := make([]bool, len(diags))

	for i := range diags {
		if removed[i] {
			continue
		}
		for j := i + 1; j < len(diags); j++ {
			if removed[j] {
				continue
			}
			if !inScope(diags[i], diags[j]) {
				continue
			}
			if !isDuplicate(diags[i], diags[j], cfg) {
				continue
			}
			winner, loserIdx := resolvePreference(diags[i], i, diags[j], j, cfg)
			diags[i] = winner
			removed[loserIdx] = true
		}
	}

	for i, d := range diags {
		if !removed[i] {
			kept = append(kept, d)
		}
	}

	return kept, Summary{TotalIn: len(diags), TotalOut: len(kept), Removed: len(diags) - len(kept)}
}

func inScope(a, b diagnostic.Diagnostic) bool {
	if a.File != b.File {
		return false
	}
	if a.Function != "" && b.Function != "" && a.Function != b.Function {
		return false
	}
	return true
}

func isDuplicate(a, b diagnostic.Diagnostic, cfg runconfig.DedupeConfig) bool {
	if codesEqualCaseInsensitive(a.Code, b.Code) && messagesOverlap(a.Message, b.Message) && lineDistance(a.Line, b.Line) <= lineFuzz(cfg) {
		return true
	}
	if crossToolEquivalent(a.Code, b.Code) && a.Function == b.Function && a.Line == b.Line {
		return true
	}
	tagA, tagB := deriveTag(a.Code, a.Message), deriveTag(b.Code, b.Message)
	if tagA != "" && tagA == tagB && a.Function != "" && a.Function == b.Function {
		return semanticOverlap(tagA, a, b)
	}
	return false
}

func lineFuzz(cfg runconfig.DedupeConfig) int {
	if cfg.LineFuzz < 0 {
		return 0
	}
	return cfg.LineFuzz
}

func codesEqualCaseInsensitive(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return normalizeCode(a) == normalizeCode(b)
}

func lineDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// messagesOverlap reports textual equality or token-level overlap.
func messagesOverlap(a, b string) bool {
	na, nb := strings.TrimSpace(strings.ToLower(a)), strings.TrimSpace(strings.ToLower(b))
	if na == nb {
		return true
	}
	ta, tb := signatureTokens(a), signatureTokens(b)
	return sharedToken(ta, tb)
}

func semanticOverlap(tag string, a, b diagnostic.Diagnostic) bool {
	switch tag {
	case TagTyping:
		return a.Line == b.Line && sharedToken(signatureTokens(a.Message), signatureTokens(b.Message))
	case TagComplexity:
		if sharedToken(filterTokens(signatureTokens(a.Message), complexityTokens), filterTokens(signatureTokens(b.Message), complexityTokens)) {
			return true
		}
		return equalSignature(a.Message, b.Message)
	default:
		return equalSignature(a.Message, b.Message)
	}
}

var complexityTokens = map[string]bool{"complex": true, "complexity": true, "statement": true, "branch": true}

func filterTokens(tokens []string, allow map[string]bool) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if allow[t] {
			out = append(out, t)
		}
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "is": true, "a": true, "an": true, "to": true,
	"of": true, "in": true, "for": true, "with": true, "that": true, "this": true,
	"are": true, "was": true, "not": true, "but": true, "has": true, "have": true,
}

// signatureTokens extracts the lowercase, stopword-filtered identifier-ish
// words from a message, used both for overlap checks and signature
// equality.
func signatureTokens(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func sharedToken(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		if set[t] {
			return true
		}
	}
	return false
}

// equalSignature compares the full token sets for exact equality.
func equalSignature(a, b string) bool {
	ta, tb := signatureTokens(a), signatureTokens(b)
	if len(ta) != len(tb) {
		return false
	}
	sort.Strings(ta)
	sort.Strings(tb)
	for i := range ta {
		if ta[i] != tb[i] {
			return false
		}
	}
	return true
}

// deriveTag classifies a diagnostic into one of the five issue tags by
// keyword heuristics over its message (spec §4.8: "derived from code and
// message-signature tokens produced by the annotation provider").
func deriveTag(code, message string) string {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "too complex", "complexity", "too many branches", "too many statements", "cyclomatic"):
		return TagComplexity
	case containsAny(lower, "magic number", "magic value"):
		return TagMagicNumber
	case containsAny(lower, "incompatible type", "expected type", "argument type", "type mismatch", "untyped"):
		return TagTyping
	case containsAny(lower, "docstring"):
		return TagDocstring
	case containsAny(lower, "private member", "protected member", "protected access", "encapsulation"):
		return TagEncapsulation
	default:
		return ""
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// resolvePreference decides which of two duplicate diagnostics survives,
// returning the kept one and the index of the one to drop (spec §4.8
// Preference). Pair-specific overrides are checked first.
func resolvePreference(a diagnostic.Diagnostic, ai int, b diagnostic.Diagnostic, bi int, cfg runconfig.DedupeConfig) (diagnostic.Diagnostic, int) {
	if winnerTool, ok := pairOverride(a, b); ok {
		if a.Tool == winnerTool {
			return a, bi
		}
		return b, ai
	}

	switch cfg.By {
	case runconfig.DedupeSeverity:
		if b.Severity.Rank() > a.Severity.Rank() {
			return b, ai
		}
		return a, bi
	case runconfig.DedupePrefer:
		if ia, ib := preferenceIndex(a.Tool, cfg.Prefer), preferenceIndex(b.Tool, cfg.Prefer); ib < ia {
			return b, ai
		}
		return a, bi
	default: // DedupeFirst or unset
		return a, bi
	}
}

// pairOverride names tool-pair-specific preference overrides (spec §4.8:
// "e.g. prefer pyright on {arg-type, reportArgumentType}").
func pairOverride(a, b diagnostic.Diagnostic) (winnerTool string, ok bool) {
	pair := [2]string{normalizeCode(a.Code), normalizeCode(b.Code)}
	reversed := [2]string{pair[1], pair[0]}
	overrides := map[[2]string]string{
		{"arg-type", "reportargumenttype"}: "pyright",
		{"reportargumenttype", "arg-type"}: "pyright",
	}
	if winner, ok := overrides[pair]; ok {
		return winner, true
	}
	if winner, ok := overrides[reversed]; ok {
		return winner, true
	}
	return "", false
}

func preferenceIndex(tool string, prefer []string) int {
	for i, t := range prefer {
		if t == tool {
			return i
		}
	}
	return len(prefer)
}
