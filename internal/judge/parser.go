package judge

import (
	"encoding/json"
	"strings"

	"github.com/ocx/judgeflow/internal/store"
)

// Reasoning is capped so a rambling model cannot bloat the table.
const maxReasoningLen = 1000

type verdictSchema struct {
	Verdict   string `json:"verdict"`
	Reasoning string `json:"reasoning"`
}

func validVerdict(v string) bool {
	switch v {
	case store.VerdictPass, store.VerdictFail, store.VerdictInconclusive:
		return true
	}
	return false
}

// ParseVerdict normalizes raw provider output into (verdict, reasoning).
//
// The happy path is the JSON object the prompt demands. Anything else falls
// back to a lexical read of the raw text: an unambiguous "pass" or "fail"
// counts, everything else is inconclusive, and the raw text becomes the
// reasoning. Parse failures never propagate.
func ParseVerdict(raw string) (string, string) {
	var parsed verdictSchema
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && validVerdict(parsed.Verdict) {
		return parsed.Verdict, strings.TrimSpace(parsed.Reasoning)
	}

	low := strings.ToLower(raw)
	hasPass := strings.Contains(low, "pass")
	hasFail := strings.Contains(low, "fail")

	verdict := store.VerdictInconclusive
	switch {
	case hasPass && !hasFail:
		verdict = store.VerdictPass
	case hasFail && !hasPass:
		verdict = store.VerdictFail
	}
	return verdict, truncate(strings.TrimSpace(raw), maxReasoningLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
