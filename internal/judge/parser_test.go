package judge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdictJSON(t *testing.T) {
	verdict, reasoning := ParseVerdict(`{"verdict":"pass","reasoning":"  looks correct  "}`)
	assert.Equal(t, "pass", verdict)
	assert.Equal(t, "looks correct", reasoning)

	verdict, reasoning = ParseVerdict(`{"verdict":"inconclusive"}`)
	assert.Equal(t, "inconclusive", verdict)
	assert.Equal(t, "", reasoning)
}

func TestParseVerdictInvalidJSONVerdictFallsBack(t *testing.T) {
	// Valid JSON with an out-of-schema verdict goes through the lexical path.
	verdict, _ := ParseVerdict(`{"verdict":"maybe","reasoning":"shrug"}`)
	assert.Equal(t, "inconclusive", verdict)
}

func TestParseVerdictLexicalFallback(t *testing.T) {
	verdict, reasoning := ParseVerdict("I think this should PASS, well done")
	assert.Equal(t, "pass", verdict)
	assert.Equal(t, "I think this should PASS, well done", reasoning)

	verdict, _ = ParseVerdict("this is a clear failure")
	assert.Equal(t, "fail", verdict)
}

func TestParseVerdictBothWordsIsInconclusive(t *testing.T) {
	verdict, _ := ParseVerdict("it could pass or it could fail")
	assert.Equal(t, "inconclusive", verdict)
}

func TestParseVerdictNeitherWordIsInconclusive(t *testing.T) {
	verdict, reasoning := ParseVerdict("   no idea   ")
	assert.Equal(t, "inconclusive", verdict)
	assert.Equal(t, "no idea", reasoning)
}

func TestParseVerdictTruncatesFallbackReasoning(t *testing.T) {
	raw := strings.Repeat("x", 5000)
	verdict, reasoning := ParseVerdict(raw)
	assert.Equal(t, "inconclusive", verdict)
	assert.Len(t, reasoning, 1000)
}
