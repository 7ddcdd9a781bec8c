package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackSummary(t *testing.T) {
	out := FallbackSummary(analyticsForm(), analyticsResponses())

	assert.Contains(t, out, `Summary of ""`)
	assert.Contains(t, out, "Total responses: 5.")
	assert.Contains(t, out, "Form composition: 1 text, 1 select, 1 checkbox, 1 file.")
	assert.Contains(t, out, "Most engaged fields:\n- Color: 3 answers (60%)")
	assert.Contains(t, out, `Color: "Blue" (2 of 3)`)
	assert.NotContains(t, out, "Recommendations")
}

func TestFallbackSummary_NoResponses(t *testing.T) {
	out := FallbackSummary(Form{Title: "Empty"}, nil)
	assert.Contains(t, out, `Summary of "Empty"`)
	assert.Contains(t, out, "No responses have been collected yet.")
}

func TestFallbackAnalysis(t *testing.T) {
	out := FallbackAnalysis(analyticsForm(), analyticsResponses(), "  Which color wins?  ")

	assert.Contains(t, out, "Question: Which color wins?\n")
	assert.Contains(t, out, "AI analyst is unavailable")
	assert.Contains(t, out, "Recommendations:")
	assert.Contains(t, out, "Collect more responses")
	assert.Contains(t, out, "Many fields are left blank")

	plain := FallbackAnalysis(analyticsForm(), analyticsResponses(), "")
	assert.NotContains(t, plain, "Question:")
}
