package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtraction(t *testing.T) {
	t.Run("known source uses its own instructions", func(t *testing.T) {
		p := BuildExtraction("Ridgeline", "TICKER,VALUE\nVTI,100")
		assert.Contains(t, p, "Ridgeline portfolio report")
		assert.Contains(t, p, "═══ RAW DATA FROM RIDGELINE ═══")
		assert.Contains(t, p, "TICKER,VALUE\nVTI,100")
	})

	t.Run("unknown source falls back to generic instructions", func(t *testing.T) {
		p := BuildExtraction("Quicken", "some export")
		assert.Contains(t, p, `"facts"`)
		assert.Contains(t, p, "═══ RAW DATA FROM QUICKEN ═══")
		assert.NotContains(t, p, "portfolio report")
	})
}

func TestBuildSynthesis(t *testing.T) {
	params := SynthesisParams{
		ClientName:     "Eleanor Whitfield",
		Company:        "Whitfield Family Trust",
		Title:          "Trustee",
		MeetingContext: "Quarterly review",
	}

	t.Run("with extracted data", func(t *testing.T) {
		p := BuildSynthesis(params, []Extraction{
			{Source: "Ridgeline", Extracted: `{"totalAUM": 12800000}`},
			{Source: "Outlook", Extracted: `{"emailThreads": []}`},
		})

		assert.Contains(t, p, "Client: Eleanor Whitfield")
		assert.Contains(t, p, "Entity: Whitfield Family Trust")
		assert.Contains(t, p, "Title/Role: Trustee")
		assert.Contains(t, p, "Meeting context: Quarterly review")
		assert.Contains(t, p, "═══ EXTRACTED FACTS FROM RIDGELINE ═══")
		assert.Contains(t, p, "═══ EXTRACTED FACTS FROM OUTLOOK ═══")
		assert.Contains(t, p, `{"totalAUM": 12800000}`)
		assert.Contains(t, p, "Do NOT fabricate")
		assert.NotContains(t, p, "No data exports were attached")

		// Extraction order is preserved in the prompt.
		assert.Less(t, strings.Index(p, "RIDGELINE"), strings.Index(p, "OUTLOOK"))
	})

	t.Run("without data asks for demo output", func(t *testing.T) {
		p := BuildSynthesis(SynthesisParams{ClientName: "Eleanor Whitfield"}, nil)
		assert.Contains(t, p, "No data exports were attached")
		assert.NotContains(t, p, "EXTRACTED FACTS")
		assert.NotContains(t, p, "Entity:")
		assert.NotContains(t, p, "Title/Role:")
	})

	t.Run("always demands the five sections", func(t *testing.T) {
		p := BuildSynthesis(params, nil)
		for _, section := range []string{"portfolioSummary", "relationshipHistory", "accountStatus", "recentCommunications", "meetingAgenda", "keyStats"} {
			assert.Contains(t, p, section)
		}
	})
}
