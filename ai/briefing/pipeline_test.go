package briefing

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternworks/lanternworks/ai/gateway"
)

// mockGateway routes each prompt to a canned response chosen by substring.
type mockGateway struct {
	mu        sync.Mutex
	responses map[string]string // prompt substring -> response
	errors    map[string]error
	calls     []string
}

func (m *mockGateway) Complete(_ context.Context, prompt string, _ int) (string, *gateway.CallStats, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()
	for key, err := range m.errors {
		if strings.Contains(prompt, key) {
			return "", nil, err
		}
	}
	for key, resp := range m.responses {
		if strings.Contains(prompt, key) {
			return resp, &gateway.CallStats{TotalTokens: 10}, nil
		}
	}
	return "", nil, assert.AnError
}

func (m *mockGateway) promptsContaining(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

const validBriefing = `{
  "keyStats": {"aum": "$12.8M", "tenure": "7 years", "ytdReturn": "+2.14%", "keyAsk": "ESG reallocation"},
  "portfolioSummary": ["AUM is $12.8M"],
  "relationshipHistory": ["Client since 2018"],
  "accountStatus": ["No pending items"],
  "recentCommunications": ["Emailed about ESG"],
  "meetingAgenda": ["Review allocation"]
}`

func TestRunWithAttachments(t *testing.T) {
	mock := &mockGateway{responses: map[string]string{
		"RAW DATA FROM RIDGELINE":  `{"totalAUM": 12800000}`,
		"RAW DATA FROM SALESFORCE": `{"clientSince": "March 2018"}`,
		"EXTRACTED FACTS":          validBriefing,
	}}
	p := NewPipeline(mock, nil)

	result, err := p.Run(context.Background(), &Request{
		ClientName: "Eleanor Whitfield",
		Attachments: []Attachment{
			{Source: "Ridgeline", Content: "csv data"},
			{Source: "Salesforce", Content: "crm data"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "$12.8M", result.KeyStats.AUM)
	assert.Equal(t, "ESG reallocation", result.KeyStats.KeyAsk)
	assert.Equal(t, []string{"AUM is $12.8M"}, result.Sections.PortfolioSummary)

	// One extraction call per attachment plus one synthesis call.
	assert.Equal(t, 1, mock.promptsContaining("RAW DATA FROM RIDGELINE"))
	assert.Equal(t, 1, mock.promptsContaining("RAW DATA FROM SALESFORCE"))
	assert.Equal(t, 1, mock.promptsContaining("EXTRACTED FACTS FROM RIDGELINE"))
}

func TestRunWithoutAttachmentsSkipsExtraction(t *testing.T) {
	mock := &mockGateway{responses: map[string]string{
		"No data exports were attached": validBriefing,
	}}
	p := NewPipeline(mock, nil)

	result, err := p.Run(context.Background(), &Request{ClientName: "Eleanor Whitfield"})
	require.NoError(t, err)
	assert.Equal(t, "7 years", result.KeyStats.Tenure)
	assert.Len(t, mock.calls, 1)
}

func TestRunUnparseableExtractionFallsBack(t *testing.T) {
	mock := &mockGateway{responses: map[string]string{
		"RAW DATA FROM RIDGELINE": "I could not produce JSON, sorry.",
		"EXTRACTED FACTS":         validBriefing,
	}}
	p := NewPipeline(mock, nil)

	_, err := p.Run(context.Background(), &Request{
		ClientName:  "Eleanor Whitfield",
		Attachments: []Attachment{{Source: "Ridgeline", Content: "csv data"}},
	})
	require.NoError(t, err)

	// Synthesis received the raw content tagged as a parse failure.
	var synthesis string
	for _, c := range mock.calls {
		if strings.Contains(c, "EXTRACTED FACTS") {
			synthesis = c
		}
	}
	assert.Contains(t, synthesis, `"parseError":true`)
	assert.Contains(t, synthesis, `"rawContent":"csv data"`)
}

func TestRunExtractionTransportFailureIsFatal(t *testing.T) {
	mock := &mockGateway{
		errors:    map[string]error{"RAW DATA FROM OUTLOOK": assert.AnError},
		responses: map[string]string{"RAW DATA FROM RIDGELINE": `{"totalAUM": 1}`},
	}
	p := NewPipeline(mock, nil)

	_, err := p.Run(context.Background(), &Request{
		ClientName: "Eleanor Whitfield",
		Attachments: []Attachment{
			{Source: "Ridgeline", Content: "csv"},
			{Source: "Outlook", Content: "mail"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction phase failed")
}

func TestRunUnparseableSynthesisIsFatal(t *testing.T) {
	mock := &mockGateway{responses: map[string]string{
		"No data exports were attached": "plain prose, not a briefing",
	}}
	p := NewPipeline(mock, nil)

	_, err := p.Run(context.Background(), &Request{ClientName: "Eleanor Whitfield"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse synthesis output")
}

func TestRunMissingClientName(t *testing.T) {
	p := NewPipeline(&mockGateway{}, nil)
	_, err := p.Run(context.Background(), &Request{})
	require.Error(t, err)
}

func TestRunNormalizesMissingSections(t *testing.T) {
	mock := &mockGateway{responses: map[string]string{
		"No data exports were attached": `{"keyStats": {"aum": "$1M"}, "portfolioSummary": ["a"]}`,
	}}
	p := NewPipeline(mock, nil)

	result, err := p.Run(context.Background(), &Request{ClientName: "Eleanor Whitfield"})
	require.NoError(t, err)
	assert.NotNil(t, result.Sections.MeetingAgenda)
	assert.Empty(t, result.Sections.MeetingAgenda)
	assert.NotNil(t, result.Sections.AccountStatus)
}
