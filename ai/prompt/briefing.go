// Package prompt builds the instruction text for every model call the
// pipelines make. Builders are pure string assembly so tests can assert
// on exact content without touching a model.
package prompt

import (
	"fmt"
	"strings"
)

// Source-specific extraction instructions. Each teaches the model the JSON
// shape for one upstream system's export; unknown sources fall back to a
// generic fact list.
var extractionPrompts = map[string]string{
	"Ridgeline": `Extract structured facts from this Ridgeline portfolio report. Return ONLY a valid JSON object (no markdown, no code fences) with these fields. Use null for any field not found in the data.

{
  "totalAUM": number or null,
  "cashPosition": number or null,
  "unrealizedGainLoss": number or null,
  "ytdReturn": string or null (e.g. "+2.14%"),
  "benchmarkReturn": string or null,
  "excessReturn": string or null,
  "allocations": [{ "assetClass": string, "marketValue": number, "weight": string, "target": string, "variance": string }],
  "topHoldings": [{ "security": string, "ticker": string, "marketValue": number, "weight": string, "esgRating": string }],
  "esgScore": string or null,
  "carbonIntensity": string or null,
  "fossilFuelExposure": string or null,
  "recentTransactions": [{ "date": string, "action": string, "security": string, "amount": number, "notes": string }],
  "notes": [string]
}

Extract numbers exactly as they appear. Do not round or estimate.`,

	"Salesforce": `Extract structured facts from this Salesforce CRM export. Return ONLY a valid JSON object (no markdown, no code fences) with these fields. Use null for any field not found in the data.

{
  "clientSince": string or null (e.g. "March 2018"),
  "aumTier": string or null,
  "serviceModel": string or null,
  "relatedContacts": [{ "name": string, "relationship": string, "details": string }],
  "timeline": [{ "date": string, "event": string }],
  "recentActivity": [{ "date": string, "type": string, "summary": string }],
  "openTasks": [{ "task": string, "assignee": string, "due": string, "notes": string }],
  "preferences": [string]
}

Extract all facts exactly as stated. Do not infer or add information.`,

	"Fidelity": `Extract structured facts from this Fidelity custodian export. Return ONLY a valid JSON object (no markdown, no code fences) with these fields. Use null for any field not found in the data.

{
  "accountNumber": string or null,
  "accountType": string or null,
  "cashBalance": number or null,
  "pendingDebits": number or null,
  "pendingCredits": number or null,
  "pendingTransactions": [{ "date": string, "type": string, "amount": number, "description": string }],
  "recentTransactions": [{ "date": string, "type": string, "amount": number, "description": string }],
  "complianceItems": [string],
  "authorizedContacts": [string]
}

Extract numbers exactly as they appear. Do not round or estimate.`,

	"Outlook": `Extract structured facts from this Outlook email/calendar export. Return ONLY a valid JSON object (no markdown, no code fences) with these fields. Use null for any field not found in the data.

{
  "emailThreads": [{ "subject": string, "date": string, "from": string, "to": string, "summary": string, "actionItems": [string] }],
  "upcomingCalendar": [{ "date": string, "event": string, "details": string }]
}

Summarize each email thread concisely. Extract all action items mentioned.`,
}

const defaultExtractionPrompt = `Extract all structured facts from this data export. Return ONLY a valid JSON object (no markdown, no code fences) with these fields:

{
  "facts": [{ "category": string, "key": string, "value": string }],
  "summary": string
}

Extract facts exactly as stated. Do not infer or add information.`

// BuildExtraction assembles the prompt that turns one source's raw export
// into structured facts.
func BuildExtraction(source, content string) string {
	p, ok := extractionPrompts[source]
	if !ok {
		p = defaultExtractionPrompt
	}
	return fmt.Sprintf("%s\n\n═══ RAW DATA FROM %s ═══\n%s", p, strings.ToUpper(source), content)
}

// Extraction is one source's structured-fact result, passed on to synthesis.
type Extraction struct {
	Source    string
	Extracted string // JSON text of the extracted facts
}

// SynthesisParams carries the meeting metadata for the briefing prompt.
type SynthesisParams struct {
	ClientName     string
	Company        string
	Title          string
	MeetingContext string
}

// BuildSynthesis assembles the second-phase prompt that merges all
// extractions into the five-section briefing. With no extractions the model
// is asked to produce realistic demo output instead.
func BuildSynthesis(params SynthesisParams, extractions []Extraction) string {
	hasData := len(extractions) > 0

	var b strings.Builder
	b.WriteString("You are an AI assistant embedded in a wealth management firm's workflow system. You are preparing a client meeting briefing for a portfolio manager at an RIA (Registered Investment Advisor) that provides bespoke, high-touch sustainable investing services.\n\n")
	b.WriteString("Client: " + params.ClientName + "\n")
	if params.Company != "" {
		b.WriteString("Entity: " + params.Company + "\n")
	}
	if params.Title != "" {
		b.WriteString("Title/Role: " + params.Title + "\n")
	}
	if params.MeetingContext != "" {
		b.WriteString("Meeting context: " + params.MeetingContext + "\n")
	}

	if hasData {
		b.WriteString("\nThe following STRUCTURED FACTS have been extracted from the firm's systems. Use these facts as the PRIMARY source for your briefing. Cite specific numbers, dates, and names exactly as they appear in the extracted data. Do NOT fabricate any data points.\n")
		for _, e := range extractions {
			fmt.Fprintf(&b, "\n═══ EXTRACTED FACTS FROM %s ═══\n%s", strings.ToUpper(e.Source), e.Extracted)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("\nNo data exports were attached. Generate realistic demo data that shows what the output would look like when connected to real systems. Use specific dollar amounts, dates, and percentages to make it feel real.\n")
	}

	b.WriteString(`
Respond with ONLY a valid JSON object (no markdown, no code fences) with a "keyStats" object and five sections. Each section should have 3-5 concise, specific bullet points:

{
  "keyStats": {
    "aum": "Total AUM as a formatted string, e.g. '$12.8M'",
    "tenure": "How long they've been a client, e.g. '7 years'",
    "ytdReturn": "YTD portfolio return, e.g. '+2.14%'",
    "keyAsk": "The single most important thing the client wants to discuss, one short phrase"
  },
  "portfolioSummary": ["bullet 1", "bullet 2", "..."],
  "relationshipHistory": ["bullet 1", "bullet 2", "..."],
  "accountStatus": ["bullet 1", "bullet 2", "..."],
  "recentCommunications": ["bullet 1", "bullet 2", "..."],
  "meetingAgenda": ["bullet 1", "bullet 2", "..."]
}

For portfolioSummary (source: Ridgeline): current AUM, asset allocation breakdown, YTD performance vs benchmark, notable positions, ESG/sustainability metrics.
For relationshipHistory (source: Salesforce): client tenure, key milestones, family/entity structure, open cases or pending requests, last meeting summary.
For accountStatus (source: Fidelity Custodian): recent transfers or cash movements, pending transactions, compliance flags or required actions, account types.
For recentCommunications (source: Outlook): last 3-5 interactions (emails, calls), outstanding requests or follow-ups, tone of recent communications.
For meetingAgenda (synthesized from all sources): recommended talking points, questions to ask, concerns to address proactively, action items to propose.

Be concise and professional. Each bullet should be one clear sentence.`)
	if hasData {
		b.WriteString(" Stick strictly to the extracted facts, do not fabricate information.")
	}

	return b.String()
}
