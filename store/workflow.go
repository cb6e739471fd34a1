package store

// WorkflowRunStatus is the lifecycle status of a briefing run.
type WorkflowRunStatus string

const (
	WorkflowRunPending   WorkflowRunStatus = "pending"
	WorkflowRunCompleted WorkflowRunStatus = "completed"
	WorkflowRunFailed    WorkflowRunStatus = "failed"
)

// WorkflowRun is one invocation of the meeting-prep briefing pipeline.
type WorkflowRun struct {
	ID          string
	ClientID    string
	ContactID   string
	Context     string
	Status      WorkflowRunStatus
	CreatedTs   int64
	CompletedTs int64
}

type FindWorkflowRun struct {
	ID       *string
	ClientID *string
	Status   *WorkflowRunStatus
}

// KeyStats is the four-field headline block of a briefing.
type KeyStats struct {
	AUM       string `json:"aum"`
	Tenure    string `json:"tenure"`
	YTDReturn string `json:"ytdReturn"`
	KeyAsk    string `json:"keyAsk"`
}

// BriefingSections is the fixed five-section body of a briefing.
// All five keys are always present; sections the model did not supply are
// empty lists, never nil.
type BriefingSections struct {
	PortfolioSummary     []string `json:"portfolioSummary"`
	RelationshipHistory  []string `json:"relationshipHistory"`
	AccountStatus        []string `json:"accountStatus"`
	RecentCommunications []string `json:"recentCommunications"`
	MeetingAgenda        []string `json:"meetingAgenda"`
}

// Normalize replaces nil section slices with empty ones so that callers and
// serialized output always see all five sections.
func (s *BriefingSections) Normalize() {
	if s.PortfolioSummary == nil {
		s.PortfolioSummary = []string{}
	}
	if s.RelationshipHistory == nil {
		s.RelationshipHistory = []string{}
	}
	if s.AccountStatus == nil {
		s.AccountStatus = []string{}
	}
	if s.RecentCommunications == nil {
		s.RecentCommunications = []string{}
	}
	if s.MeetingAgenda == nil {
		s.MeetingAgenda = []string{}
	}
}

// BriefingOutput is the persisted result of a completed briefing run.
type BriefingOutput struct {
	ID        string
	RunID     string
	KeyStats  KeyStats
	Sections  BriefingSections
	CreatedTs int64
}

type FindBriefingOutput struct {
	ID    *string
	RunID *string
}

// WorkflowOutputView is the joined run+contact+output shape the portal
// renders: one row per completed run.
type WorkflowOutputView struct {
	ID         string           `json:"id"`
	ClientName string           `json:"clientName"`
	Company    string           `json:"company"`
	Context    string           `json:"context"`
	CreatedTs  int64            `json:"createdTs"`
	KeyStats   KeyStats         `json:"keyStats"`
	Sections   BriefingSections `json:"sections"`
}
