package store

// ChapterOutlineItem is one entry of a book's chapter plan. The outline is
// produced once by the story-architect agent and is immutable afterwards:
// later chapters may drift from their planned theme, but the plan itself
// never changes once chapter generation begins.
type ChapterOutlineItem struct {
	Number        int      `json:"number"`
	Title         string   `json:"title"`
	Theme         string   `json:"theme"`
	KeyCharacters []string `json:"keyCharacters"`
}

// BookProject is one illustrated children's book commissioned by a tenant.
// After creation only the outline and the character guide are mutated.
type BookProject struct {
	ID             string               `json:"id"`
	ClientID       string               `json:"clientId"`
	Title          string               `json:"title"`
	SubjectName    string               `json:"subjectName"`
	TargetAge      string               `json:"targetAge"`
	ArtStyle       string               `json:"artStyle"`
	AncestryData   string               `json:"ancestryData"`
	OralHistory    string               `json:"oralHistory"`
	ChapterOutline []ChapterOutlineItem `json:"chapterOutline"`
	CharacterGuide string               `json:"characterGuide"`
	CreatedTs      int64                `json:"createdTs"`
}

type FindBookProject struct {
	ID       *string
	ClientID *string
}

// UpdateBookProject carries the read-then-replace update for the two mutable
// fields. Nil fields are left untouched.
type UpdateBookProject struct {
	ID             string
	ChapterOutline *[]ChapterOutlineItem
	CharacterGuide *string
}

// BookChapterStatus is the human-approval lifecycle of a generated chapter.
type BookChapterStatus string

const (
	ChapterStatusDraft             BookChapterStatus = "draft"
	ChapterStatusApproved          BookChapterStatus = "approved"
	ChapterStatusRevisionRequested BookChapterStatus = "revision_requested"
)

// CanTransitionTo reports whether the status change is a legal lifecycle
// transition. Approved is terminal: regenerating an approved chapter is not
// supported, so no transition leaves it.
func (s BookChapterStatus) CanTransitionTo(next BookChapterStatus) bool {
	switch s {
	case ChapterStatusDraft:
		// draft -> draft covers regeneration of an unapproved chapter.
		return next == ChapterStatusDraft || next == ChapterStatusApproved || next == ChapterStatusRevisionRequested
	case ChapterStatusRevisionRequested:
		return next == ChapterStatusDraft
	case ChapterStatusApproved:
		return false
	}
	return false
}

// BookChapter is one generated chapter. Chapters are upserted by
// (project, chapter number): regeneration replaces content in place and
// resets status to draft.
type BookChapter struct {
	ID                 string            `json:"id"`
	ProjectID          string            `json:"projectId"`
	ChapterNumber      int               `json:"chapterNumber"`
	Title              string            `json:"title"`
	Narrative          string            `json:"narrative"`
	IllustrationPrompt string            `json:"illustrationPrompt"`
	ImageURL           string            `json:"imageUrl"`
	Status             BookChapterStatus `json:"status"`
	Feedback           string            `json:"feedback"`
	CreatedTs          int64             `json:"createdTs"`
	ApprovedTs         int64             `json:"approvedTs"`
}

type FindBookChapter struct {
	ID            *string
	ProjectID     *string
	ChapterNumber *int
	Status        *BookChapterStatus
}

type UpdateBookChapter struct {
	ID         string
	Status     *BookChapterStatus
	Feedback   *string
	ApprovedTs *int64
}
