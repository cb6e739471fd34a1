package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanternworks/lanternworks/store"
)

func testProject() *store.BookProject {
	return &store.BookProject{
		ID:          "p1",
		Title:       "The Lantern of the Harbor",
		SubjectName: "Grandma Rosa",
		TargetAge:   "5-8",
		ArtStyle:    "warm watercolor",
	}
}

func TestBuildStoryArchitect(t *testing.T) {
	t.Run("placeholders for missing inputs", func(t *testing.T) {
		p := BuildStoryArchitect(testProject())
		assert.Contains(t, p, `Book title: "The Lantern of the Harbor"`)
		assert.Contains(t, p, "Not provided, generate a compelling outline")
		assert.Contains(t, p, "Not provided, infer rich themes")
		assert.Contains(t, p, "6-8 chapters")
	})

	t.Run("provided inputs appear verbatim", func(t *testing.T) {
		project := testProject()
		project.AncestryData = "Rosa b. 1931, Palermo"
		project.OralHistory = "She carried a lantern to the docks every night."
		p := BuildStoryArchitect(project)
		assert.Contains(t, p, "Rosa b. 1931, Palermo")
		assert.Contains(t, p, "lantern to the docks")
		assert.NotContains(t, p, "Not provided")
	})
}

func TestBuildCharacterKeeper(t *testing.T) {
	project := testProject()
	item := &store.ChapterOutlineItem{
		Number:        2,
		Title:         "Crossing the Sea",
		Theme:         "Rosa leaves Palermo for America",
		KeyCharacters: []string{"Rosa", "Uncle Marco"},
	}

	p := BuildCharacterKeeper(project, 2, item)
	assert.Contains(t, p, "No characters established yet.")
	assert.Contains(t, p, `This chapter is about: "Rosa leaves Palermo for America"`)
	assert.Contains(t, p, "Rosa, Uncle Marco")
	assert.Contains(t, p, "relationship to Grandma Rosa")

	t.Run("nil outline item falls back to chapter number", func(t *testing.T) {
		p := BuildCharacterKeeper(project, 9, nil)
		assert.Contains(t, p, `This chapter is about: "Chapter 9"`)
		assert.Contains(t, p, "to be determined")
	})

	t.Run("existing guide carried forward", func(t *testing.T) {
		project := testProject()
		project.CharacterGuide = "Rosa: brave, dark curls"
		p := BuildCharacterKeeper(project, 3, nil)
		assert.Contains(t, p, "Rosa: brave, dark curls")
		assert.NotContains(t, p, "No characters established yet.")
	})
}

func TestBuildOralHistoryWeaver(t *testing.T) {
	project := testProject()
	project.OralHistory = "The lantern story."
	item := &store.ChapterOutlineItem{Number: 1, Title: "The Old Harbor", Theme: "Rosa's childhood by the water"}

	p := BuildOralHistoryWeaver(project, 1, item)
	assert.Contains(t, p, `Chapter 1: "The Old Harbor"`)
	assert.Contains(t, p, "The lantern story.")
	assert.Contains(t, p, "2-4 specific moments")

	t.Run("missing oral history asks for plausible memories", func(t *testing.T) {
		p := BuildOralHistoryWeaver(testProject(), 1, item)
		assert.Contains(t, p, "create plausible, warm family memories")
	})
}

func TestApprovedSummary(t *testing.T) {
	t.Run("no approved chapters", func(t *testing.T) {
		assert.Equal(t, "This is the first chapter.", ApprovedSummary(nil))
	})

	t.Run("excerpts are truncated", func(t *testing.T) {
		long := strings.Repeat("a", 400)
		summary := ApprovedSummary([]*store.BookChapter{
			{ChapterNumber: 1, Title: "The Old Harbor", Narrative: long},
			{ChapterNumber: 2, Title: "Crossing the Sea", Narrative: "short"},
		})
		assert.Contains(t, summary, "Chapter 1: The Old Harbor")
		assert.Contains(t, summary, "Chapter 2: Crossing the Sea")
		assert.Contains(t, summary, strings.Repeat("a", 250)+"...")
		assert.NotContains(t, summary, strings.Repeat("a", 300))
	})
}

func TestBuildNarrativeWriter(t *testing.T) {
	project := testProject()
	item := &store.ChapterOutlineItem{Number: 2, Title: "Crossing the Sea", Theme: "leaving home"}

	t.Run("feedback included verbatim", func(t *testing.T) {
		p := BuildNarrativeWriter(project, 2, item, "guide", "beats", "summary", "make it warmer and mention the lantern")
		assert.Contains(t, p, "REVISION NOTES")
		assert.Contains(t, p, "make it warmer and mention the lantern")
	})

	t.Run("no feedback means no revision block", func(t *testing.T) {
		p := BuildNarrativeWriter(project, 2, item, "guide", "beats", "This is the first chapter.", "")
		assert.NotContains(t, p, "REVISION NOTES")
		assert.Contains(t, p, "This is the first chapter.")
		assert.Contains(t, p, "approximately 350 words")
	})
}

func TestBuildArtDirector(t *testing.T) {
	project := testProject()

	t.Run("with previous illustrations", func(t *testing.T) {
		previous := PreviousIllustrations([]*store.BookChapter{
			{ChapterNumber: 1, IllustrationPrompt: "watercolor, girl on a dock"},
			{ChapterNumber: 2, IllustrationPrompt: ""},
		})
		assert.Equal(t, "Chapter 1: watercolor, girl on a dock", previous)

		p := BuildArtDirector(project, "the narrative", "guide", previous)
		assert.Contains(t, p, "maintain visual consistency")
		assert.Contains(t, p, "Chapter 1: watercolor, girl on a dock")
		assert.Contains(t, p, "Art style: warm watercolor")
		assert.Contains(t, p, "sceneRationale")
	})

	t.Run("first chapter omits consistency block", func(t *testing.T) {
		p := BuildArtDirector(project, "the narrative", "guide", "")
		assert.NotContains(t, p, "Previous chapter illustrations")
	})
}
