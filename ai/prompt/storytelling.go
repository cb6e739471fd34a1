package prompt

import (
	"fmt"
	"strings"

	"github.com/lanternworks/lanternworks/internal/strutil"
	"github.com/lanternworks/lanternworks/store"
)

// excerptRunes bounds each prior-chapter excerpt in continuity context.
const excerptRunes = 250

// BuildStoryArchitect assembles the one-shot outline planning prompt. It
// runs once per project, before any chapter exists.
func BuildStoryArchitect(project *store.BookProject) string {
	ancestry := project.AncestryData
	if ancestry == "" {
		ancestry = "Not provided, generate a compelling outline based on the subject name and context"
	}
	oralHistory := project.OralHistory
	if oralHistory == "" {
		oralHistory = "Not provided, infer rich themes from the family context"
	}

	return fmt.Sprintf(`You are the Story Architect for a children's genealogy book. Your job is to plan the full chapter outline for the entire book before a single word is written. This outline will guide every chapter that follows.

Book title: "%s"
Family subject: "%s"
Target age: %s
Art style: %s

Ancestry data:
%s

Oral history notes:
%s

Create an outline for 6-8 chapters. Each chapter should:
- Focus on a specific time period, place, or emotional theme in the family's story
- Build naturally from the previous chapter (beginning to middle to end arc)
- Be age-appropriate and emotionally resonant for children
- Draw on specific people, places, or events from the ancestry and oral history data
- Have 2-4 key characters who appear in that chapter

Return ONLY a valid JSON array (no markdown, no code fences):
[
  {
    "number": 1,
    "title": "Chapter title (evocative, short)",
    "theme": "One sentence describing what this chapter is about thematically and narratively",
    "keyCharacters": ["Name 1", "Name 2"]
  }
]`, project.Title, project.SubjectName, project.TargetAge, project.ArtStyle, ancestry, oralHistory)
}

// BuildCharacterKeeper assembles the character-guide maintenance prompt for
// one chapter. outlineItem may be nil when the chapter number falls outside
// the planned outline.
func BuildCharacterKeeper(project *store.BookProject, chapterNumber int, outlineItem *store.ChapterOutlineItem) string {
	guide := project.CharacterGuide
	if guide == "" {
		guide = "No characters established yet."
	}
	theme := fmt.Sprintf("Chapter %d", chapterNumber)
	keyCharacters := "to be determined"
	if outlineItem != nil {
		if outlineItem.Theme != "" {
			theme = outlineItem.Theme
		}
		if len(outlineItem.KeyCharacters) > 0 {
			keyCharacters = strings.Join(outlineItem.KeyCharacters, ", ")
		}
	}
	ancestry := project.AncestryData
	if ancestry == "" {
		ancestry = "Not provided"
	}

	return fmt.Sprintf(`You are the Character Keeper for a children's genealogy book. Maintain a living character guide that tracks all characters across chapters.

Current character guide:
%s

This chapter is about: "%s"
Key characters in this chapter: %s
Family subject: "%s"
Ancestry data: %s

Update the character guide to include any new characters or updated details. Keep it concise and organized by character name. For each character include: full name, approximate age/generation, relationship to %s, brief physical description, personality traits.

Return ONLY the updated character guide as plain text, no JSON, no markdown headers.`, guide, theme, keyCharacters, project.SubjectName, ancestry, project.SubjectName)
}

// BuildOralHistoryWeaver assembles the story-beat selection prompt for one
// chapter.
func BuildOralHistoryWeaver(project *store.BookProject, chapterNumber int, outlineItem *store.ChapterOutlineItem) string {
	title := fmt.Sprintf("Chapter %d", chapterNumber)
	theme := "family history"
	keyCharacters := "family members"
	if outlineItem != nil {
		if outlineItem.Title != "" {
			title = outlineItem.Title
		}
		if outlineItem.Theme != "" {
			theme = outlineItem.Theme
		}
		if len(outlineItem.KeyCharacters) > 0 {
			keyCharacters = strings.Join(outlineItem.KeyCharacters, ", ")
		}
	}
	oralHistory := project.OralHistory
	if oralHistory == "" {
		oralHistory = "No oral history provided, create plausible, warm family memories based on the theme"
	}
	ancestry := project.AncestryData
	if ancestry == "" {
		ancestry = "Not provided"
	}

	return fmt.Sprintf(`You are the Oral History Weaver for a children's genealogy book. Select and shape the most powerful oral history moments for this chapter.

Chapter %d: "%s"
Theme: "%s"
Key characters: %s
Family subject: "%s"

Full oral history notes:
%s

Ancestry data:
%s

Select 2-4 specific moments, memories, or stories that best illuminate this chapter's theme. Shape each into a vivid story beat that a child could understand and feel emotionally.

Return ONLY numbered story beats as plain text (1-2 sentences each). No JSON, no headers.`, chapterNumber, title, theme, keyCharacters, project.SubjectName, oralHistory, ancestry)
}

// ApprovedSummary renders prior approved chapters as continuity context.
// Excerpts are truncated rune-safe so long narratives cannot blow the
// prompt budget.
func ApprovedSummary(approved []*store.BookChapter) string {
	if len(approved) == 0 {
		return "This is the first chapter."
	}
	parts := make([]string, 0, len(approved))
	for _, ch := range approved {
		parts = append(parts, fmt.Sprintf("Chapter %d: %s\n%s", ch.ChapterNumber, ch.Title, strutil.Truncate(ch.Narrative, excerptRunes)))
	}
	return strings.Join(parts, "\n\n")
}

// BuildNarrativeWriter assembles the chapter-writing prompt. feedback is
// included verbatim as revision notes when present.
func BuildNarrativeWriter(project *store.BookProject, chapterNumber int, outlineItem *store.ChapterOutlineItem, characterGuide, storyBeats, approvedSummary, feedback string) string {
	title := fmt.Sprintf("Chapter %d", chapterNumber)
	theme := "family history"
	if outlineItem != nil {
		if outlineItem.Title != "" {
			title = outlineItem.Title
		}
		if outlineItem.Theme != "" {
			theme = outlineItem.Theme
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are the Narrative Writer for a children's genealogy book. Write a warm, age-appropriate chapter narrative.

Book title: "%s"
Family subject: "%s"
Target age: %s
Chapter %d: "%s"
Theme: "%s"

Character guide:
%s

Story beats to weave in:
%s

Previous chapters (for continuity):
%s
`, project.Title, project.SubjectName, project.TargetAge, chapterNumber, title, theme, characterGuide, storyBeats, approvedSummary)

	if feedback != "" {
		fmt.Fprintf(&b, "\nREVISION NOTES, apply these changes explicitly:\n%s\n", feedback)
	}

	b.WriteString(`
Write approximately 350 words. Use warm, conversational language appropriate for the target age. Bring characters to life with specific sensory details. Ground the story in the family's real history. End with a moment that connects past to present, something a child reading this book would remember.

Return ONLY the narrative text, no title, no chapter number, no headers.`)

	return b.String()
}

// PreviousIllustrations renders the illustration prompts of prior approved
// chapters for visual-consistency context. Empty when none carry one.
func PreviousIllustrations(approved []*store.BookChapter) string {
	parts := make([]string, 0, len(approved))
	for _, ch := range approved {
		if ch.IllustrationPrompt == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Chapter %d: %s", ch.ChapterNumber, ch.IllustrationPrompt))
	}
	return strings.Join(parts, "\n\n")
}

// BuildArtDirector assembles the scene-selection prompt that turns a
// finished narrative into one illustration prompt.
func BuildArtDirector(project *store.BookProject, narrative, characterGuide, previousIllustrations string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are the Art Director for a children's illustrated book. Select the single most emotionally resonant moment from this chapter and craft a perfect illustration prompt.

Chapter narrative:
%s

Art style: %s
Target age: %s
Character guide: %s
`, narrative, project.ArtStyle, project.TargetAge, characterGuide)

	if previousIllustrations != "" {
		fmt.Fprintf(&b, "\nPrevious chapter illustrations (maintain visual consistency, same character appearances, color palette, and style language):\n%s\n", previousIllustrations)
	}

	fmt.Fprintf(&b, `
Identify THE one best moment to illustrate, the one that would move a child most deeply and work best as a full-page illustration. Then write an optimized prompt for that exact moment.

Return ONLY a valid JSON object (no markdown, no code fences):
{
  "sceneRationale": "One sentence explaining why this moment was chosen",
  "illustrationPrompt": "children's book illustration, %s, [vivid scene description with specific character details, colors, setting], soft warm lighting, high detail, storybook quality, no text"
}`, project.ArtStyle)

	return b.String()
}
