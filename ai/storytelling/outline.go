// Package storytelling runs the illustrated-book agents: the one-shot
// story architect that plans a project's outline, and the per-chapter
// generation sequence.
package storytelling

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/lanternworks/lanternworks/ai/jsonx"
	"github.com/lanternworks/lanternworks/ai/prompt"
	"github.com/lanternworks/lanternworks/store"
)

const outlineMaxTokens = 1500

// GenerateOutline runs the story architect once for a project and returns
// the planned chapter list. The model's outline is accepted as-is except
// for numbering, which is rewritten to be contiguous from one; a length
// outside the requested 6-8 range is logged but not rejected.
func (e *Engine) GenerateOutline(ctx context.Context, project *store.BookProject) ([]store.ChapterOutlineItem, error) {
	text, stats, err := e.llm.Complete(ctx, prompt.BuildStoryArchitect(project), outlineMaxTokens)
	e.recorder.ObserveModelCall(metricsPipeline, "story_architect", stats, err)
	if err != nil {
		return nil, errors.Wrap(err, "story architect failed")
	}

	var outline []store.ChapterOutlineItem
	if _, err := jsonx.Decode(text, &outline); err != nil {
		return nil, errors.Wrap(err, "failed to parse chapter outline")
	}
	if len(outline) == 0 {
		return nil, errors.New("story architect returned an empty outline")
	}

	for i := range outline {
		outline[i].Number = i + 1
	}
	if len(outline) < 6 || len(outline) > 8 {
		slog.Warn("outline length outside requested range", "project", project.ID, "chapters", len(outline))
	}

	return outline, nil
}
