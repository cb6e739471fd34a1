package storytelling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lanternworks/lanternworks/ai/gateway"
	"github.com/lanternworks/lanternworks/ai/jsonx"
	"github.com/lanternworks/lanternworks/ai/metrics"
	"github.com/lanternworks/lanternworks/ai/prompt"
	"github.com/lanternworks/lanternworks/internal/blob"
	"github.com/lanternworks/lanternworks/store"
)

const metricsPipeline = metrics.PipelineStorytelling

// ErrChapterApproved is returned when a caller asks to regenerate a
// chapter the client has already approved.
var ErrChapterApproved = errors.New("chapter is approved and cannot be regenerated")

// Per-agent completion budgets.
const (
	characterKeeperMaxTokens = 800
	weaverMaxTokens          = 600
	narrativeMaxTokens       = 1000
	artDirectorMaxTokens     = 500
)

// ProjectStore is the persistence surface the engine needs. *store.Store
// satisfies it; tests substitute an in-memory fake.
type ProjectStore interface {
	GetBookProject(ctx context.Context, projectID string) (*store.BookProject, error)
	ListBookChapters(ctx context.Context, find *store.FindBookChapter) ([]*store.BookChapter, error)
	UpdateBookProjectGuide(ctx context.Context, projectID string, outline []store.ChapterOutlineItem, characterGuide string) error
	UpsertBookChapter(ctx context.Context, upsert *store.BookChapter) (*store.BookChapter, error)
}

// Engine runs the book agents against the model gateway and persists
// results. images and blobs may be nil, in which case chapters are
// generated without illustrations.
type Engine struct {
	llm      gateway.Service
	images   gateway.ImageService
	blobs    *blob.Store
	store    ProjectStore
	recorder *metrics.Recorder
}

// NewEngine creates a storytelling engine. recorder may be nil.
func NewEngine(llm gateway.Service, images gateway.ImageService, blobs *blob.Store, s ProjectStore, recorder *metrics.Recorder) *Engine {
	return &Engine{llm: llm, images: images, blobs: blobs, store: s, recorder: recorder}
}

// ChapterRequest identifies the chapter to generate. Feedback, when set,
// is passed verbatim to the narrative writer as revision notes.
type ChapterRequest struct {
	ProjectID     string
	ChapterNumber int
	Feedback      string
}

// ChapterResult is the generated chapter as returned to the caller. The
// persisted row always matches it.
type ChapterResult struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Narrative          string `json:"narrative"`
	IllustrationPrompt string `json:"illustrationPrompt"`
	SceneRationale     string `json:"sceneRationale"`
	ImageURL           string `json:"imageUrl"`
}

// GenerateChapter runs the per-chapter agent sequence: character keeper
// and oral history weaver concurrently, then the narrative writer, then
// the art director, then image generation, then persistence. The chapter
// lands as a draft regardless of its previous status; approved chapters
// cannot be regenerated.
func (e *Engine) GenerateChapter(ctx context.Context, req *ChapterRequest) (*ChapterResult, error) {
	if req.ProjectID == "" || req.ChapterNumber < 1 {
		return nil, errors.New("project id and a positive chapter number are required")
	}

	startTime := time.Now()

	project, err := e.store.GetBookProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.Wrapf(store.ErrNotFound, "project %s", req.ProjectID)
	}

	allChapters, err := e.store.ListBookChapters(ctx, &store.FindBookChapter{ProjectID: &req.ProjectID})
	if err != nil {
		return nil, err
	}

	approved := make([]*store.BookChapter, 0, len(allChapters))
	for _, ch := range allChapters {
		if ch.Status == store.ChapterStatusApproved {
			if ch.ChapterNumber == req.ChapterNumber {
				return nil, errors.Wrapf(ErrChapterApproved, "chapter %d", req.ChapterNumber)
			}
			approved = append(approved, ch)
		}
	}

	var outlineItem *store.ChapterOutlineItem
	if req.ChapterNumber <= len(project.ChapterOutline) {
		outlineItem = &project.ChapterOutline[req.ChapterNumber-1]
	}

	// Character keeper and oral history weaver have no data dependency on
	// each other, both feed the narrative writer.
	var characterGuide, storyBeats string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, stats, err := e.llm.Complete(gctx, prompt.BuildCharacterKeeper(project, req.ChapterNumber, outlineItem), characterKeeperMaxTokens)
		e.recorder.ObserveModelCall(metricsPipeline, "character_keeper", stats, err)
		if err != nil {
			return errors.Wrap(err, "character keeper failed")
		}
		characterGuide = text
		return nil
	})
	g.Go(func() error {
		text, stats, err := e.llm.Complete(gctx, prompt.BuildOralHistoryWeaver(project, req.ChapterNumber, outlineItem), weaverMaxTokens)
		e.recorder.ObserveModelCall(metricsPipeline, "oral_history_weaver", stats, err)
		if err != nil {
			return errors.Wrap(err, "oral history weaver failed")
		}
		storyBeats = text
		return nil
	})
	if err := g.Wait(); err != nil {
		e.recorder.ObservePipelineRun(metricsPipeline, false, time.Since(startTime))
		return nil, err
	}
	if strings.TrimSpace(characterGuide) == "" {
		// An empty keeper response must not wipe the guide built up by
		// earlier chapters.
		characterGuide = project.CharacterGuide
	}

	narrativePrompt := prompt.BuildNarrativeWriter(project, req.ChapterNumber, outlineItem,
		characterGuide, storyBeats, prompt.ApprovedSummary(approved), req.Feedback)
	narrative, stats, err := e.llm.Complete(ctx, narrativePrompt, narrativeMaxTokens)
	e.recorder.ObserveModelCall(metricsPipeline, "narrative_writer", stats, err)
	if err != nil {
		e.recorder.ObservePipelineRun(metricsPipeline, false, time.Since(startTime))
		return nil, errors.Wrap(err, "narrative writer failed")
	}

	artPrompt := prompt.BuildArtDirector(project, narrative, characterGuide, prompt.PreviousIllustrations(approved))
	artText, stats, err := e.llm.Complete(ctx, artPrompt, artDirectorMaxTokens)
	e.recorder.ObserveModelCall(metricsPipeline, "art_director", stats, err)
	if err != nil {
		e.recorder.ObservePipelineRun(metricsPipeline, false, time.Since(startTime))
		return nil, errors.Wrap(err, "art director failed")
	}

	var artData struct {
		SceneRationale     string `json:"sceneRationale"`
		IllustrationPrompt string `json:"illustrationPrompt"`
	}
	illustrationPrompt, sceneRationale := "", ""
	if raw, err := jsonx.Decode(artText, &artData); err != nil {
		// The raw text is usually a usable prompt even when the JSON wrapper
		// is broken.
		slog.Warn("art director output not parseable, using raw text as prompt", "project", project.ID)
		illustrationPrompt = raw
	} else {
		illustrationPrompt = artData.IllustrationPrompt
		sceneRationale = artData.SceneRationale
	}

	imageURL := e.generateImage(ctx, project.ID, req.ChapterNumber, illustrationPrompt)

	title := ""
	if outlineItem != nil {
		title = outlineItem.Title
	}
	if title == "" {
		title = chapterFallbackTitle(req.ChapterNumber)
	}

	chapter := &store.BookChapter{
		ProjectID:          req.ProjectID,
		ChapterNumber:      req.ChapterNumber,
		Title:              title,
		Narrative:          narrative,
		IllustrationPrompt: illustrationPrompt,
		ImageURL:           imageURL,
		Status:             store.ChapterStatusDraft,
	}

	// The guide update and the chapter write are independent, both must
	// land before the run counts as complete.
	pg, pctx := errgroup.WithContext(ctx)
	pg.Go(func() error {
		return e.store.UpdateBookProjectGuide(pctx, project.ID, project.ChapterOutline, characterGuide)
	})
	pg.Go(func() error {
		saved, err := e.store.UpsertBookChapter(pctx, chapter)
		if err != nil {
			return err
		}
		chapter = saved
		return nil
	})
	if err := pg.Wait(); err != nil {
		e.recorder.ObservePipelineRun(metricsPipeline, false, time.Since(startTime))
		return nil, errors.Wrap(err, "failed to persist chapter")
	}

	slog.Info("chapter generated",
		"project", project.ID,
		"chapter", req.ChapterNumber,
		"has_image", imageURL != "",
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	e.recorder.ObservePipelineRun(metricsPipeline, true, time.Since(startTime))

	return &ChapterResult{
		ID:                 chapter.ID,
		Title:              title,
		Narrative:          narrative,
		IllustrationPrompt: illustrationPrompt,
		SceneRationale:     sceneRationale,
		ImageURL:           imageURL,
	}, nil
}

// generateImage produces and re-hosts the chapter illustration. Image
// failures never fail the chapter: the narrative is the deliverable, the
// illustration is best effort.
func (e *Engine) generateImage(ctx context.Context, projectID string, chapterNumber int, illustrationPrompt string) string {
	if e.images == nil || illustrationPrompt == "" {
		return ""
	}

	img, err := e.images.Generate(ctx, illustrationPrompt)
	if err != nil {
		slog.Error("image generation failed, chapter continues without illustration",
			"project", projectID, "chapter", chapterNumber, "error", err)
		return ""
	}

	name := blob.ChapterImageName(projectID, chapterNumber)
	switch {
	case img.Data != nil && e.blobs != nil:
		url, err := e.blobs.Save(name+blob.ExtensionFor(img.ContentType), img.Data)
		if err != nil {
			slog.Error("failed to store generated image", "error", err)
			return ""
		}
		return url
	case img.URL != "" && e.blobs != nil:
		return e.blobs.Rehost(ctx, img.URL, name)
	case img.URL != "":
		return img.URL
	}
	return ""
}

func chapterFallbackTitle(n int) string {
	return fmt.Sprintf("Chapter %d", n)
}
