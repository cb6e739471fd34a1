package storytelling

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternworks/lanternworks/ai/gateway"
	"github.com/lanternworks/lanternworks/store"
)

// scriptedGateway answers each agent prompt by recognizing its role line
// and records the order in which agents were invoked.
type scriptedGateway struct {
	mu      sync.Mutex
	order   []string
	outputs map[string]string // agent -> response override
	fail    map[string]bool
}

func agentFor(prompt string) string {
	switch {
	case strings.Contains(prompt, "Story Architect"):
		return "architect"
	case strings.Contains(prompt, "Character Keeper"):
		return "keeper"
	case strings.Contains(prompt, "Oral History Weaver"):
		return "weaver"
	case strings.Contains(prompt, "Narrative Writer"):
		return "narrative"
	case strings.Contains(prompt, "Art Director"):
		return "art"
	}
	return "unknown"
}

func (g *scriptedGateway) Complete(_ context.Context, prompt string, _ int) (string, *gateway.CallStats, error) {
	agent := agentFor(prompt)
	g.mu.Lock()
	g.order = append(g.order, agent)
	g.mu.Unlock()

	if g.fail[agent] {
		return "", nil, assert.AnError
	}
	if out, ok := g.outputs[agent]; ok {
		return out, &gateway.CallStats{TotalTokens: 5}, nil
	}

	switch agent {
	case "keeper":
		return "Rosa: brave, dark curls", &gateway.CallStats{}, nil
	case "weaver":
		return "1. Rosa lights the lantern.", &gateway.CallStats{}, nil
	case "narrative":
		return "Once upon a time, Rosa lit the lantern.", &gateway.CallStats{}, nil
	case "art":
		return `{"sceneRationale": "the lantern moment", "illustrationPrompt": "watercolor, Rosa with lantern"}`, &gateway.CallStats{}, nil
	}
	return "", nil, assert.AnError
}

func (g *scriptedGateway) prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

// fakeProjectStore is an in-memory ProjectStore.
type fakeProjectStore struct {
	mu       sync.Mutex
	project  *store.BookProject
	chapters map[int]*store.BookChapter
	guide    string
}

func newFakeProjectStore(project *store.BookProject) *fakeProjectStore {
	return &fakeProjectStore{project: project, chapters: map[int]*store.BookChapter{}}
}

func (f *fakeProjectStore) GetBookProject(_ context.Context, projectID string) (*store.BookProject, error) {
	// Unknown ids yield (nil, nil), matching the store facade.
	if f.project == nil || f.project.ID != projectID {
		return nil, nil
	}
	return f.project, nil
}

func (f *fakeProjectStore) ListBookChapters(_ context.Context, _ *store.FindBookChapter) ([]*store.BookChapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]*store.BookChapter, 0, len(f.chapters))
	for _, ch := range f.chapters {
		list = append(list, ch)
	}
	return list, nil
}

func (f *fakeProjectStore) UpdateBookProjectGuide(_ context.Context, _ string, _ []store.ChapterOutlineItem, characterGuide string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guide = characterGuide
	return nil
}

func (f *fakeProjectStore) UpsertBookChapter(_ context.Context, upsert *store.BookChapter) (*store.BookChapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.chapters[upsert.ChapterNumber]; ok {
		upsert.ID = existing.ID
	} else {
		upsert.ID = "ch-generated"
	}
	upsert.Feedback = ""
	upsert.ApprovedTs = 0
	f.chapters[upsert.ChapterNumber] = upsert
	return upsert, nil
}

type fakeImageService struct {
	url   string
	calls int
}

func (f *fakeImageService) Generate(_ context.Context, _ string) (*gateway.Image, error) {
	f.calls++
	return &gateway.Image{URL: f.url}, nil
}

func outlinedProject() *store.BookProject {
	return &store.BookProject{
		ID:          "p1",
		Title:       "The Lantern of the Harbor",
		SubjectName: "Grandma Rosa",
		TargetAge:   "5-8",
		ArtStyle:    "warm watercolor",
		ChapterOutline: []store.ChapterOutlineItem{
			{Number: 1, Title: "The Old Harbor", Theme: "childhood by the water", KeyCharacters: []string{"Rosa"}},
			{Number: 2, Title: "Crossing the Sea", Theme: "leaving home", KeyCharacters: []string{"Rosa", "Marco"}},
		},
	}
}

func TestGenerateChapterSequence(t *testing.T) {
	g := &scriptedGateway{}
	fs := newFakeProjectStore(outlinedProject())
	e := NewEngine(g, nil, nil, fs, nil)

	result, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 1})
	require.NoError(t, err)

	assert.Equal(t, "ch-generated", result.ID)
	assert.Equal(t, "The Old Harbor", result.Title)
	assert.Equal(t, "Once upon a time, Rosa lit the lantern.", result.Narrative)
	assert.Equal(t, "watercolor, Rosa with lantern", result.IllustrationPrompt)
	assert.Equal(t, "the lantern moment", result.SceneRationale)
	assert.Empty(t, result.ImageURL)

	// Keeper and weaver run before the narrative writer, which runs before
	// the art director.
	order := g.prompts()
	require.Len(t, order, 4)
	assert.ElementsMatch(t, []string{"keeper", "weaver"}, order[:2])
	assert.Equal(t, "narrative", order[2])
	assert.Equal(t, "art", order[3])

	// Both persistence writes landed.
	assert.Equal(t, "Rosa: brave, dark curls", fs.guide)
	saved := fs.chapters[1]
	require.NotNil(t, saved)
	assert.Equal(t, store.ChapterStatusDraft, saved.Status)
}

func TestGenerateChapterFeedbackReachesNarrativeWriter(t *testing.T) {
	var narrativePrompt string
	g := &scriptedGateway{}
	fs := newFakeProjectStore(outlinedProject())
	fs.chapters[2] = &store.BookChapter{ID: "ch-2", ChapterNumber: 2, Status: store.ChapterStatusRevisionRequested}

	// Capture the narrative prompt through a wrapping gateway.
	capture := gatewayFunc(func(ctx context.Context, prompt string, maxTokens int) (string, *gateway.CallStats, error) {
		if agentFor(prompt) == "narrative" {
			narrativePrompt = prompt
		}
		return g.Complete(ctx, prompt, maxTokens)
	})

	e := NewEngine(capture, nil, nil, fs, nil)
	_, err := e.GenerateChapter(context.Background(), &ChapterRequest{
		ProjectID:     "p1",
		ChapterNumber: 2,
		Feedback:      "make it warmer and mention the lantern",
	})
	require.NoError(t, err)
	assert.Contains(t, narrativePrompt, "REVISION NOTES")
	assert.Contains(t, narrativePrompt, "make it warmer and mention the lantern")

	// Regeneration resets the chapter to draft and keeps its identity.
	saved := fs.chapters[2]
	assert.Equal(t, "ch-2", saved.ID)
	assert.Equal(t, store.ChapterStatusDraft, saved.Status)
	assert.Empty(t, saved.Feedback)
}

type gatewayFunc func(ctx context.Context, prompt string, maxTokens int) (string, *gateway.CallStats, error)

func (f gatewayFunc) Complete(ctx context.Context, prompt string, maxTokens int) (string, *gateway.CallStats, error) {
	return f(ctx, prompt, maxTokens)
}

func TestGenerateChapterApprovedIsRejected(t *testing.T) {
	g := &scriptedGateway{}
	fs := newFakeProjectStore(outlinedProject())
	fs.chapters[1] = &store.BookChapter{ID: "ch-1", ChapterNumber: 1, Status: store.ChapterStatusApproved}

	e := NewEngine(g, nil, nil, fs, nil)
	_, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChapterApproved)
	assert.Empty(t, g.prompts())
}

func TestGenerateChapterUnknownProject(t *testing.T) {
	g := &scriptedGateway{}
	fs := newFakeProjectStore(outlinedProject())
	e := NewEngine(g, nil, nil, fs, nil)

	_, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "missing", ChapterNumber: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, g.prompts())
}

func TestGenerateChapterApprovedContextFlowsIn(t *testing.T) {
	var narrativePrompt, artPrompt string
	g := &scriptedGateway{}
	fs := newFakeProjectStore(outlinedProject())
	fs.chapters[1] = &store.BookChapter{
		ID:                 "ch-1",
		ChapterNumber:      1,
		Title:              "The Old Harbor",
		Narrative:          "Rosa grew up by the water.",
		IllustrationPrompt: "watercolor, girl on a dock",
		Status:             store.ChapterStatusApproved,
	}

	capture := gatewayFunc(func(ctx context.Context, prompt string, maxTokens int) (string, *gateway.CallStats, error) {
		switch agentFor(prompt) {
		case "narrative":
			narrativePrompt = prompt
		case "art":
			artPrompt = prompt
		}
		return g.Complete(ctx, prompt, maxTokens)
	})

	e := NewEngine(capture, nil, nil, fs, nil)
	_, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 2})
	require.NoError(t, err)

	assert.Contains(t, narrativePrompt, "Chapter 1: The Old Harbor")
	assert.Contains(t, narrativePrompt, "Rosa grew up by the water.")
	assert.NotContains(t, narrativePrompt, "This is the first chapter.")
	assert.Contains(t, artPrompt, "Chapter 1: watercolor, girl on a dock")
}

func TestGenerateChapterArtDirectorFallback(t *testing.T) {
	g := &scriptedGateway{outputs: map[string]string{
		"art": "watercolor, Rosa under the lighthouse, plain text prompt",
	}}
	fs := newFakeProjectStore(outlinedProject())
	e := NewEngine(g, nil, nil, fs, nil)

	result, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, "watercolor, Rosa under the lighthouse, plain text prompt", result.IllustrationPrompt)
	assert.Empty(t, result.SceneRationale)
}

func TestGenerateChapterWithImageService(t *testing.T) {
	g := &scriptedGateway{}
	fs := newFakeProjectStore(outlinedProject())
	images := &fakeImageService{url: "https://provider.example/img.png"}
	e := NewEngine(g, images, nil, fs, nil)

	result, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, images.calls)
	// No blob store configured, the provider URL is kept as-is.
	assert.Equal(t, "https://provider.example/img.png", result.ImageURL)
}

func TestGenerateChapterAgentFailureIsFatal(t *testing.T) {
	g := &scriptedGateway{fail: map[string]bool{"weaver": true}}
	fs := newFakeProjectStore(outlinedProject())
	e := NewEngine(g, nil, nil, fs, nil)

	_, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oral history weaver failed")
	assert.Nil(t, fs.chapters[1])
	assert.Empty(t, fs.guide)
}

func TestGenerateChapterEmptyKeeperKeepsExistingGuide(t *testing.T) {
	g := &scriptedGateway{outputs: map[string]string{"keeper": "  \n"}}
	project := outlinedProject()
	project.CharacterGuide = "Rosa: brave, dark curls (established)"
	fs := newFakeProjectStore(project)
	e := NewEngine(g, nil, nil, fs, nil)

	_, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, "Rosa: brave, dark curls (established)", fs.guide)
}

func TestGenerateChapterBeyondOutlineUsesFallbackTitle(t *testing.T) {
	g := &scriptedGateway{}
	fs := newFakeProjectStore(outlinedProject())
	e := NewEngine(g, nil, nil, fs, nil)

	result, err := e.GenerateChapter(context.Background(), &ChapterRequest{ProjectID: "p1", ChapterNumber: 5})
	require.NoError(t, err)
	assert.Equal(t, "Chapter 5", result.Title)
}
