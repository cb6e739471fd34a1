// Package briefing runs the two-phase meeting-prep pipeline: parallel
// per-source fact extraction, then a single synthesis call that produces
// the five-section briefing.
package briefing

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lanternworks/lanternworks/ai/gateway"
	"github.com/lanternworks/lanternworks/ai/jsonx"
	"github.com/lanternworks/lanternworks/ai/metrics"
	"github.com/lanternworks/lanternworks/ai/prompt"
	"github.com/lanternworks/lanternworks/store"
)

const (
	extractionMaxTokens = 2000
	synthesisMaxTokens  = 2000
)

// Attachment is one raw data export handed to the pipeline, either loaded
// from a connected demo source or pasted by the user.
type Attachment struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Request carries everything one briefing run needs.
type Request struct {
	ClientName     string
	Company        string
	Title          string
	MeetingContext string
	Attachments    []Attachment
}

// Result is the parsed briefing.
type Result struct {
	KeyStats store.KeyStats
	Sections store.BriefingSections
}

// Pipeline orchestrates extraction and synthesis against the model gateway.
type Pipeline struct {
	llm      gateway.Service
	recorder *metrics.Recorder
}

// NewPipeline creates a briefing pipeline. recorder may be nil.
func NewPipeline(llm gateway.Service, recorder *metrics.Recorder) *Pipeline {
	return &Pipeline{llm: llm, recorder: recorder}
}

// Run executes the full pipeline. Extraction runs one model call per
// attachment concurrently; a transport failure on any of them fails the
// run, but an unparseable extraction degrades to a raw-content record so
// synthesis still sees that source's data.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*Result, error) {
	if req.ClientName == "" {
		return nil, errors.New("client name is required")
	}

	startTime := time.Now()

	extractions := make([]prompt.Extraction, len(req.Attachments))
	if len(req.Attachments) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for i, a := range req.Attachments {
			i, a := i, a
			g.Go(func() error {
				extracted, err := p.extractFromSource(gctx, a.Source, a.Content)
				if err != nil {
					return err
				}
				extractions[i] = prompt.Extraction{Source: a.Source, Extracted: extracted}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			p.recorder.ObservePipelineRun(metrics.PipelineBriefing, false, time.Since(startTime))
			return nil, errors.Wrap(err, "extraction phase failed")
		}
	}

	synthesisPrompt := prompt.BuildSynthesis(prompt.SynthesisParams{
		ClientName:     req.ClientName,
		Company:        req.Company,
		Title:          req.Title,
		MeetingContext: req.MeetingContext,
	}, extractions)

	text, stats, err := p.llm.Complete(ctx, synthesisPrompt, synthesisMaxTokens)
	p.recorder.ObserveModelCall(metrics.PipelineBriefing, "synthesis", stats, err)
	if err != nil {
		p.recorder.ObservePipelineRun(metrics.PipelineBriefing, false, time.Since(startTime))
		return nil, errors.Wrap(err, "synthesis failed")
	}

	var parsed struct {
		KeyStats store.KeyStats `json:"keyStats"`
		store.BriefingSections
	}
	if _, err := jsonx.Decode(text, &parsed); err != nil {
		// Unlike extraction there is no useful fallback here: the briefing
		// shape is the whole point of the run.
		p.recorder.ObservePipelineRun(metrics.PipelineBriefing, false, time.Since(startTime))
		return nil, errors.Wrap(err, "failed to parse synthesis output")
	}
	parsed.BriefingSections.Normalize()

	slog.Info("briefing pipeline completed",
		"client", req.ClientName,
		"sources", len(req.Attachments),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	p.recorder.ObservePipelineRun(metrics.PipelineBriefing, true, time.Since(startTime))

	return &Result{KeyStats: parsed.KeyStats, Sections: parsed.BriefingSections}, nil
}

// extractFromSource runs one extraction call and returns the structured
// facts as JSON text. Parse failures pass the raw content through tagged
// with parseError so downstream synthesis can still use it.
func (p *Pipeline) extractFromSource(ctx context.Context, source, content string) (string, error) {
	text, stats, err := p.llm.Complete(ctx, prompt.BuildExtraction(source, content), extractionMaxTokens)
	p.recorder.ObserveModelCall(metrics.PipelineBriefing, "extraction", stats, err)
	if err != nil {
		return "", errors.Wrapf(err, "extract from %s", source)
	}

	var probe map[string]any
	raw, err := jsonx.Decode(text, &probe)
	if err != nil {
		slog.Warn("extraction output not parseable, passing raw content through", "source", source)
		fallback, merr := json.Marshal(map[string]any{"rawContent": content, "parseError": true})
		if merr != nil {
			return "", errors.Wrap(merr, "failed to build extraction fallback")
		}
		return string(fallback), nil
	}
	return raw, nil
}
