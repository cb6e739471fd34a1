// Package frontend serves the marketing site: the static landing page,
// markdown-backed insight articles, and their Atom feed.
package frontend

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/lanternworks/lanternworks/internal/profile"
)

//go:embed dist
var embeddedFiles embed.FS

//go:embed insights/*.md
var insightFiles embed.FS

// Insight is one rendered article.
type Insight struct {
	Slug      string
	Title     string
	Published time.Time
	HTML      template.HTML
}

type FrontendService struct {
	Profile  *profile.Profile
	insights []*Insight
	bySlug   map[string]*Insight
	page     *template.Template
}

var insightPage = template.Must(template.New("insight").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} | Lanternworks</title>
<link rel="stylesheet" href="/site.css">
</head>
<body>
<main class="insight">
<a href="/insights">&larr; All insights</a>
<article>{{.HTML}}</article>
</main>
</body>
</html>
`))

// NewFrontendService parses and renders the embedded insight articles once
// at startup. A broken article is skipped with a warning rather than
// failing the server.
func NewFrontendService(p *profile.Profile) *FrontendService {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	s := &FrontendService{
		Profile: p,
		bySlug:  map[string]*Insight{},
		page:    insightPage,
	}

	entries, err := fs.Glob(insightFiles, "insights/*.md")
	if err != nil {
		slog.Warn("failed to enumerate insight articles", "error", err)
		return s
	}

	for _, name := range entries {
		raw, err := insightFiles.ReadFile(name)
		if err != nil {
			slog.Warn("failed to read insight article", "file", name, "error", err)
			continue
		}
		insight, err := parseInsight(md, name, raw)
		if err != nil {
			slog.Warn("failed to parse insight article", "file", name, "error", err)
			continue
		}
		s.insights = append(s.insights, insight)
		s.bySlug[insight.Slug] = insight
	}

	sort.Slice(s.insights, func(i, j int) bool {
		return s.insights[i].Published.After(s.insights[j].Published)
	})
	return s
}

// parseInsight reads the tiny header block (Title:, Published:) and renders
// the remaining markdown to HTML.
func parseInsight(md goldmark.Markdown, name string, raw []byte) (*Insight, error) {
	slug := strings.TrimSuffix(strings.TrimPrefix(name, "insights/"), ".md")

	title, published := "", time.Time{}
	body := raw
	for {
		line, rest, found := bytes.Cut(body, []byte("\n"))
		text := string(bytes.TrimSpace(line))
		if strings.HasPrefix(text, "Title:") {
			title = strings.TrimSpace(strings.TrimPrefix(text, "Title:"))
		} else if strings.HasPrefix(text, "Published:") {
			ts, err := time.Parse("2006-01-02", strings.TrimSpace(strings.TrimPrefix(text, "Published:")))
			if err != nil {
				return nil, fmt.Errorf("bad Published date: %w", err)
			}
			published = ts
		} else {
			// First non-header line starts the article body.
			if text != "" {
				rest = body
			}
			body = rest
			break
		}
		if !found {
			body = nil
			break
		}
		body = rest
	}

	if title == "" {
		return nil, fmt.Errorf("insight %s has no Title header", name)
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}

	return &Insight{
		Slug:      slug,
		Title:     title,
		Published: published,
		HTML:      template.HTML(buf.String()),
	}, nil
}

// Register mounts the marketing routes.
func (s *FrontendService) Register(e *echo.Echo) {
	dist, err := fs.Sub(embeddedFiles, "dist")
	if err != nil {
		slog.Error("embedded frontend missing", "error", err)
		return
	}
	e.StaticFS("/", dist)

	e.GET("/insights", s.listInsights)
	e.GET("/insights/feed.xml", s.atomFeed)
	e.GET("/insights/:slug", s.showInsight)
}

var insightIndex = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Insights | Lanternworks</title>
<link rel="alternate" type="application/atom+xml" href="/insights/feed.xml">
<link rel="stylesheet" href="/site.css">
</head>
<body>
<main class="insights">
<h1>Insights</h1>
<ul>
{{range .}}<li><a href="/insights/{{.Slug}}">{{.Title}}</a> <time>{{.Published.Format "Jan 2, 2006"}}</time></li>
{{end}}</ul>
</main>
</body>
</html>
`))

func (s *FrontendService) listInsights(c echo.Context) error {
	var buf bytes.Buffer
	if err := insightIndex.Execute(&buf, s.insights); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render page")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *FrontendService) showInsight(c echo.Context) error {
	insight, ok := s.bySlug[c.Param("slug")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, insight); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render page")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *FrontendService) atomFeed(c echo.Context) error {
	baseURL := s.Profile.InstanceURL
	if baseURL == "" {
		baseURL = "http://" + c.Request().Host
	}

	feed := &feeds.Feed{
		Title:       "Lanternworks Insights",
		Link:        &feeds.Link{Href: baseURL + "/insights"},
		Description: "Notes on applied AI for client-facing teams.",
	}
	for _, insight := range s.insights {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:   insight.Title,
			Link:    &feeds.Link{Href: baseURL + "/insights/" + insight.Slug},
			Created: insight.Published,
		})
		if insight.Published.After(feed.Updated) {
			feed.Updated = insight.Published
		}
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render feed")
	}
	return c.Blob(http.StatusOK, "application/atom+xml", []byte(atom))
}
