// Package v1 exposes the portal's REST API: access validation, the admin
// surface, and the meeting-prep and storytelling demo workflows.
package v1

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/lanternworks/lanternworks/ai/briefing"
	"github.com/lanternworks/lanternworks/ai/gateway"
	"github.com/lanternworks/lanternworks/ai/metrics"
	"github.com/lanternworks/lanternworks/ai/storytelling"
	"github.com/lanternworks/lanternworks/internal/blob"
	"github.com/lanternworks/lanternworks/internal/profile"
	"github.com/lanternworks/lanternworks/store"
)

type APIV1Service struct {
	AuthService         *AuthService
	AdminService        *AdminService
	MeetingPrepService  *MeetingPrepService
	StorytellingService *StorytellingService

	Profile *profile.Profile
	Store   *store.Store
}

// NewAPIV1Service wires the demo services. The model gateways are only
// constructed when credentials are configured; without them the pipeline
// routes answer 503.
func NewAPIV1Service(p *profile.Profile, s *store.Store, blobs *blob.Store, recorder *metrics.Recorder) *APIV1Service {
	var pipeline *briefing.Pipeline
	var engine *storytelling.Engine

	if p.IsLLMEnabled() {
		llm, err := gateway.NewService(gateway.ConfigFromProfile(p))
		if err != nil {
			slog.Warn("failed to initialize model gateway, pipelines disabled", "error", err)
		} else {
			slog.Info("model gateway initialized", "provider", p.LLMProvider, "model", p.LLMModel)

			var images gateway.ImageService
			if p.IsImageEnabled() {
				images, err = gateway.NewImageService(gateway.ImageConfigFromProfile(p))
				if err != nil {
					slog.Warn("failed to initialize image gateway, chapters will have no illustrations", "error", err)
					images = nil
				}
			} else {
				slog.Info("image generation disabled, no image credentials configured")
			}

			pipeline = briefing.NewPipeline(llm, recorder)
			engine = storytelling.NewEngine(llm, images, blobs, s, recorder)
		}
	} else {
		slog.Info("model pipelines disabled, no LLM credentials configured")
	}

	service := &APIV1Service{Profile: p, Store: s}
	service.AuthService = &AuthService{Profile: p, Store: s}
	service.AdminService = &AdminService{Profile: p, Store: s}
	service.MeetingPrepService = &MeetingPrepService{Profile: p, Store: s, Pipeline: pipeline}
	service.StorytellingService = &StorytellingService{Profile: p, Store: s, Engine: engine}
	return service
}

// Register mounts all v1 routes. Pipeline routes get a dedicated rate
// limiter since each request fans out into several model calls.
func (s *APIV1Service) Register(e *echo.Echo) {
	apiV1 := e.Group("/api/v1")

	pipelineLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(2), // per second, per client IP
			Burst:     5,
			ExpiresIn: 3 * time.Minute,
		}),
	})

	auth := apiV1.Group("/auth")
	auth.POST("/access", s.AuthService.ValidateAccess)
	auth.POST("/capability", s.AuthService.GrantCapability)
	auth.POST("/logout", s.AuthService.Logout)

	admin := apiV1.Group("/admin")
	admin.POST("/validate", s.AdminService.Validate)
	admin.GET("/clients", s.AdminService.ListClients)
	admin.POST("/clients", s.AdminService.CreateClient)
	admin.GET("/stats", s.AdminService.Stats)

	prep := apiV1.Group("/meeting-prep")
	prep.GET("/contacts", s.MeetingPrepService.ListContacts)
	prep.POST("/contacts", s.MeetingPrepService.SaveContacts)
	prep.POST("/run", s.MeetingPrepService.RunWorkflow, pipelineLimiter)
	prep.POST("/outputs", s.MeetingPrepService.SaveOutput)
	prep.GET("/outputs", s.MeetingPrepService.ListOutputs)
	prep.GET("/outputs/:id", s.MeetingPrepService.GetOutput)

	st := apiV1.Group("/storytelling")
	st.GET("/projects", s.StorytellingService.ListProjects)
	st.POST("/projects", s.StorytellingService.CreateProject, pipelineLimiter)
	st.GET("/workspace/:projectId", s.StorytellingService.GetWorkspace)
	st.POST("/run-chapter", s.StorytellingService.RunChapter, pipelineLimiter)
	st.POST("/chapter-status", s.StorytellingService.UpdateChapterStatus)
}
