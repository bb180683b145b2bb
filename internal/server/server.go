// Package server exposes the matching pipeline over HTTP: transcript intake,
// run inspection, requirement edits, the review gate, sending, and the
// WhatsApp webhook.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/conversation"
	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/internal/notify"
	"github.com/sells-group/homematch/internal/store"
)

// Pipeline drives runs through the automated stages.
type Pipeline interface {
	Prepare(ctx context.Context, rawText, uploadMethod string) (*model.Run, error)
	Resume(ctx context.Context, runID string) (*model.Run, error)
	RunStage(ctx context.Context, runID string, stage model.Stage) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Reviewer is the human review gate.
type Reviewer interface {
	Pending(ctx context.Context, runID string) ([]model.RankedResult, error)
	Approve(ctx context.Context, runID string, resultIDs []string) ([]model.RankedResult, error)
	Reject(ctx context.Context, runID, resultID string) (*model.RankedResult, error)
}

// Notifier delivers approved matches.
type Notifier interface {
	SendEmail(ctx context.Context, runID, toEmail string) (*notify.Report, error)
	SendWhatsApp(ctx context.Context, runID, toNumber string) (*notify.Report, error)
}

// Store is the read and edit surface the handlers use directly.
type Store interface {
	GetTranscript(ctx context.Context, id string) (*model.Transcript, error)
	GetRequirementByTranscript(ctx context.Context, transcriptID string) (*model.Requirement, error)
	UpdateRequirement(ctx context.Context, id string, update model.RequirementUpdate) (*model.Requirement, error)
	ListListingsByRun(ctx context.Context, runID string) ([]model.Listing, error)
}

// Server wires the HTTP routes to the services.
type Server struct {
	pipeline Pipeline
	reviewer Reviewer
	notifier Notifier
	store    Store
	tracker  *conversation.Tracker

	// bgCtx outlives individual requests for the async stage execution
	// kicked off by transcript intake and the WhatsApp webhook.
	bgCtx context.Context
}

// New builds a Server. bgCtx bounds the background work spawned by handlers;
// pass the process context so shutdown cancels in-flight runs.
func New(bgCtx context.Context, p Pipeline, rev Reviewer, not Notifier, st Store, tracker *conversation.Tracker) *Server {
	if bgCtx == nil {
		bgCtx = context.Background()
	}
	if tracker == nil {
		tracker = conversation.NewTracker()
	}
	return &Server{
		pipeline: p,
		reviewer: rev,
		notifier: not,
		store:    st,
		tracker:  tracker,
		bgCtx:    bgCtx,
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/transcripts", s.createTranscript)
		r.Get("/transcripts/{transcriptID}", s.getTranscript)
		r.Get("/transcripts/{transcriptID}/requirement", s.getRequirement)
		r.Patch("/requirements/{requirementID}", s.updateRequirement)

		r.Get("/runs", s.listRuns)
		r.Get("/runs/{runID}", s.getRun)
		r.Post("/runs/{runID}/stages/{stage}", s.runStage)
		r.Get("/runs/{runID}/listings", s.listListings)

		r.Get("/runs/{runID}/results", s.listResults)
		r.Post("/runs/{runID}/approve", s.approve)
		r.Post("/runs/{runID}/results/{resultID}/reject", s.reject)
		r.Post("/runs/{runID}/send", s.send)
		r.Get("/runs/{runID}/send", s.sendStatus)
	})

	r.Post("/webhook/whatsapp", s.whatsappWebhook)

	return r
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
