package server

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/internal/store"
)

func (s *Server) createTranscript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RawText string `json:"raw_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		respondError(w, http.StatusBadRequest, "raw_text is required")
		return
	}

	run, err := s.pipeline.Prepare(r.Context(), req.RawText, model.UploadMethodUpload)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	go s.resumeInBackground(run.ID)

	respondJSON(w, http.StatusAccepted, run)
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	transcript, err := s.store.GetTranscript(r.Context(), chi.URLParam(r, "transcriptID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transcript)
}

func (s *Server) getRequirement(w http.ResponseWriter, r *http.Request) {
	req, err := s.store.GetRequirementByTranscript(r.Context(), chi.URLParam(r, "transcriptID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) updateRequirement(w http.ResponseWriter, r *http.Request) {
	var update model.RequirementUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := s.store.UpdateRequirement(r.Context(), chi.URLParam(r, "requirementID"), update)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	runs, err := s.pipeline.ListRuns(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.pipeline.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) runStage(w http.ResponseWriter, r *http.Request) {
	stage := model.Stage(chi.URLParam(r, "stage"))
	if !stage.Valid() {
		respondError(w, http.StatusBadRequest, "unknown stage")
		return
	}

	run, err := s.pipeline.RunStage(r.Context(), chi.URLParam(r, "runID"), stage)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) listListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.ListListingsByRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"listings": listings})
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.reviewer.Pending(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	if results == nil {
		results = []model.RankedResult{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResultIDs []string `json:"result_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.reviewer.Approve(r.Context(), chi.URLParam(r, "runID"), req.ResultIDs)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "run or result not found")
			return
		}
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request) {
	result, err := s.reviewer.Reject(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "resultID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel string `json:"channel"`
		To      string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	runID := chi.URLParam(r, "runID")
	var (
		report any
		err    error
	)
	switch req.Channel {
	case "", "email":
		report, err = s.notifier.SendEmail(r.Context(), runID, req.To)
	case "whatsapp":
		report, err = s.notifier.SendWhatsApp(r.Context(), runID, req.To)
	default:
		respondError(w, http.StatusBadRequest, "unknown channel")
		return
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// sendStatus reports delivery progress for a run's results.
func (s *Server) sendStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run, err := s.pipeline.GetRun(r.Context(), runID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	results, err := s.reviewer.Pending(r.Context(), runID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	var approved, sent int
	for _, rr := range results {
		if rr.Approved != nil && *rr.Approved {
			approved++
		}
		if rr.Sent {
			sent++
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"run_id":         run.ID,
		"approved_count": approved,
		"sent_count":     sent,
		"sent_at":        run.SendCompletedAt,
	})
}

// whatsappWebhook accepts Twilio's inbound message callback. Each sender maps
// to at most one active run; messages arriving while that run is live are
// acknowledged without starting another.
func (s *Server) whatsappWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" || strings.TrimSpace(body) == "" {
		respondError(w, http.StatusBadRequest, "From and Body are required")
		return
	}

	// Claim the sender's slot before creating anything so a blocked message
	// leaves no orphaned run behind.
	owner, claimed := s.tracker.Claim(from, claimPlaceholder, s.runStillActive)
	if !claimed {
		zap.L().Info("whatsapp message ignored, run already active",
			zap.String("from", from),
			zap.String("active_run_id", owner))
		writeTwiML(w, whatsappBusyReply)
		return
	}

	run, err := s.pipeline.Prepare(r.Context(), body, model.UploadMethodWhatsApp)
	if err != nil {
		s.tracker.Release(from)
		respondError(w, http.StatusInternalServerError, "failed to create run")
		return
	}
	s.tracker.Claim(from, run.ID, nil)

	go func() {
		defer s.tracker.Release(from)
		s.resumeInBackground(run.ID)
	}()

	writeTwiML(w, whatsappAckReply)
}

// claimPlaceholder holds a sender's slot between the claim and the run
// creation that follows it.
const claimPlaceholder = "claim-pending"

const (
	whatsappAckReply  = "Thanks! We're analyzing your requirements and searching for matching properties. You'll hear from us soon."
	whatsappBusyReply = "Your property search is still in progress. We'll send your matches as soon as they're ready."
)

func (s *Server) runStillActive(existingRunID string) bool {
	if existingRunID == claimPlaceholder {
		return true
	}
	run, err := s.pipeline.GetRun(s.bgCtx, existingRunID)
	if err != nil {
		return false
	}
	return run.Status == model.RunStatusPending || run.Status == model.RunStatusInProgress
}

func writeTwiML(w http.ResponseWriter, message string) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Response>`)
	if message != "" {
		b.WriteString("<Message>")
		_ = xml.EscapeText(&b, []byte(message))
		b.WriteString("</Message>")
	}
	b.WriteString(`</Response>`)

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) resumeInBackground(runID string) {
	if _, err := s.pipeline.Resume(s.bgCtx, runID); err != nil {
		zap.L().Error("background run failed",
			zap.String("run_id", runID),
			zap.Error(err))
	}
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	zap.L().Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}
