package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"

	"github.com/vidsage/vidsage/internal/buildinfo"
	"github.com/vidsage/vidsage/internal/llm"
	"github.com/vidsage/vidsage/internal/orchestrator"
	"github.com/vidsage/vidsage/internal/pipeline"
	"github.com/vidsage/vidsage/internal/store"
)

var markdown = goldmark.New()

// renderHTML converts model output markdown to HTML. On render failure
// the raw text is returned so the client always gets something.
func renderHTML(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}

type processRequest struct {
	URL string `json:"url"`
}

type videoInfo struct {
	Platform     string  `json:"platform"`
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Uploader     string  `json:"uploader,omitempty"`
}

type transcriptStats struct {
	Segments int     `json:"segments"`
	Words    int     `json:"words"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
	Source   string  `json:"source"`
}

type processResponse struct {
	Success             bool             `json:"success"`
	SessionID           string           `json:"session_id"`
	VideoInfo           videoInfo        `json:"video_info"`
	TranscriptAvailable bool             `json:"transcript_available"`
	TranscriptPreview   string           `json:"transcript_preview,omitempty"`
	TranscriptStats     *transcriptStats `json:"transcript_stats,omitempty"`
}

func (s *Server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required", s.logger)
		return
	}

	result, err := s.pipeline.Process(r.Context(), req.URL)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, pipeline.ErrVideoTooLong) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error(), s.logger)
		return
	}

	sess, err := s.store.CreateSession(r.Context(), store.Session{
		VideoURL: req.URL,
		VideoID:  result.Identity.ID,
		Platform: string(result.Identity.Platform),
		Title:    result.Metadata.Title,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session", s.logger)
		return
	}

	resp := processResponse{
		Success:   true,
		SessionID: sess.ID,
		VideoInfo: videoInfo{
			Platform:     string(result.Identity.Platform),
			VideoID:      result.Identity.ID,
			Title:        result.Metadata.Title,
			Description:  result.Metadata.Description,
			Duration:     result.Metadata.DurationSeconds,
			ThumbnailURL: result.Metadata.ThumbnailURL,
			Uploader:     result.Metadata.Uploader,
		},
	}

	if result.HasTranscript() {
		tr := result.Transcript
		if err := s.store.SaveTranscript(r.Context(), sess.ID, tr); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save transcript", s.logger)
			return
		}
		resp.TranscriptAvailable = true
		resp.TranscriptPreview = tr.Preview(5)
		resp.TranscriptStats = &transcriptStats{
			Segments: len(tr.Segments),
			Words:    tr.WordCount(),
			Duration: tr.TotalDurationSeconds,
			Language: tr.Language,
			Source:   tr.Source,
		}
	}

	writeJSON(w, http.StatusOK, resp, s.logger)
}

type queryRequest struct {
	SessionID  string `json:"session_id"`
	ModelID    string `json:"model_id"`
	Query      string `json:"query"`
	EnableSync bool   `json:"enable_sync"`
}

type queryResponse struct {
	Success      bool                  `json:"success"`
	Response     string                `json:"response"`
	ResponseHTML string                `json:"response_html"`
	Metadata     orchestrator.Metadata `json:"metadata"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}
	if req.SessionID == "" || req.ModelID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "session_id, model_id, and query are required", s.logger)
		return
	}

	sess, err := s.store.GetSession(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session", s.logger)
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found", s.logger)
		return
	}

	tr, err := s.store.GetTranscript(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transcript", s.logger)
		return
	}

	result, err := s.orch.Query(r.Context(), orchestrator.Request{
		SessionID:  req.SessionID,
		ModelID:    req.ModelID,
		Query:      req.Query,
		Transcript: tr,
		EnableSync: req.EnableSync,
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, orchestrator.ErrModelUnavailable) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error(), s.logger)
		return
	}

	// Record the exchange; history failures don't fail the query.
	if err := s.store.AppendMessage(r.Context(), store.Message{
		SessionID: req.SessionID,
		Role:      "user",
		Content:   req.Query,
	}); err != nil {
		s.logger.Warn("failed to record user message", "error", err)
	}
	if err := s.store.AppendMessage(r.Context(), store.Message{
		SessionID: req.SessionID,
		Role:      "assistant",
		Content:   result.Text,
		ModelID:   req.ModelID,
		QueryType: string(result.Metadata.QueryType),
	}); err != nil {
		s.logger.Warn("failed to record assistant message", "error", err)
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Success:      true,
		Response:     result.Text,
		ResponseHTML: renderHTML(result.Text),
		Metadata:     result.Metadata,
	}, s.logger)
}

type compareRequest struct {
	SessionID  string   `json:"session_id"`
	ModelIDs   []string `json:"model_ids"`
	Query      string   `json:"query"`
	EnableSync bool     `json:"enable_sync"`
}

type compareResponse struct {
	Success     bool                      `json:"success"`
	Comparisons []orchestrator.Comparison `json:"comparisons"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", s.logger)
		return
	}
	if req.SessionID == "" || len(req.ModelIDs) == 0 || req.Query == "" {
		writeError(w, http.StatusBadRequest, "session_id, model_ids, and query are required", s.logger)
		return
	}

	tr, err := s.store.GetTranscript(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transcript", s.logger)
		return
	}

	comparisons := s.orch.CompareModels(r.Context(), orchestrator.Request{
		SessionID:  req.SessionID,
		Query:      req.Query,
		Transcript: tr,
		EnableSync: req.EnableSync,
	}, req.ModelIDs)

	writeJSON(w, http.StatusOK, compareResponse{Success: true, Comparisons: comparisons}, s.logger)
}

type modelsResponse struct {
	Success     bool                  `json:"success"`
	Models      []llm.ModelDescriptor `json:"models"`
	Providers   map[string]bool       `json:"providers"`
	Recommended map[string][]string   `json:"recommended,omitempty"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := modelsResponse{
		Success: true,
		Models:  s.catalog.Models(),
		Providers: map[string]bool{
			string(llm.ProviderGemini):     s.catalog.Available(r.Context(), llm.ProviderGemini),
			string(llm.ProviderOpenRouter): s.catalog.Available(r.Context(), llm.ProviderOpenRouter),
		},
	}

	if query := r.URL.Query().Get("query"); query != "" {
		qt, models := s.orch.Recommend(query)
		resp.Recommended = map[string][]string{string(qt): models}
	}

	writeJSON(w, http.StatusOK, resp, s.logger)
}

type historyResponse struct {
	Success  bool            `json:"success"`
	Messages []store.Message `json:"messages"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session"]

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", s.logger)
			return
		}
		limit = n
	}

	messages, err := s.store.History(r.Context(), sessionID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history", s.logger)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	writeJSON(w, http.StatusOK, historyResponse{Success: true, Messages: messages}, s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
		"build":   buildinfo.Info(),
	}, s.logger)
}
