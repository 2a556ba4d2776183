package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/dataset"
	"github.com/spigell/retentioniq/internal/insights"
	"github.com/spigell/retentioniq/internal/model"
)

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
	Stage    string   `json:"stage,omitempty"`
}

type fixedField struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type schemaResponse struct {
	Fields      []attrition.Field `json:"fields"`
	FixedFields []fixedField      `json:"fixed_fields"`
	Defaults    *attrition.Record `json:"defaults"`
	Schema      map[string]any    `json:"schema"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Model      string `json:"model"`
	ModelError string `json:"model_error,omitempty"`
	Dataset    bool   `json:"dataset"`
	Version    string `json:"version,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errorResponse{Error: "dashboard is not available"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	fixed := make([]fixedField, 0, 3)
	for _, f := range attrition.Fields {
		if f.Fixed {
			v, _ := f.Default.(int)
			fixed = append(fixed, fixedField{Name: f.Name, Value: v})
		}
	}

	s.writeJSON(w, http.StatusOK, schemaResponse{
		Fields:      attrition.Editable(),
		FixedFields: fixed,
		Defaults:    attrition.Default(),
		Schema:      attrition.Schema(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	predictor, err := s.predictor()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, errorResponse{Error: "prediction model is unavailable: " + err.Error()})
		return
	}

	var input map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	record, err := attrition.Parse(input)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	result, err := predictor.Run(r.Context(), record)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Chat == nil {
		s.writeJSON(w, http.StatusOK, []insights.Entry{})
		return
	}
	history := s.deps.Chat.History()
	if history == nil {
		history = []insights.Entry{}
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleChatAsk(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		s.writeError(w, http.StatusServiceUnavailable, errorResponse{Error: "insights chat is not configured"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	entry, err := s.deps.Chat.Ask(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleChatClear(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Chat != nil {
		s.deps.Chat.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInsights(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Dataset == nil {
		s.writeError(w, http.StatusServiceUnavailable, errorResponse{Error: dataset.ErrNotLoaded.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, s.deps.Dataset.Summary())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Model:   "ready",
		Dataset: s.deps.Dataset != nil,
		Version: s.deps.Version,
	}
	if _, err := s.predictor(); err != nil {
		resp.Model = "unavailable"
		resp.ModelError = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) predictor() (Predictor, error) {
	if s.deps.Predictor == nil {
		return nil, errors.New("no model configured")
	}
	return s.deps.Predictor()
}

func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var (
		verr *attrition.ValidationError
		serr *model.ScoringError
	)

	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid employee record", Problems: verr.Problems})
	case errors.As(err, &serr):
		s.writeError(w, http.StatusInternalServerError, errorResponse{Error: serr.Error(), Stage: serr.Stage})
	case errors.Is(err, model.ErrConfiguration):
		s.writeError(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("prediction failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, body errorResponse) {
	body.Error = strings.TrimSpace(body.Error)
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}
