package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// evaluationRequest is the body of POST /v1/evaluations.
type evaluationRequest struct {
	Location string         `json:"location" validate:"required"`
	Assessor string         `json:"assessor"`
	Crew     []string       `json:"crew" validate:"dive,required"`
	Current  *readingInput  `json:"current" validate:"required"`
	Forecast []readingInput `json:"forecast" validate:"max=48,dive"`
}

// readingInput is a caller-supplied reading. Values are taken as reported;
// only temperature is required.
type readingInput struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   *float64  `json:"temperature" validate:"required"`
	Humidity      float64   `json:"humidity"`
	Precipitation float64   `json:"precipitation"`
	WindSpeed     float64   `json:"windSpeed"`
	Conditions    string    `json:"conditions"`
	UVIndex       float64   `json:"uvIndex"`
	CloudCover    float64   `json:"cloudCover"`
}

func (in readingInput) reading() domain.Reading {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = domain.Now()
	}
	return domain.Reading{
		Timestamp:     ts,
		Temperature:   *in.Temperature,
		Humidity:      in.Humidity,
		Precipitation: in.Precipitation,
		WindSpeed:     in.WindSpeed,
		Conditions:    in.Conditions,
		UVIndex:       in.UVIndex,
		CloudCover:    in.CloudCover,
	}
}

func (req evaluationRequest) conditions() domain.Conditions {
	c := domain.Conditions{
		Location: req.Location,
		Current:  req.Current.reading(),
		Forecast: make([]domain.Reading, 0, len(req.Forecast)),
		Source:   domain.SourceManual,
	}
	for _, f := range req.Forecast {
		c.Forecast = append(c.Forecast, f.reading())
	}
	return c
}

func (s *Server) handleLocationEvaluation(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")
	crew := splitCrew(r.URL.Query().Get("crew"))

	ev, err := s.evaluator.Evaluate(r.Context(), location, crew...)
	if err != nil {
		status := statusForError(err)
		s.logger.Warn("evaluation failed", "location", location, "status", status, "error", err)
		writeError(w, status, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, ev)
}

func (s *Server) handleEvaluateConditions(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	ev := s.evaluator.EvaluateConditions(req.conditions(), req.Assessor, req.Crew)
	sharedobs.WriteJSON(w, http.StatusOK, ev)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.policies.Current())
}

func (s *Server) handleReloadPolicy(w http.ResponseWriter, _ *http.Request) {
	p, err := s.policies.Reload()
	if err != nil {
		s.metrics.PolicyReloads.WithLabelValues("error").Inc()
		s.logger.Error("policy reload rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.metrics.PolicyReloads.WithLabelValues("success").Inc()
	s.logger.Info("policy reloaded")
	sharedobs.WriteJSON(w, http.StatusOK, p)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

func splitCrew(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
