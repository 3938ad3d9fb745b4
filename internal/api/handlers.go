package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labelforge/labelforge/pkg/buildinfo"
	"github.com/labelforge/labelforge/pkg/config"
	"github.com/labelforge/labelforge/pkg/errors"
	"github.com/labelforge/labelforge/pkg/records"
	"github.com/labelforge/labelforge/pkg/sink"
)

// recordPayload is one identifier record in a request body.
type recordPayload struct {
	ID           string `json:"id"`
	QRValue      string `json:"qr_value,omitempty"`
	BarcodeValue string `json:"barcode_value,omitempty"`
	MarkerID     *int   `json:"marker_id,omitempty"`
}

// sheetRequest is the body of POST /v1/sheets and /v1/plan. Config fields
// absent from the request keep their defaults.
type sheetRequest struct {
	Config  *config.Config  `json:"config,omitempty"`
	Records []recordPayload `json:"records"`
}

// violationBody is one geometric violation in an error envelope.
type violationBody struct {
	Dimension   string  `json:"dimension,omitempty"`
	RequiredMM  float64 `json:"required_mm,omitempty"`
	AvailableMM float64 `json:"available_mm,omitempty"`
	Detail      string  `json:"detail"`
}

type errorBody struct {
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Violations []violationBody `json:"violations,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	cfg, recs, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	plan, err := s.runner.Plan(cfg, recs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	cfg, recs, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	renderer := sink.NewPDF(cfg.PageGeometry(), cfg.Text.FontName)
	res, err := s.runner.Execute(r.Context(), cfg, recs, renderer, &buf)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", cfg.Output.File))
	w.Header().Set("X-Run-Id", res.RunID)
	w.Header().Set("X-Pages", fmt.Sprint(res.Pages))
	w.Header().Set("X-Generated", fmt.Sprint(res.Generated))
	w.Header().Set("X-Skipped", fmt.Sprint(res.Skipped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// decodeRequest parses the body, overlays the request config on the
// defaults and validates it, then converts the record payloads.
func decodeRequest(r *http.Request) (config.Config, []records.Record, error) {
	cfg := config.Default()
	req := sheetRequest{Config: &cfg}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return cfg, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	recs := make([]records.Record, 0, len(req.Records))
	for i, p := range req.Records {
		if strings.TrimSpace(p.ID) == "" {
			continue
		}
		rec := records.NewRecord(i+1, p.ID, p.QRValue, p.BarcodeValue)
		rec.MarkerID = p.MarkerID
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return cfg, nil, errors.New(errors.ErrCodeInvalidFormat, "request contains no records with an id")
	}
	return cfg, recs, nil
}

// writeError maps pipeline errors onto HTTP statuses: malformed requests
// are 400, infeasible configurations 422, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{
		Code:    string(errors.ErrCodeInternal),
		Message: errors.UserMessage(err),
	}
	status := http.StatusInternalServerError

	var ce *errors.ConfigError
	if errors.As(err, &ce) {
		status = http.StatusUnprocessableEntity
		body.Code = string(ce.Code)
		body.Message = "configuration is not feasible"
		for _, v := range ce.Violations {
			body.Violations = append(body.Violations, violationBody{
				Dimension:   v.Dimension,
				RequiredMM:  v.RequiredMM,
				AvailableMM: v.AvailableMM,
				Detail:      v.Detail,
			})
		}
	} else if code := errors.GetCode(err); code != "" {
		body.Code = string(code)
		switch code {
		case errors.ErrCodeInvalidFormat:
			status = http.StatusBadRequest
		case errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidSymbology,
			errors.ErrCodeInvalidDict, errors.ErrCodeInsufficientSpace,
			errors.ErrCodeContentOverflow:
			status = http.StatusUnprocessableEntity
		case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
			status = http.StatusNotFound
		}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorEnvelope{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
