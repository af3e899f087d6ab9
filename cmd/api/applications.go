package main

import (
	"fmt"
	"net/http"
	"time"

	"intake/internal/applications"
	"intake/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	submissionSuccessMessage = "Application stored successfully"
	livenessMessage          = "Application backend is running"
)

type submissionResponse struct {
	Status      string                `json:"status"`
	Message     string                `json:"message"`
	RedirectURL string                `json:"redirectUrl"`
	Data        *applications.Receipt `json:"data"`
}

type submissionError struct {
	Status   string            `json:"status"`
	Code     applications.Kind `json:"code"`
	Message  string            `json:"message"`
	Detail   string            `json:"detail,omitempty"`
	Paystack any               `json:"paystack,omitempty"`
}

type livenessResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// applicationsHandler serves the form endpoint. POST submits, GET is a
// liveness probe and OPTIONS answers preflight.
func (app *application) applicationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		app.submitApplicationHandler(w, r)
	case http.MethodGet, http.MethodHead:
		writeJSON(w, http.StatusOK, &livenessResponse{
			Status:    "ok",
			Message:   livenessMessage,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Version:   version,
		})
	case http.MethodOptions:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// submitApplicationHandler always answers 200; failures are reported in the
// body.
func (app *application) submitApplicationHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := app.logger.With("submission_id", uuid.NewString())

	receipt, err := app.submit(w, r, log)

	outcome := "success"
	if err != nil {
		outcome = string(applications.KindOf(err))
	}
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	metrics.SubmissionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		e := applications.AsError(err)
		if e.Kind == applications.KindUnhandled || e.Kind == applications.KindStoreUnavailable {
			log.Errorw("submission failed", "kind", e.Kind, "error", err, "latency", time.Since(start))
		} else {
			log.Warnw("submission rejected", "kind", e.Kind, "message", e.Message, "detail", e.Detail, "latency", time.Since(start))
		}
		writeJSON(w, http.StatusOK, &submissionError{
			Status:   "error",
			Code:     e.Kind,
			Message:  e.Message,
			Detail:   e.Detail,
			Paystack: e.Provider,
		})
		return
	}

	log.Infow("application stored", "reference", receipt.Reference, "amount", receipt.Amount, "currency", receipt.Currency, "latency", time.Since(start))
	writeJSON(w, http.StatusOK, &submissionResponse{
		Status:      "success",
		Message:     submissionSuccessMessage,
		RedirectURL: receipt.RedirectURL,
		Data:        receipt,
	})
}

// submit reads, parses and submits one request. Panics become unhandled
// errors so the caller can still answer with an error body.
func (app *application) submit(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger) (receipt *applications.Receipt, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			receipt = nil
			err = applications.AsError(fmt.Errorf("panic: %v", rec))
		}
	}()

	body, err := readBody(w, r)
	if err != nil {
		return nil, applications.AsError(fmt.Errorf("read body: %w", err))
	}

	fields, err := applications.ParseBody(r.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, applications.AsError(err)
	}

	log.Debugw("submission received", "fields", len(fields), "reference", applications.Reference(fields))

	return app.applications.Submit(r.Context(), fields)
}
