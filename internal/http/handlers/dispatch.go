package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/contact-dispatch/internal/dispatch"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

type batchDispatcher interface {
	Submit(ctx context.Context, sub dispatch.Submission) (*dispatch.Receipt, error)
	Status(ctx context.Context, jobID string) (*dispatch.Job, error)
}

// DispatchHandler accepts batch submissions and serves job status polls.
type DispatchHandler struct {
	dispatcher batchDispatcher
	logger     *logging.Logger
}

func NewDispatchHandler(dispatcher batchDispatcher, logger *logging.Logger) *DispatchHandler {
	if dispatcher == nil {
		panic("handlers: dispatcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DispatchHandler{dispatcher: dispatcher, logger: logger}
}

// SendBatch handles POST /api/send-whatsapp-batch.
func (h *DispatchHandler) SendBatch(w http.ResponseWriter, r *http.Request) {
	var sub dispatch.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	receipt, err := h.dispatcher.Submit(r.Context(), sub)
	switch {
	case errors.Is(err, dispatch.ErrNoContacts), errors.Is(err, dispatch.ErrMissingCredential):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("batch submission failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "job tracking unavailable")
		return
	}
	h.logger.Info("batch accepted", "job_id", receipt.JobID, "total", receipt.TotalContacts)
	writeJSON(w, http.StatusAccepted, receipt)
}

// JobStatus handles GET /api/job-status/{jobID}.
func (h *DispatchHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.dispatcher.Status(r.Context(), chi.URLParam(r, "jobID"))
	switch {
	case errors.Is(err, dispatch.ErrInvalidJobID):
		writeError(w, http.StatusBadRequest, "invalid job id")
	case errors.Is(err, dispatch.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case err != nil:
		h.logger.Error("job status lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read job status")
	default:
		writeJSON(w, http.StatusOK, job)
	}
}
