package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/wolfman30/contact-dispatch/internal/contacts"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

// ContactsHandler serves validation, contacts-file and column-detection
// requests.
type ContactsHandler struct {
	defaultCountryArea string
	logger             *logging.Logger
}

func NewContactsHandler(defaultCountryArea string, logger *logging.Logger) *ContactsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactsHandler{defaultCountryArea: defaultCountryArea, logger: logger}
}

type validateRequest struct {
	Rows               []contacts.Row         `json:"rows"`
	Mapping            contacts.ColumnMapping `json:"mapping"`
	DefaultCountryArea string                 `json:"defaultCountryArea"`
}

type validateResponse struct {
	Successes []contacts.Outcome `json:"successes"`
	Failures  []map[string]any   `json:"failures"`
	Summary   contacts.Summary   `json:"summary"`
}

func (h *ContactsHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request) (contacts.Report, bool) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return contacts.Report{}, false
	}
	if err := req.Mapping.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return contacts.Report{}, false
	}
	defaults := strings.TrimSpace(req.DefaultCountryArea)
	if defaults == "" {
		defaults = h.defaultCountryArea
	}
	report := contacts.Validate(req.Rows, req.Mapping, defaults)
	h.logger.Info("contacts validated",
		"total", report.Summary.Total,
		"valid", report.Summary.Valid,
		"invalid", report.Summary.Invalid,
	)
	return report, true
}

// Validate handles POST /api/contacts/validate.
func (h *ContactsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	report, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}
	failures := make([]map[string]any, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, f.Fields())
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Successes: report.Successes,
		Failures:  failures,
		Summary:   report.Summary,
	})
}

// VCard handles POST /api/contacts/vcard and returns a vCard 3.0 file of the
// valid rows.
func (h *ContactsHandler) VCard(w http.ResponseWriter, r *http.Request) {
	report, ok := h.decodeAndValidate(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	n, err := contacts.WriteVCard(&buf, report.Successes)
	if err != nil {
		h.logger.Error("vcard generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate contacts file")
		return
	}
	if n == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no valid contacts to export")
		return
	}
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contatos.vcf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type detectColumnsRequest struct {
	Headers []string `json:"headers"`
}

type detectColumnsResponse struct {
	contacts.ColumnGuess
	SuggestedMapping contacts.ColumnMapping `json:"suggestedMapping"`
}

// DetectColumns handles POST /api/detect-columns.
func (h *ContactsHandler) DetectColumns(w http.ResponseWriter, r *http.Request) {
	var req detectColumnsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Headers) == 0 {
		writeError(w, http.StatusBadRequest, "headers are required")
		return
	}
	writeJSON(w, http.StatusOK, detectColumnsResponse{
		ColumnGuess:      contacts.DetectColumns(req.Headers),
		SuggestedMapping: contacts.SuggestMapping(req.Headers),
	})
}
