package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/contact-dispatch/internal/dispatch"
	"github.com/wolfman30/contact-dispatch/internal/whatsapp"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

type stubDispatcher struct {
	submitted dispatch.Submission
	submitErr error
	job       *dispatch.Job
	statusErr error
}

func (s *stubDispatcher) Submit(_ context.Context, sub dispatch.Submission) (*dispatch.Receipt, error) {
	s.submitted = sub
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &dispatch.Receipt{
		JobID:         "whatsapp_job_01TEST",
		Status:        dispatch.StatusProcessing,
		TotalContacts: len(sub.Contacts),
		EstimatedTime: 0.1 * float64(len(sub.Contacts)),
	}, nil
}

func (s *stubDispatcher) Status(_ context.Context, jobID string) (*dispatch.Job, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.job, nil
}

const batchBody = `{
	"contacts": [
		{"id": "1", "name": "Ana", "phone": "+55 31 98765-4321", "cleanedPhone": "5531987654321"},
		{"id": "2", "name": "Pedro", "phone": "31912345678"}
	],
	"message": "Olá {name}",
	"credentials": {"accessToken": "token", "phoneNumberId": "1234567890", "templateName": "aviso"}
}`

func TestSendBatch_Accepted(t *testing.T) {
	stub := &stubDispatcher{}
	h := NewDispatchHandler(stub, logging.Default())
	rec := httptest.NewRecorder()
	h.SendBatch(rec, httptest.NewRequest(http.MethodPost, "/api/send-whatsapp-batch", strings.NewReader(batchBody)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"jobId":"whatsapp_job_01TEST","status":"processing","totalContacts":2,"estimatedTime":0.2}`, rec.Body.String())
	require.Len(t, stub.submitted.Contacts, 2)
	assert.Equal(t, "5531987654321", stub.submitted.Contacts[0].CleanedPhone)
	assert.Equal(t, dispatch.Message("Olá {name}"), stub.submitted.Message)
	assert.Equal(t, "aviso", stub.submitted.Credentials.TemplateName)
}

func TestSendBatch_AcceptsNumericContactIDs(t *testing.T) {
	body := `{
		"contacts": [
			{"id": 1, "name": "Ana", "phone": "+55 31 98765-4321", "cleanedPhone": "+5531987654321"},
			{"id": 2, "name": "Pedro", "phone": "31912345678"}
		],
		"message": "Olá {name}",
		"credentials": {"accessToken": "token", "phoneNumberId": "1234567890"}
	}`
	stub := &stubDispatcher{}
	h := NewDispatchHandler(stub, logging.Default())
	rec := httptest.NewRecorder()
	h.SendBatch(rec, httptest.NewRequest(http.MethodPost, "/api/send-whatsapp-batch", strings.NewReader(body)))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, stub.submitted.Contacts, 2)
	assert.Equal(t, dispatch.NumericContactID(1), stub.submitted.Contacts[0].ID)
	assert.Equal(t, dispatch.NumericContactID(2), stub.submitted.Contacts[1].ID)
}

func TestSendBatch_Rejections(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"no contacts", dispatch.ErrNoContacts, http.StatusBadRequest},
		{"missing credential", dispatch.ErrMissingCredential, http.StatusBadRequest},
		{"tracking down", errors.New("dispatch: record job: redis down"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewDispatchHandler(&stubDispatcher{submitErr: tc.err}, logging.Default())
			rec := httptest.NewRecorder()
			h.SendBatch(rec, httptest.NewRequest(http.MethodPost, "/api/send-whatsapp-batch", strings.NewReader(batchBody)))
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	h := NewDispatchHandler(&stubDispatcher{}, logging.Default())
	rec := httptest.NewRecorder()
	h.SendBatch(rec, httptest.NewRequest(http.MethodPost, "/api/send-whatsapp-batch", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jobStatusRequest(h *DispatchHandler, id string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/api/job-status/{jobID}", h.JobStatus)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/job-status/"+id, nil))
	return rec
}

func TestJobStatus(t *testing.T) {
	job := &dispatch.Job{
		ID:        "whatsapp_job_01TEST",
		Status:    dispatch.StatusCompleted,
		Total:     2,
		Completed: 1,
		Failed:    1,
		Results: []dispatch.Result{
			{ContactID: dispatch.StringContactID("1"), Phone: "5531987654321", Success: true, MessageID: "wamid.1"},
			{ContactID: dispatch.NumericContactID(2), Phone: "553191234567", Error: "whatsapp: HTTP 400: bad recipient"},
		},
	}
	rec := jobStatusRequest(NewDispatchHandler(&stubDispatcher{job: job}, logging.Default()), job.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "completed", body["status"])
	assert.EqualValues(t, 2, body["total"])
	results := body["results"].([]any)
	assert.Equal(t, "wamid.1", results[0].(map[string]any)["messageId"])
	assert.Equal(t, "1", results[0].(map[string]any)["contact_id"])
	assert.Equal(t, float64(2), results[1].(map[string]any)["contact_id"])
}

func TestJobStatus_Errors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{dispatch.ErrInvalidJobID, http.StatusBadRequest},
		{dispatch.ErrJobNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := jobStatusRequest(NewDispatchHandler(&stubDispatcher{statusErr: tc.err}, logging.Default()), "whatsapp_job_x")
		assert.Equal(t, tc.want, rec.Code, "error %v", tc.err)
	}
}

func TestJobStatus_RealDispatcherRejectsInjection(t *testing.T) {
	d := dispatch.New(dispatch.Config{}, dispatch.NewMemoryStore(0), nopTransport{}, logging.Default(), nil)
	rec := jobStatusRequest(NewDispatchHandler(d, logging.Default()), "job%3A%2A")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = jobStatusRequest(NewDispatchHandler(d, logging.Default()), "whatsapp_job_unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type nopTransport struct{}

func (nopTransport) SendMessage(context.Context, whatsapp.SendMessageRequest) (*whatsapp.MessageResponse, error) {
	return &whatsapp.MessageResponse{}, nil
}
