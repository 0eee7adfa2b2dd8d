// Package dispatch runs bulk WhatsApp send jobs in fixed-size batches and
// tracks their progress in a TTL-bounded job store.
package dispatch

import (
	"strings"
	"time"
)

// Status is the lifecycle of a dispatch job. There is no failed status: a job
// always runs to completion and failures are recorded per contact.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Contact is one recipient. CleanedPhone wins over Phone when present.
type Contact struct {
	ID           ContactID `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	CleanedPhone string    `json:"cleanedPhone,omitempty"`
}

// dialable is the number handed to the provider: the cleaned phone (or the
// raw one) without any "+".
func (c Contact) dialable() string {
	p := c.CleanedPhone
	if strings.TrimSpace(p) == "" {
		p = c.Phone
	}
	return strings.ReplaceAll(strings.TrimSpace(p), "+", "")
}

// Result records one send attempt.
type Result struct {
	ContactID ContactID `json:"contact_id" dynamodbav:"contact_id"`
	Phone     string    `json:"phone" dynamodbav:"phone"`
	Success   bool      `json:"success" dynamodbav:"success"`
	MessageID string    `json:"messageId,omitempty" dynamodbav:"messageId,omitempty"`
	Error     string    `json:"error,omitempty" dynamodbav:"error,omitempty"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
}

// Job is the tracked state of one batch dispatch. Completed counts attempts
// that succeeded and Failed counts the rest, so Completed+Failed is the number
// of contacts processed so far.
type Job struct {
	ID        string    `json:"jobId" dynamodbav:"jobId"`
	Status    Status    `json:"status" dynamodbav:"status"`
	Total     int       `json:"total" dynamodbav:"total"`
	Completed int       `json:"completed" dynamodbav:"completed"`
	Failed    int       `json:"failed" dynamodbav:"failed"`
	Results   []Result  `json:"results" dynamodbav:"results"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

func newJob(id string, total int, now time.Time) *Job {
	return &Job{
		ID:        id,
		Status:    StatusProcessing,
		Total:     total,
		Results:   []Result{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (j *Job) record(r Result) {
	j.Results = append(j.Results, r)
	if r.Success {
		j.Completed++
	} else {
		j.Failed++
	}
}

// Processed is the number of contacts attempted so far.
func (j *Job) Processed() int {
	return j.Completed + j.Failed
}

// Message is the text body of a submission. "{name}" is replaced per
// contact.
type Message string

// Credentials carry the caller's WhatsApp Business account. A non-empty
// TemplateName switches the job to template messages.
type Credentials struct {
	AccessToken   string `json:"accessToken"`
	PhoneNumberID string `json:"phoneNumberId"`
	TemplateName  string `json:"templateName,omitempty"`
	LanguageCode  string `json:"languageCode,omitempty"`
}

// Submission is a batch send request.
type Submission struct {
	Contacts    []Contact   `json:"contacts"`
	Message     Message     `json:"message"`
	Credentials Credentials `json:"credentials"`
}

// Receipt is returned as soon as a job is accepted.
type Receipt struct {
	JobID         string  `json:"jobId"`
	Status        Status  `json:"status"`
	TotalContacts int     `json:"totalContacts"`
	EstimatedTime float64 `json:"estimatedTime"`
}
