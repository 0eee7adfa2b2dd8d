package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/wolfman30/contact-dispatch/internal/observability/metrics"
	"github.com/wolfman30/contact-dispatch/internal/whatsapp"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

const (
	minDialableDigits    = 10
	namePlaceholder      = "{name}"
	secondsPerContactETA = 0.1
)

var (
	// ErrNoContacts rejects submissions with an empty contact list.
	ErrNoContacts = errors.New("dispatch: no contacts provided")
	// ErrMissingCredential rejects submissions without an access token or
	// phone number id.
	ErrMissingCredential = errors.New("dispatch: missing credential")
)

// Transport delivers one message. *whatsapp.Client satisfies it.
type Transport interface {
	SendMessage(ctx context.Context, req whatsapp.SendMessageRequest) (*whatsapp.MessageResponse, error)
}

// Config tunes batching. Zero values fall back to DefaultConfig.
type Config struct {
	BatchSize   int
	BatchDelay  time.Duration
	SendTimeout time.Duration
	// StrictTracking rejects a submission when its initial job record cannot
	// be written. When false the job runs anyway and each later write is
	// attempted independently.
	StrictTracking  bool
	DefaultLanguage string
}

func DefaultConfig() Config {
	return Config{
		BatchSize:       10,
		BatchDelay:      time.Second,
		SendTimeout:     30 * time.Second,
		DefaultLanguage: "pt_BR",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = def.BatchDelay
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = def.SendTimeout
	}
	if strings.TrimSpace(c.DefaultLanguage) == "" {
		c.DefaultLanguage = def.DefaultLanguage
	}
	return c
}

// Dispatcher runs batch jobs. Each job owns its contact slice and its store
// key; jobs never share state.
type Dispatcher struct {
	cfg       Config
	store     Store
	transport Transport
	logger    *logging.Logger
	metrics   *metrics.DispatchMetrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
	newID func() string

	wg sync.WaitGroup
}

func New(cfg Config, store Store, transport Transport, logger *logging.Logger, m *metrics.DispatchMetrics) *Dispatcher {
	if store == nil {
		panic("dispatch: store cannot be nil")
	}
	if transport == nil {
		panic("dispatch: transport cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		cfg:       cfg.withDefaults(),
		store:     store,
		transport: transport,
		logger:    logger,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     sleepContext,
		newID:     NewJobID,
	}
}

// Submit validates a submission, starts its job in the background and
// returns immediately. The job outlives ctx; use Wait to drain on shutdown.
func (d *Dispatcher) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	if len(sub.Contacts) == 0 {
		return nil, ErrNoContacts
	}
	if strings.TrimSpace(sub.Credentials.AccessToken) == "" {
		return nil, fmt.Errorf("%w: accessToken", ErrMissingCredential)
	}
	if strings.TrimSpace(sub.Credentials.PhoneNumberID) == "" {
		return nil, fmt.Errorf("%w: phoneNumberId", ErrMissingCredential)
	}

	job := newJob(d.newID(), len(sub.Contacts), d.now())
	err := d.store.Save(ctx, job)
	d.metrics.ObserveStoreWrite("initial", err)
	if err != nil {
		if d.cfg.StrictTracking {
			return nil, fmt.Errorf("dispatch: record job: %w", err)
		}
		d.logger.Warn("initial job write failed, dispatching without tracking", "job_id", job.ID, "error", err)
	}

	contacts := append([]Contact(nil), sub.Contacts...)
	runCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(runCtx, job, contacts, sub.Message, sub.Credentials)
	}()

	return &Receipt{
		JobID:         job.ID,
		Status:        StatusProcessing,
		TotalContacts: len(contacts),
		EstimatedTime: float64(len(contacts)) * secondsPerContactETA,
	}, nil
}

// Run executes a job synchronously under the given id, writing the initial
// record itself, and returns the final state.
func (d *Dispatcher) Run(ctx context.Context, jobID string, contacts []Contact, msg Message, creds Credentials) *Job {
	job := newJob(jobID, len(contacts), d.now())
	d.save(ctx, job, "initial")
	return d.run(ctx, job, contacts, msg, creds)
}

// Status returns the tracked state of a job. Malformed ids are rejected
// before the store is touched.
func (d *Dispatcher) Status(ctx context.Context, jobID string) (*Job, error) {
	if err := ValidateJobID(jobID); err != nil {
		return nil, err
	}
	return d.store.Get(ctx, jobID)
}

// Wait blocks until every submitted job has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, job *Job, contacts []Contact, msg Message, creds Credentials) *Job {
	logger := d.logger.With("job_id", job.ID)
	logger.Info("dispatch job started", "total", job.Total, "batch_size", d.cfg.BatchSize)
	d.metrics.ObserveJob("started")

	for start := 0; start < len(contacts); start += d.cfg.BatchSize {
		end := min(start+d.cfg.BatchSize, len(contacts))
		batchStart := time.Now()
		for _, c := range contacts[start:end] {
			job.record(d.send(ctx, logger, c, msg, creds))
		}
		d.metrics.ObserveBatch(time.Since(batchStart).Seconds())
		job.UpdatedAt = d.now()
		d.save(ctx, job, "progress")
		if end < len(contacts) {
			d.sleep(ctx, d.cfg.BatchDelay)
		}
	}

	job.Status = StatusCompleted
	job.UpdatedAt = d.now()
	d.save(ctx, job, "final")
	d.metrics.ObserveJob("completed")
	logger.Info("dispatch job completed", "completed", job.Completed, "failed", job.Failed)
	return job
}

func (d *Dispatcher) save(ctx context.Context, job *Job, phase string) {
	err := d.store.Save(ctx, job)
	d.metrics.ObserveStoreWrite(phase, err)
	if err != nil {
		d.logger.Warn("job tracking write failed", "job_id", job.ID, "phase", phase, "error", err)
	}
}

func (d *Dispatcher) send(ctx context.Context, logger *logging.Logger, c Contact, msg Message, creds Credentials) (res Result) {
	phone := c.dialable()
	res = Result{ContactID: c.ID, Phone: phone, Timestamp: d.now()}

	if !isDialable(phone) {
		res.Error = fmt.Sprintf("invalid phone number: must contain only digits and at least %d of them", minDialableDigits)
		d.metrics.ObserveSend("invalid_phone")
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.MessageID = ""
			res.Error = fmt.Sprintf("transport panic: %v", r)
			d.metrics.ObserveSend("failure")
			logger.Error("transport panicked", "phone", logging.MaskPhone(phone), "panic", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()
	resp, err := d.transport.SendMessage(callCtx, buildRequest(c, phone, msg, creds, d.cfg.DefaultLanguage))
	if err != nil {
		res.Error = err.Error()
		d.metrics.ObserveSend("failure")
		logger.Warn("message send failed", "phone", logging.MaskPhone(phone), "error", err)
		return res
	}
	res.Success = true
	res.MessageID = resp.MessageID()
	d.metrics.ObserveSend("success")
	return res
}

func buildRequest(c Contact, phone string, msg Message, creds Credentials, defaultLanguage string) whatsapp.SendMessageRequest {
	req := whatsapp.SendMessageRequest{
		PhoneNumberID: creds.PhoneNumberID,
		AccessToken:   creds.AccessToken,
		To:            phone,
	}
	if name := strings.TrimSpace(creds.TemplateName); name != "" {
		lang := strings.TrimSpace(creds.LanguageCode)
		if lang == "" {
			lang = defaultLanguage
		}
		req.Template = &whatsapp.Template{
			Name:           name,
			Language:       lang,
			BodyParameters: []string{stripControl(c.Name)},
		}
		return req
	}
	req.Text = stripControl(strings.ReplaceAll(string(msg), namePlaceholder, c.Name))
	return req
}

func isDialable(phone string) bool {
	if len(phone) < minDialableDigits {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripControl drops control characters other than newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
