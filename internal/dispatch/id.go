package dispatch

import (
	"crypto/rand"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const jobIDPrefix = "whatsapp_job_"

// ErrInvalidJobID rejects ids that could not have been issued here.
var ErrInvalidJobID = errors.New("dispatch: invalid job id")

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewJobID returns a unique, time-ordered job id.
func NewJobID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return jobIDPrefix + ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}

// ValidateJobID checks an id before it is used as a storage key.
func ValidateJobID(id string) error {
	if !jobIDPattern.MatchString(id) {
		return ErrInvalidJobID
	}
	return nil
}
