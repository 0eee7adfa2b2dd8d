package dispatch

import (
	"strings"
	"testing"
)

func TestNewJobID(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := NewJobID()
		if !strings.HasPrefix(id, jobIDPrefix) {
			t.Fatalf("missing prefix: %s", id)
		}
		if err := ValidateJobID(id); err != nil {
			t.Fatalf("generated id %s failed validation", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		if id <= prev {
			t.Fatalf("ids not monotonic: %s after %s", id, prev)
		}
		seen[id] = struct{}{}
		prev = id
	}
}

func TestValidateJobID(t *testing.T) {
	valid := []string{"whatsapp_job_01HZX", "job-1.2", "a"}
	for _, id := range valid {
		if err := ValidateJobID(id); err != nil {
			t.Fatalf("expected %q to be valid", id)
		}
	}
	invalid := []string{"", "job:1", "job*", "a b", "ção", "job\n", strings.Repeat("x", 129)}
	for _, id := range invalid {
		if err := ValidateJobID(id); err != ErrInvalidJobID {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}
