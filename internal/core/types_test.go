package core

import (
	"errors"
	"testing"
)

func TestValidateJobTransition(t *testing.T) {
	tests := []struct {
		from, to JobStatus
		ok       bool
	}{
		{JobQueued, JobPrinting, true},
		{JobScheduled, JobPrinting, true},
		{JobPrinting, JobDone, true},
		{JobPrinting, JobFailed, true},
		{JobQueued, JobCancelled, true},
		{JobScheduled, JobCancelled, true},
		{JobPrinting, JobCancelled, true},
		{JobQueued, JobQueued, true},

		{JobQueued, JobDone, false},
		{JobScheduled, JobDone, false},
		{JobQueued, JobFailed, false},
		{JobDone, JobPrinting, false},
		{JobDone, JobCancelled, false},
		{JobFailed, JobQueued, false},
		{JobCancelled, JobPrinting, false},
		{JobQueued, JobStatus("EXPLODED"), false},
	}

	for _, tt := range tests {
		err := ValidateJobTransition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s -> %s: expected rejection", tt.from, tt.to)
			} else if !errors.Is(err, ErrValidation) {
				t.Errorf("%s -> %s: err = %v, want ErrValidation", tt.from, tt.to, err)
			}
		}
	}
}

func TestValidUUID(t *testing.T) {
	valid := []string{
		"c9bf9e57-1685-4c89-bafb-ff5af830be8a",
		"C9BF9E57-1685-4C89-BAFB-FF5AF830BE8A",
		"00000000-0000-0000-0000-000000000000",
	}
	for _, id := range valid {
		if !ValidUUID(id) {
			t.Errorf("ValidUUID(%q) = false, want true", id)
		}
	}

	invalid := []string{
		"",
		"c9bf9e57",
		"c9bf9e5716854c89bafbff5af830be8a",
		"{c9bf9e57-1685-4c89-bafb-ff5af830be8a}",
		"urn:uuid:c9bf9e57-1685-4c89-bafb-ff5af830be8a",
		"c9bf9e57-1685-4c89-bafb-ff5af830be8a ",
		"g9bf9e57-1685-4c89-bafb-ff5af830be8a",
	}
	for _, id := range invalid {
		if ValidUUID(id) {
			t.Errorf("ValidUUID(%q) = true, want false", id)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, s := range []JobStatus{JobDone, JobFailed, JobCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobQueued, JobScheduled, JobPrinting} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
