package core

import (
	"fmt"
	"regexp"
)

type PrinterStatus string

const (
	StatusIdle         PrinterStatus = "IDLE"
	StatusReady        PrinterStatus = "READY"
	StatusPrinting     PrinterStatus = "PRINTING"
	StatusError        PrinterStatus = "ERROR"
	StatusOffline      PrinterStatus = "OFFLINE"
	StatusDisconnected PrinterStatus = "DISCONNECTED"
)

var validPrinterStatuses = map[PrinterStatus]bool{
	StatusIdle:         true,
	StatusReady:        true,
	StatusPrinting:     true,
	StatusError:        true,
	StatusOffline:      true,
	StatusDisconnected: true,
}

func (s PrinterStatus) Valid() bool {
	return validPrinterStatuses[s]
}

type InterfaceType string

const (
	InterfaceLAN       InterfaceType = "LAN"
	InterfaceOctoPrint InterfaceType = "OCTOPRINT"
	InterfaceTroubled  InterfaceType = "TROUBLED"
)

var validInterfaceTypes = map[InterfaceType]bool{
	InterfaceLAN:       true,
	InterfaceOctoPrint: true,
	InterfaceTroubled:  true,
}

func (t InterfaceType) Valid() bool {
	return validInterfaceTypes[t]
}

type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobScheduled JobStatus = "SCHEDULED"
	JobPrinting  JobStatus = "PRINTING"
	JobDone      JobStatus = "DONE"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

var validJobStatuses = map[JobStatus]bool{
	JobQueued:    true,
	JobScheduled: true,
	JobPrinting:  true,
	JobDone:      true,
	JobFailed:    true,
	JobCancelled: true,
}

func (s JobStatus) Valid() bool {
	return validJobStatuses[s]
}

func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed || s == JobCancelled
}

// ValidateJobTransition enforces the lifecycle state machine:
//
//	QUEUED|SCHEDULED -> PRINTING
//	PRINTING         -> DONE | FAILED
//	any non-terminal -> CANCELLED
func ValidateJobTransition(from, to JobStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: invalid job status %q", ErrValidation, to)
	}
	if from == to {
		return nil
	}
	if from.Terminal() {
		return fmt.Errorf("%w: job in terminal state %s cannot change status", ErrValidation, from)
	}
	if to == JobCancelled {
		return nil
	}
	switch from {
	case JobQueued, JobScheduled:
		if to == JobPrinting {
			return nil
		}
	case JobPrinting:
		if to == JobDone || to == JobFailed {
			return nil
		}
	}
	return fmt.Errorf("%w: job cannot transition from %s to %s", ErrValidation, from, to)
}

// Identifiers are 128-bit random UUIDs in the canonical 8-4-4-4-12 form.
// Anything else is rejected before storage is touched.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-([0-9a-fA-F]{4}-){3}[0-9a-fA-F]{12}$`)

func ValidUUID(id string) bool {
	return uuidPattern.MatchString(id)
}

func validateUUIDField(name, id string) error {
	if !ValidUUID(id) {
		return fmt.Errorf("%w: %s must be a valid UUID", ErrValidation, name)
	}
	return nil
}
