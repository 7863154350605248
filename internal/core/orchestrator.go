package core

import (
	"context"

	"github.com/printnet/printnet/internal/db"
)

// IdentityResolver maps an authenticated identity onto a durable user
// profile, creating one on first sight.
type IdentityResolver interface {
	ResolveOrCreateUser(ctx context.Context, authID string) (*db.User, error)
}

// Orchestrator composes the registry, queue engine, and job lifecycle into
// the two supported multi-step workflows: submitting a job to a printer's
// queue and completing a job. Everything else is single-entity CRUD on the
// underlying services.
type Orchestrator struct {
	jobs     *JobService
	identity IdentityResolver
}

func NewOrchestrator(jobs *JobService, identity IdentityResolver) *Orchestrator {
	return &Orchestrator{jobs: jobs, identity: identity}
}

// SubmitToPrinterQueue resolves the caller's durable user id from the opaque
// auth id, then creates and enqueues the job atomically.
func (o *Orchestrator) SubmitToPrinterQueue(ctx context.Context, printerID, authID string, p SubmitParams) (*db.Job, *db.QueueEntry, error) {
	user, err := o.identity.ResolveOrCreateUser(ctx, authID)
	if err != nil {
		return nil, nil, err
	}

	p.PrinterID = printerID
	p.UserID = user.ID
	return o.jobs.Submit(ctx, p)
}

// CompleteJob marks a job finished and compacts its queue.
func (o *Orchestrator) CompleteJob(ctx context.Context, jobID string) (*db.Job, error) {
	return o.jobs.Finish(ctx, jobID)
}
