package controller

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ipaas-org/airflow-publisher/model"
)

func (c *Controller) newPublication(ctx context.Context, role model.Role, buildFile string, ref model.ImageReference) *model.Publication {
	now := time.Now().UTC()
	p := &model.Publication{
		ID:        uuid.NewString(),
		Role:      role,
		BuildFile: buildFile,
		LocalRef:  ref.Local(),
		State:     model.PublicationStateAuthenticating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.PublicationRepo != nil {
		if err := c.PublicationRepo.Insert(ctx, p); err != nil {
			c.l.Errorf("error recording publication %s: %v", p.ID, err)
		}
	}
	return p
}

// transition records the new state; history failures never affect the run.
func (c *Controller) transition(ctx context.Context, p *model.Publication, state model.PublicationState) {
	p.State = state
	p.UpdatedAt = time.Now().UTC()
	c.l.Debugf("publication %s: %s", p.ID, state)
	if c.PublicationRepo == nil {
		return
	}
	if _, err := c.PublicationRepo.UpdateState(ctx, p); err != nil {
		c.l.Errorf("error updating publication %s to %s: %v", p.ID, state, err)
	}
}

func (c *Controller) fail(ctx context.Context, p *model.Publication, step model.Step, err error) error {
	stepErr := &StepError{Step: step, Err: err}
	c.l.Errorf("%s %s: %v", p.Role, step, err)
	p.FailedStep = step
	p.Message = err.Error()
	c.transition(ctx, p, model.PublicationStateFailed)
	return stepErr
}
