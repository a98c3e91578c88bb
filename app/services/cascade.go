package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CascadeLog records the second step of a two-step write. Recording is best
// effort: a failure to write the record is logged and never blocks the step
// itself.
type CascadeLog struct {
	repo repositories.CascadeRepository
	now  func() time.Time
}

func NewCascadeLog(repo repositories.CascadeRepository) *CascadeLog {
	return &CascadeLog{repo: repo, now: models.Now}
}

// Begin records a pending cascade and returns its id, or NilObjectID when the
// record could not be written.
func (l *CascadeLog) Begin(ctx context.Context, kind, sourceID, target string) primitive.ObjectID {
	at := l.now()
	c := models.Cascade{
		Kind:      kind,
		SourceID:  sourceID,
		Target:    target,
		State:     models.CascadePending,
		CreatedAt: at,
		UpdatedAt: at,
	}
	id, err := l.repo.Insert(ctx, &c)
	if err != nil {
		logger.WithCtx(ctx).Error("cascade record not written",
			"kind", kind, "source_id", sourceID, "target", target, "error", err)
		return primitive.NilObjectID
	}
	return id
}

// Finish moves a cascade to its final state.
func (l *CascadeLog) Finish(ctx context.Context, id primitive.ObjectID, kind string, state models.CascadeState, detail string) {
	metrics.RecordCascade(kind, string(state))
	if id.IsZero() {
		return
	}
	if err := l.repo.SetState(ctx, id, state, detail, l.now()); err != nil {
		logger.WithCtx(ctx).Error("cascade state not written",
			"cascade_id", id.Hex(), "kind", kind, "state", state, "error", err)
	}
}

// List returns cascade records newest first.
func (l *CascadeLog) List(ctx context.Context, state models.CascadeState, limit int) ([]models.Cascade, error) {
	records, err := l.repo.List(ctx, state, limit)
	if err != nil {
		return nil, internal("Failed to list cascades", err)
	}
	return records, nil
}
