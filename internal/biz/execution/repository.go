package execution

import (
	"context"

	"github.com/samber/mo"
)

type Repo interface {
	Create(ctx context.Context, execution *Execution) error
	GetByID(ctx context.Context, id uint64) (*Execution, error)
	Save(ctx context.Context, execution *Execution) error

	// ListActive returns all executions not yet in a terminal state,
	// the tracker's polling set.
	ListActive(ctx context.Context) ([]*Execution, error)

	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*Execution, int64, error)
}

type ListFilter struct {
	ReportID    mo.Option[uint64]
	SegmentID   mo.Option[uint64]
	Status      mo.Option[Status]
	TriggerKind mo.Option[TriggerKind]
}
