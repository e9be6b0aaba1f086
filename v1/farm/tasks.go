package farm

import (
	"context"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// TaskRepository stores farm tasks.
type TaskRepository struct {
	Repository
}

// NewTaskRepository creates the tasks repository.
func NewTaskRepository(f *store.Facade) *TaskRepository {
	return &TaskRepository{Repository: NewRepository(f, TableTasks)}
}

// ListByFarm returns the tasks of farmID, by due date unless opts orders them.
func (r *TaskRepository) ListByFarm(ctx context.Context, farmID string, opts store.FindOptions) ([]engine.Row, error) {
	if opts.OrderBy == "" {
		opts.OrderBy = "due_date"
	}
	return r.FindMany(ctx, store.Filters{"farm_id": farmID}, opts)
}

// ListOverdue returns the open tasks of farmID whose due date has passed,
// oldest first.
func (r *TaskRepository) ListOverdue(ctx context.Context, farmID string) ([]engine.Row, error) {
	res, err := r.query(ctx, store.OpQuery,
		"SELECT * FROM tasks WHERE farm_id = ? AND status <> ? "+
			"AND due_date IS NOT NULL AND due_date < ? ORDER BY due_date ASC LIMIT ?",
		farmID, TaskStatusCompleted, Timestamp(r.now()), r.facade.ClampLimit(0))
	if err != nil {
		return nil, err
	}
	return rows(res), nil
}

// Complete marks the task completed now and returns it.
func (r *TaskRepository) Complete(ctx context.Context, id string) (engine.Row, error) {
	return r.Update(ctx, id, map[string]any{
		"status":       TaskStatusCompleted,
		"completed_at": Timestamp(r.now()),
	})
}
