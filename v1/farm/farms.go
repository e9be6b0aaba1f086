package farm

import (
	"context"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// Membership roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Statistics are the live counters of a farm.
type Statistics struct {
	FarmID    string
	Animals   int64
	Crops     int64
	Tasks     int64
	OpenTasks int64
	Locations int64
}

// FarmRepository manages farms together with their memberships and
// statistics rows.
type FarmRepository struct {
	Repository
	audit *AuditLog
}

// NewFarmRepository creates the farms repository. Writes are recorded in audit.
func NewFarmRepository(f *store.Facade, audit *AuditLog) *FarmRepository {
	return &FarmRepository{Repository: NewRepository(f, TableFarms), audit: audit}
}

// Create inserts the farm, the owner's membership and a zeroed statistics row
// in one transaction and returns the stored farm.
func (r *FarmRepository) Create(ctx context.Context, ownerID string, data map[string]any) (engine.Row, error) {
	if ownerID == "" {
		return nil, invalid("farm owner is required", nil)
	}

	payload := copyPayload(data)
	payload["owner_id"] = ownerID

	farmOp, farmID, err := r.facade.InsertOperation(TableFarms, payload)
	if err != nil {
		return nil, err
	}
	memberOp, _, err := r.facade.InsertOperation(TableFarmMembers, map[string]any{
		"farm_id": farmID,
		"user_id": ownerID,
		"role":    RoleOwner,
	})
	if err != nil {
		return nil, err
	}
	statsOp, _, err := r.facade.InsertOperation(TableFarmStatistics, map[string]any{
		"farm_id":       farmID,
		"total_animals": 0,
		"total_crops":   0,
		"total_tasks":   0,
	})
	if err != nil {
		return nil, err
	}

	if _, err := r.facade.Transaction(ctx, farmOp, memberOp, statsOp); err != nil {
		return nil, err
	}

	r.audit.Record(ctx, AuditEntry{UserID: ownerID, Action: ActionCreate, Resource: TableFarms, RecordID: farmID})

	row, err := r.FindByID(ctx, farmID)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// AddMember grants userID access to farmID.
func (r *FarmRepository) AddMember(ctx context.Context, farmID, userID, role string) (engine.Row, error) {
	if role == "" {
		role = RoleMember
	}
	return r.facade.Create(ctx, TableFarmMembers, map[string]any{
		"farm_id": farmID,
		"user_id": userID,
		"role":    role,
	})
}

// HasAccess reports whether userID owns farmID or is a member of it.
func (r *FarmRepository) HasAccess(ctx context.Context, userID, farmID string) (bool, error) {
	res, err := r.query(ctx, store.OpFirst,
		"SELECT f.id AS id FROM farms f WHERE f.id = ? AND (f.owner_id = ? OR EXISTS "+
			"(SELECT 1 FROM farm_members m WHERE m.farm_id = f.id AND m.user_id = ?)) LIMIT 1",
		farmID, userID, userID)
	if err != nil {
		return false, err
	}
	return res.First() != nil, nil
}

// ListForUser returns the farms userID owns or is a member of, by name.
func (r *FarmRepository) ListForUser(ctx context.Context, userID string, limit int) ([]engine.Row, error) {
	res, err := r.query(ctx, store.OpQuery,
		"SELECT f.* FROM farms f WHERE f.owner_id = ? OR EXISTS "+
			"(SELECT 1 FROM farm_members m WHERE m.farm_id = f.id AND m.user_id = ?) ORDER BY f.name ASC LIMIT ?",
		userID, userID, r.facade.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return rows(res), nil
}

// Delete removes the farm with its memberships and statistics row in one
// transaction. Farms still referenced by animals, crops, tasks, finance
// entries, inventory items or locations fail DEPENDENCY_VIOLATION.
func (r *FarmRepository) Delete(ctx context.Context, actorID, farmID string) (*store.DeleteResult, error) {
	if err := r.facade.CheckDependencies(ctx, TableFarms, farmID); err != nil {
		return nil, err
	}

	membersOp, err := r.facade.DeleteWhereOperation(TableFarmMembers, store.Filters{"farm_id": farmID})
	if err != nil {
		return nil, err
	}
	statsOp, err := r.facade.DeleteWhereOperation(TableFarmStatistics, store.Filters{"farm_id": farmID})
	if err != nil {
		return nil, err
	}
	farmOp, err := r.facade.DeleteOperation(TableFarms, farmID)
	if err != nil {
		return nil, err
	}

	results, err := r.facade.Transaction(ctx, membersOp, statsOp, farmOp)
	if err != nil {
		return nil, err
	}

	changes := results[len(results)-1].Changes
	if changes > 0 {
		r.audit.Record(ctx, AuditEntry{UserID: actorID, Action: ActionDelete, Resource: TableFarms, RecordID: farmID})
	}
	return &store.DeleteResult{Success: true, Changes: changes}, nil
}

// Statistics counts the rows attached to farmID and stores the totals in
// its statistics row.
func (r *FarmRepository) Statistics(ctx context.Context, farmID string) (*Statistics, error) {
	res, err := r.facade.Store().ExecuteQuery(ctx,
		"SELECT "+
			"(SELECT COUNT(*) FROM animals WHERE farm_id = ?) AS animals, "+
			"(SELECT COUNT(*) FROM crops WHERE farm_id = ?) AS crops, "+
			"(SELECT COUNT(*) FROM tasks WHERE farm_id = ?) AS tasks, "+
			"(SELECT COUNT(*) FROM tasks WHERE farm_id = ? AND status <> ?) AS open_tasks, "+
			"(SELECT COUNT(*) FROM locations WHERE farm_id = ?) AS locations",
		[]any{farmID, farmID, farmID, farmID, TaskStatusCompleted, farmID},
		store.QueryOptions{Operation: store.OpFirst, Table: TableFarmStatistics})
	if err != nil {
		return nil, err
	}

	row := res.First()
	stats := &Statistics{FarmID: farmID}
	for column, dst := range map[string]*int64{
		"animals":    &stats.Animals,
		"crops":      &stats.Crops,
		"tasks":      &stats.Tasks,
		"open_tasks": &stats.OpenTasks,
		"locations":  &stats.Locations,
	} {
		if *dst, err = store.ToInt64(row[column]); err != nil {
			return nil, err
		}
	}

	_, err = r.facade.Store().ExecuteQuery(ctx,
		"UPDATE farm_statistics SET total_animals = ?, total_crops = ?, total_tasks = ?, "+
			"updated_at = CURRENT_TIMESTAMP WHERE farm_id = ?",
		[]any{stats.Animals, stats.Crops, stats.Tasks, farmID},
		store.QueryOptions{Operation: store.OpRun, Table: TableFarmStatistics, SkipRateLimit: true})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
