package farm

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// CropStatusHarvested marks crops excluded from the harvest schedule.
const CropStatusHarvested = "harvested"

// CropRepository stores the crops planted on farms.
type CropRepository struct {
	Repository
}

// NewCropRepository creates the crops repository.
func NewCropRepository(f *store.Facade) *CropRepository {
	return &CropRepository{Repository: NewRepository(f, TableCrops)}
}

// ListByFarm returns the crops of farmID.
func (r *CropRepository) ListByFarm(ctx context.Context, farmID string, opts store.FindOptions) ([]engine.Row, error) {
	return r.FindMany(ctx, store.Filters{"farm_id": farmID}, opts)
}

// HarvestSchedule returns the crops of farmID not yet harvested whose
// expected harvest date falls within [from, to], earliest first.
func (r *CropRepository) HarvestSchedule(ctx context.Context, farmID string, from, to time.Time) ([]engine.Row, error) {
	if to.Before(from) {
		return nil, invalid("harvest window ends before it starts", map[string]any{
			"from": Date(from),
			"to":   Date(to),
		})
	}

	res, err := r.query(ctx, store.OpQuery,
		"SELECT * FROM crops WHERE farm_id = ? AND status <> ? "+
			"AND expected_harvest_date >= ? AND expected_harvest_date <= ? "+
			"ORDER BY expected_harvest_date ASC LIMIT ?",
		farmID, CropStatusHarvested, Date(from), Date(to), r.facade.ClampLimit(0))
	if err != nil {
		return nil, err
	}
	return rows(res), nil
}
