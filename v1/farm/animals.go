package farm

import (
	"context"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// AnimalRepository stores the livestock of farms.
type AnimalRepository struct {
	Repository
}

// NewAnimalRepository creates the animals repository.
func NewAnimalRepository(f *store.Facade) *AnimalRepository {
	return &AnimalRepository{Repository: NewRepository(f, TableAnimals)}
}

// FindEnriched returns the animal with farm_name and location_name joined
// in, or nil when it does not exist.
func (r *AnimalRepository) FindEnriched(ctx context.Context, id string) (engine.Row, error) {
	res, err := r.query(ctx, store.OpFirst,
		"SELECT a.*, f.name AS farm_name, l.name AS location_name FROM animals a "+
			"JOIN farms f ON f.id = a.farm_id "+
			"LEFT JOIN locations l ON l.id = a.location_id "+
			"WHERE a.id = ? LIMIT 1",
		id)
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

// ListByFarm returns the animals of farmID, by name unless opts orders them.
func (r *AnimalRepository) ListByFarm(ctx context.Context, farmID string, opts store.FindOptions) ([]engine.Row, error) {
	if opts.OrderBy == "" {
		opts.OrderBy = "name"
	}
	return r.FindMany(ctx, store.Filters{"farm_id": farmID}, opts)
}

// CountBySpecies returns the number of animals of farmID per species.
func (r *AnimalRepository) CountBySpecies(ctx context.Context, farmID string) (map[string]int64, error) {
	res, err := r.query(ctx, store.OpQuery,
		"SELECT species, COUNT(*) AS count FROM animals WHERE farm_id = ? GROUP BY species ORDER BY species",
		farmID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(res.Rows))
	for _, row := range res.Rows {
		n, err := store.ToInt64(row["count"])
		if err != nil {
			return nil, err
		}
		counts[toString(row["species"])] = n
	}
	return counts, nil
}
