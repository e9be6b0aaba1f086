package farm

import "github.com/Aleph-Alpha/farmstore/v1/store"

// Repositories bundles every repository of the farm domain over one facade.
type Repositories struct {
	Users     *UserRepository
	Farms     *FarmRepository
	Locations Repository
	Animals   *AnimalRepository
	Crops     *CropRepository
	Tasks     *TaskRepository
	Finance   *FinanceRepository
	Inventory *InventoryRepository
	Audit     *AuditLog
}

// NewRepositories creates all repositories. logger receives audit write
// failures and may be nil.
func NewRepositories(f *store.Facade, logger Logger) *Repositories {
	audit := NewAuditLog(f, logger)
	return &Repositories{
		Users:     NewUserRepository(f),
		Farms:     NewFarmRepository(f, audit),
		Locations: NewRepository(f, TableLocations),
		Animals:   NewAnimalRepository(f),
		Crops:     NewCropRepository(f),
		Tasks:     NewTaskRepository(f),
		Finance:   NewFinanceRepository(f),
		Inventory: NewInventoryRepository(f, audit),
		Audit:     audit,
	}
}
