package farm

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account that can own farms or be a member of them.
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Email     string `gorm:"size:255;uniqueIndex"`
	Name      string `gorm:"size:255"`
	Role      string `gorm:"size:32;default:user"`
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (User) TableName() string { return TableUsers }

// Farm is a holding owned by one user.
type Farm struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:255"`
	OwnerID      string `gorm:"size:36;index"`
	Location     string `gorm:"size:255"`
	FarmType     string `gorm:"size:64"`
	SizeHectares *float64
	Description  string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (Farm) TableName() string { return TableFarms }

// FarmMember grants a user access to a farm with a role.
type FarmMember struct {
	ID        string `gorm:"primaryKey;size:36"`
	FarmID    string `gorm:"size:36;index"`
	UserID    string `gorm:"size:36;index"`
	Role      string `gorm:"size:32;default:member"`
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (FarmMember) TableName() string { return TableFarmMembers }

// FarmStatistics is the cached counter row kept per farm.
type FarmStatistics struct {
	ID           string `gorm:"primaryKey;size:36"`
	FarmID       string `gorm:"size:36;uniqueIndex"`
	TotalAnimals int64  `gorm:"default:0"`
	TotalCrops   int64  `gorm:"default:0"`
	TotalTasks   int64  `gorm:"default:0"`
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (FarmStatistics) TableName() string { return TableFarmStatistics }

// Location is a named area of a farm such as a barn or field.
type Location struct {
	ID           string `gorm:"primaryKey;size:36"`
	FarmID       string `gorm:"size:36;index"`
	Name         string `gorm:"size:255"`
	LocationType string `gorm:"size:64"`
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (Location) TableName() string { return TableLocations }

// Animal is one head of livestock.
type Animal struct {
	ID         string     `gorm:"primaryKey;size:36"`
	FarmID     string     `gorm:"size:36;index"`
	LocationID *string    `gorm:"size:36;index"`
	Name       string     `gorm:"size:255"`
	Species    string     `gorm:"size:64;index"`
	Breed      string     `gorm:"size:64"`
	BirthDate  *time.Time `gorm:"type:date"`
	Status     string     `gorm:"size:32;default:active"`
	CreatedAt  *time.Time
	UpdatedAt  *time.Time
}

func (Animal) TableName() string { return TableAnimals }

// Crop is a planting with its expected harvest.
type Crop struct {
	ID                  string     `gorm:"primaryKey;size:36"`
	FarmID              string     `gorm:"size:36;index"`
	LocationID          *string    `gorm:"size:36;index"`
	Name                string     `gorm:"size:255"`
	Variety             string     `gorm:"size:128"`
	PlantingDate        *time.Time `gorm:"type:date"`
	ExpectedHarvestDate *time.Time `gorm:"type:date;index"`
	Status              string     `gorm:"size:32;default:planted"`
	CreatedAt           *time.Time
	UpdatedAt           *time.Time
}

func (Crop) TableName() string { return TableCrops }

// Task is a piece of farm work with a due date.
type Task struct {
	ID          string `gorm:"primaryKey;size:36"`
	FarmID      string `gorm:"size:36;index"`
	Title       string `gorm:"size:255"`
	Description string
	AssignedTo  *string    `gorm:"size:36"`
	DueDate     *time.Time `gorm:"index"`
	Status      string     `gorm:"size:32;default:pending"`
	Priority    string     `gorm:"size:16;default:medium"`
	CompletedAt *time.Time
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

func (Task) TableName() string { return TableTasks }

// FinanceEntry is one income or expense booking.
type FinanceEntry struct {
	ID          string          `gorm:"primaryKey;size:36"`
	FarmID      string          `gorm:"size:36;index"`
	EntryType   string          `gorm:"size:16"`
	Category    string          `gorm:"size:64"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2)"`
	EntryDate   *time.Time      `gorm:"type:date"`
	Description string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

func (FinanceEntry) TableName() string { return TableFinanceEntries }

// InventoryItem is a stocked supply with its reorder level.
type InventoryItem struct {
	ID           string          `gorm:"primaryKey;size:36"`
	FarmID       string          `gorm:"size:36;index"`
	Name         string          `gorm:"size:255"`
	Category     string          `gorm:"size:64"`
	Quantity     decimal.Decimal `gorm:"type:decimal(14,3);default:0"`
	Unit         string          `gorm:"size:32"`
	ReorderLevel decimal.Decimal `gorm:"type:decimal(14,3);default:0"`
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (InventoryItem) TableName() string { return TableInventoryItems }

// InventoryTransaction is one ledger line of an inventory item.
type InventoryTransaction struct {
	ID              string          `gorm:"primaryKey;size:36"`
	InventoryItemID string          `gorm:"size:36;index"`
	QuantityChange  decimal.Decimal `gorm:"type:decimal(14,3)"`
	Reason          string          `gorm:"size:255"`
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

func (InventoryTransaction) TableName() string { return TableInventoryTransactions }

// AuditLogEntry records who did what to which row. Details holds JSON.
type AuditLogEntry struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;index"`
	Action    string `gorm:"size:64"`
	Resource  string `gorm:"size:64;index"`
	RecordID  string `gorm:"size:36;index"`
	Details   string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (AuditLogEntry) TableName() string { return TableAuditLogs }
