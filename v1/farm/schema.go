package farm

import "github.com/Aleph-Alpha/farmstore/v1/store"

// Whitelisted tables.
const (
	TableUsers                 = "users"
	TableFarms                 = "farms"
	TableFarmMembers           = "farm_members"
	TableFarmStatistics        = "farm_statistics"
	TableLocations             = "locations"
	TableAnimals               = "animals"
	TableCrops                 = "crops"
	TableTasks                 = "tasks"
	TableFinanceEntries        = "finance_entries"
	TableInventoryItems        = "inventory_items"
	TableInventoryTransactions = "inventory_transactions"
	TableAuditLogs             = "audit_logs"
)

var tables = []string{
	TableUsers,
	TableFarms,
	TableFarmMembers,
	TableFarmStatistics,
	TableLocations,
	TableAnimals,
	TableCrops,
	TableTasks,
	TableFinanceEntries,
	TableInventoryItems,
	TableInventoryTransactions,
	TableAuditLogs,
}

var dependencyRules = []store.DependencyRule{
	{ParentTable: TableFarms, ChildTable: TableAnimals, ForeignKeyColumn: "farm_id"},
	{ParentTable: TableFarms, ChildTable: TableCrops, ForeignKeyColumn: "farm_id"},
	{ParentTable: TableFarms, ChildTable: TableTasks, ForeignKeyColumn: "farm_id"},
	{ParentTable: TableFarms, ChildTable: TableFinanceEntries, ForeignKeyColumn: "farm_id"},
	{ParentTable: TableFarms, ChildTable: TableInventoryItems, ForeignKeyColumn: "farm_id"},
	{ParentTable: TableFarms, ChildTable: TableLocations, ForeignKeyColumn: "farm_id"},
	{ParentTable: TableLocations, ChildTable: TableAnimals, ForeignKeyColumn: "location_id"},
	{ParentTable: TableLocations, ChildTable: TableCrops, ForeignKeyColumn: "location_id"},
	{ParentTable: TableInventoryItems, ChildTable: TableInventoryTransactions, ForeignKeyColumn: "inventory_item_id"},
	{ParentTable: TableUsers, ChildTable: TableFarms, ForeignKeyColumn: "owner_id"},
}

// Schema returns the table whitelist and dependency rules of the farm domain.
// Every table carries created_at and updated_at.
func Schema() *store.Schema {
	ts := make([]store.Table, len(tables))
	for i, name := range tables {
		ts[i] = store.Table{Name: name, Timestamps: true}
	}
	return store.MustSchema(ts, dependencyRules)
}

// Models returns the gorm models of every whitelisted table, for migration.
func Models() []any {
	return []any{
		&User{},
		&Farm{},
		&FarmMember{},
		&FarmStatistics{},
		&Location{},
		&Animal{},
		&Crop{},
		&Task{},
		&FinanceEntry{},
		&InventoryItem{},
		&InventoryTransaction{},
		&AuditLogEntry{},
	}
}
