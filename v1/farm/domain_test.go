package farm

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/farmstore/v1/store"
)

func TestAnimalRepository(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	animals := env.repos.Animals

	farmID := env.create(t, TableFarms, map[string]any{"name": "Acme", "owner_id": "u1"})
	barnID := env.create(t, TableLocations, map[string]any{"farm_id": farmID, "name": "Barn"})
	bessie := env.create(t, TableAnimals, map[string]any{"farm_id": farmID, "location_id": barnID, "name": "Bessie", "species": "cow"})
	env.create(t, TableAnimals, map[string]any{"farm_id": farmID, "name": "Annabelle", "species": "cow"})
	dolly := env.create(t, TableAnimals, map[string]any{"farm_id": farmID, "name": "Dolly", "species": "sheep"})

	t.Run("find enriched", func(t *testing.T) {
		row, err := animals.FindEnriched(ctx, bessie)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, "Bessie", row["name"])
		assert.Equal(t, "Acme", row["farm_name"])
		assert.Equal(t, "Barn", row["location_name"])

		row, err = animals.FindEnriched(ctx, dolly)
		require.NoError(t, err)
		assert.Nil(t, row["location_name"])

		row, err = animals.FindEnriched(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("list by farm", func(t *testing.T) {
		rows, err := animals.ListByFarm(ctx, farmID, store.FindOptions{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Annabelle", rows[0]["name"])
		assert.Equal(t, "Dolly", rows[2]["name"])
	})

	t.Run("count by species", func(t *testing.T) {
		counts, err := animals.CountBySpecies(ctx, farmID)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"cow": 2, "sheep": 1}, counts)
	})

	t.Run("location with animals cannot be deleted", func(t *testing.T) {
		_, err := env.repos.Locations.Delete(ctx, barnID)
		assert.Equal(t, store.CodeDependencyViolation, store.CodeOf(err))
	})
}

func TestCropHarvestSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	day := func(s string) time.Time {
		d, err := time.Parse(dateLayout, s)
		require.NoError(t, err)
		return d
	}

	farmID := env.create(t, TableFarms, map[string]any{"name": "Acme", "owner_id": "u1"})
	late := env.create(t, TableCrops, map[string]any{"farm_id": farmID, "name": "Maize", "expected_harvest_date": "2026-09-20"})
	early := env.create(t, TableCrops, map[string]any{"farm_id": farmID, "name": "Wheat", "expected_harvest_date": "2026-07-01"})
	env.create(t, TableCrops, map[string]any{"farm_id": farmID, "name": "Barley", "expected_harvest_date": "2026-08-01", "status": CropStatusHarvested})
	env.create(t, TableCrops, map[string]any{"farm_id": farmID, "name": "Rye", "expected_harvest_date": "2027-01-10"})

	rows, err := env.repos.Crops.HarvestSchedule(ctx, farmID, day("2026-06-01"), day("2026-12-31"))
	require.NoError(t, err)
	assert.Equal(t, []string{early, late}, ids(rows))

	_, err = env.repos.Crops.HarvestSchedule(ctx, farmID, day("2026-12-31"), day("2026-06-01"))
	assert.Equal(t, store.CodeInvalidParameter, store.CodeOf(err))

	all, err := env.repos.Crops.ListByFarm(ctx, farmID, store.FindOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTaskRepository(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tasks := env.repos.Tasks

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	tasks.now = func() time.Time { return now }

	farmID := env.create(t, TableFarms, map[string]any{"name": "Acme", "owner_id": "u1"})
	overdue := env.create(t, TableTasks, map[string]any{"farm_id": farmID, "title": "Feed", "due_date": Timestamp(now.Add(-2 * time.Hour))})
	older := env.create(t, TableTasks, map[string]any{"farm_id": farmID, "title": "Water", "due_date": Timestamp(now.Add(-48 * time.Hour))})
	env.create(t, TableTasks, map[string]any{"farm_id": farmID, "title": "Harvest", "due_date": Timestamp(now.Add(time.Hour))})
	env.create(t, TableTasks, map[string]any{"farm_id": farmID, "title": "Plan"})
	env.create(t, TableTasks, map[string]any{"farm_id": farmID, "title": "Done", "status": TaskStatusCompleted, "due_date": Timestamp(now.Add(-time.Hour))})

	rows, err := tasks.ListOverdue(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, []string{older, overdue}, ids(rows))

	completed, err := tasks.Complete(ctx, overdue)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, completed["status"])
	assert.NotNil(t, completed["completed_at"])

	rows, err = tasks.ListOverdue(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, []string{older}, ids(rows))

	_, err = tasks.Complete(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := tasks.ListByFarm(ctx, farmID, store.FindOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFinanceSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	finance := env.repos.Finance

	farmID := env.create(t, TableFarms, map[string]any{"name": "Acme", "owner_id": "u1"})
	book := func(kind, category, amount, date string) {
		d, err := time.Parse(dateLayout, date)
		require.NoError(t, err)
		_, err = finance.Record(ctx, Entry{
			FarmID:   farmID,
			Type:     kind,
			Category: category,
			Amount:   decimal.RequireFromString(amount),
			Date:     d,
		})
		require.NoError(t, err)
	}

	book(EntryIncome, "milk", "0.10", "2026-01-10")
	book(EntryIncome, "milk", "0.20", "2026-02-10")
	book(EntryIncome, "wool", "100.05", "2026-03-10")
	book(EntryExpense, "feed", "40.15", "2026-03-15")
	book(EntryExpense, "milk", "0.05", "2026-04-01")

	sum, err := finance.Summary(ctx, farmID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Entries)
	assert.True(t, sum.Income.Equal(decimal.RequireFromString("100.35")), sum.Income.String())
	assert.True(t, sum.Expense.Equal(decimal.RequireFromString("40.20")), sum.Expense.String())
	assert.True(t, sum.Net.Equal(decimal.RequireFromString("60.15")), sum.Net.String())
	assert.True(t, sum.ByCategory["milk"].Equal(decimal.RequireFromString("0.25")), sum.ByCategory["milk"].String())
	assert.True(t, sum.ByCategory["feed"].Equal(decimal.RequireFromString("-40.15")))

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	sum, err = finance.Summary(ctx, farmID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Entries)
	assert.True(t, sum.Income.Equal(decimal.RequireFromString("100.25")), sum.Income.String())
	assert.True(t, sum.Expense.IsZero())
}

func TestFinanceRecordValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repos.Finance.Record(ctx, Entry{FarmID: "f1", Type: "gift", Amount: decimal.NewFromInt(1)})
	assert.Equal(t, store.CodeInvalidParameter, store.CodeOf(err))

	_, err = env.repos.Finance.Record(ctx, Entry{FarmID: "f1", Type: EntryExpense, Amount: decimal.NewFromInt(-1)})
	assert.Equal(t, store.CodeInvalidParameter, store.CodeOf(err))

	assert.Zero(t, env.count(t, TableFinanceEntries, nil))
}

func TestInventoryRepository(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inventory := env.repos.Inventory

	farmID := env.create(t, TableFarms, map[string]any{"name": "Acme", "owner_id": "u1"})
	feed := env.create(t, TableInventoryItems, map[string]any{"farm_id": farmID, "name": "Feed", "quantity": 10, "reorder_level": 5})
	salt := env.create(t, TableInventoryItems, map[string]any{"farm_id": farmID, "name": "Salt", "quantity": 2, "reorder_level": 2})
	env.create(t, TableInventoryItems, map[string]any{"farm_id": farmID, "name": "Twine", "quantity": 9, "reorder_level": 1})

	low, err := inventory.LowStock(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, []string{salt}, ids(low))

	item, err := inventory.Adjust(ctx, "u1", feed, decimal.NewFromInt(-6), "fed the herd")
	require.NoError(t, err)
	assert.True(t, decimalOf(t, item["quantity"]).Equal(decimal.NewFromInt(4)))

	low, err = inventory.LowStock(ctx, farmID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{feed, salt}, ids(low))

	item, err = inventory.Adjust(ctx, "u1", feed, decimal.RequireFromString("2.5"), "delivery")
	require.NoError(t, err)
	assert.True(t, decimalOf(t, item["quantity"]).Equal(decimal.RequireFromString("6.5")))

	ledger, err := inventory.Ledger(ctx, feed, 0)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	var changes []string
	for _, row := range ledger {
		changes = append(changes, decimalOf(t, row["quantity_change"]).String())
	}
	assert.ElementsMatch(t, []string{"-6", "2.5"}, changes)

	history, err := env.repos.Audit.History(ctx, TableInventoryItems, feed, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, ActionAdjust, history[0]["action"])
}

func TestInventoryAdjustRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inventory := env.repos.Inventory

	farmID := env.create(t, TableFarms, map[string]any{"name": "Acme", "owner_id": "u1"})
	feed := env.create(t, TableInventoryItems, map[string]any{"farm_id": farmID, "name": "Feed", "quantity": 3})

	_, err := inventory.Adjust(ctx, "u1", feed, decimal.NewFromInt(-4), "too much")
	assert.Equal(t, store.CodeInvalidParameter, store.CodeOf(err))
	assert.Equal(t, "3", store.DetailsOf(err)["quantity"])

	_, err = inventory.Adjust(ctx, "u1", feed, decimal.Zero, "nothing")
	assert.Equal(t, store.CodeInvalidParameter, store.CodeOf(err))

	_, err = inventory.Adjust(ctx, "u1", "missing", decimal.NewFromInt(1), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	item, err := inventory.FindByID(ctx, feed)
	require.NoError(t, err)
	assert.True(t, decimalOf(t, item["quantity"]).Equal(decimal.NewFromInt(3)))
	assert.Zero(t, env.count(t, TableInventoryTransactions, nil))
}

func TestUserRepository(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.repos.Users

	created, err := users.Create(ctx, map[string]any{"email": "  Jane@Example.COM ", "name": "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", created["email"])

	found, err := users.FindByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created["id"], found["id"])

	missing, err := users.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = env.repos.Farms.Create(ctx, toString(created["id"]), map[string]any{"name": "Acme"})
	require.NoError(t, err)
	_, err = users.Delete(ctx, toString(created["id"]))
	assert.Equal(t, store.CodeDependencyViolation, store.CodeOf(err))
}

func TestAuditLogSwallowsWriteFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.NotPanics(t, func() {
		env.repos.Audit.Record(ctx, AuditEntry{UserID: "u1", Action: ActionCreate, Resource: TableFarms, RecordID: "f1"})
	})

	entries := env.logs.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit log write failed", entries[0].msg)
	assert.Error(t, entries[0].err)
	assert.Equal(t, "f1", entries[0].fields["record_id"])

	var nilAudit *AuditLog
	assert.NotPanics(t, func() { nilAudit.Record(ctx, AuditEntry{}) })
}
