package farm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/farmstore/v1/store"
)

func TestFarmCreateWritesMembershipAndStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	row, err := env.repos.Farms.Create(ctx, "u1", map[string]any{"name": "Acme", "owner_id": "someone-else"})
	require.NoError(t, err)
	farmID := toString(row["id"])

	assert.Equal(t, "Acme", row["name"])
	assert.Equal(t, "u1", row["owner_id"])

	members, err := env.facade.FindMany(ctx, TableFarmMembers, store.Filters{"farm_id": farmID}, store.FindOptions{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "u1", members[0]["user_id"])
	assert.Equal(t, RoleOwner, members[0]["role"])

	assert.Equal(t, int64(1), env.count(t, TableFarmStatistics, store.Filters{"farm_id": farmID}))

	history, err := env.repos.Audit.History(ctx, TableFarms, farmID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ActionCreate, history[0]["action"])
	assert.Equal(t, "u1", history[0]["user_id"])
}

func TestFarmCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.repos.Farms.Create(ctx, "", map[string]any{"name": "Acme"})
	assert.Equal(t, store.CodeInvalidParameter, store.CodeOf(err))

	_, err = env.repos.Farms.Create(ctx, "u1", map[string]any{"name; DROP": "Acme"})
	assert.Equal(t, store.CodeInvalidColumns, store.CodeOf(err))

	assert.Zero(t, env.count(t, TableFarms, nil))
	assert.Zero(t, env.count(t, TableFarmMembers, nil))
	assert.Zero(t, env.count(t, TableFarmStatistics, nil))
}

func TestFarmAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farms := env.repos.Farms

	acme, err := farms.Create(ctx, "owner", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	bravo, err := farms.Create(ctx, "other", map[string]any{"name": "Bravo"})
	require.NoError(t, err)
	acmeID, bravoID := toString(acme["id"]), toString(bravo["id"])

	_, err = farms.AddMember(ctx, bravoID, "owner", "")
	require.NoError(t, err)

	for _, tc := range []struct {
		name   string
		user   string
		farm   string
		access bool
	}{
		{"owner", "owner", acmeID, true},
		{"member", "owner", bravoID, true},
		{"stranger", "stranger", acmeID, false},
		{"missing farm", "owner", "missing", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := farms.HasAccess(ctx, tc.user, tc.farm)
			require.NoError(t, err)
			assert.Equal(t, tc.access, ok)
		})
	}

	listed, err := farms.ListForUser(ctx, "owner", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{acmeID, bravoID}, ids(listed))

	listed, err = farms.ListForUser(ctx, "stranger", 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestFarmDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farms := env.repos.Farms

	row, err := farms.Create(ctx, "u1", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	farmID := toString(row["id"])
	locationID := env.create(t, TableLocations, map[string]any{"farm_id": farmID, "name": "North field"})

	_, err = farms.Delete(ctx, "u1", farmID)
	require.Error(t, err)
	assert.Equal(t, store.CodeDependencyViolation, store.CodeOf(err))
	assert.Equal(t, TableLocations, store.DetailsOf(err)["dependent_table"])
	assert.Equal(t, int64(1), env.count(t, TableFarmMembers, store.Filters{"farm_id": farmID}))

	_, err = env.repos.Locations.Delete(ctx, locationID)
	require.NoError(t, err)

	res, err := farms.Delete(ctx, "u1", farmID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(1), res.Changes)

	assert.Zero(t, env.count(t, TableFarms, store.Filters{"id": farmID}))
	assert.Zero(t, env.count(t, TableFarmMembers, store.Filters{"farm_id": farmID}))
	assert.Zero(t, env.count(t, TableFarmStatistics, store.Filters{"farm_id": farmID}))

	history, err := env.repos.Audit.History(ctx, TableFarms, farmID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestFarmStatistics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	row, err := env.repos.Farms.Create(ctx, "u1", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	farmID := toString(row["id"])

	env.create(t, TableAnimals, map[string]any{"farm_id": farmID, "name": "Bessie", "species": "cow"})
	env.create(t, TableAnimals, map[string]any{"farm_id": farmID, "name": "Dolly", "species": "sheep"})
	env.create(t, TableCrops, map[string]any{"farm_id": farmID, "name": "Wheat"})
	env.create(t, TableTasks, map[string]any{"farm_id": farmID, "title": "Feed", "status": TaskStatusPending})
	env.create(t, TableTasks, map[string]any{"farm_id": farmID, "title": "Fence", "status": TaskStatusCompleted})
	env.create(t, TableLocations, map[string]any{"farm_id": farmID, "name": "Barn"})

	stats, err := env.repos.Farms.Statistics(ctx, farmID)
	require.NoError(t, err)
	assert.Equal(t, &Statistics{
		FarmID:    farmID,
		Animals:   2,
		Crops:     1,
		Tasks:     2,
		OpenTasks: 1,
		Locations: 1,
	}, stats)

	stored, err := env.facade.FindMany(ctx, TableFarmStatistics, store.Filters{"farm_id": farmID}, store.FindOptions{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.EqualValues(t, 2, stored[0]["total_animals"])
	assert.EqualValues(t, 1, stored[0]["total_crops"])
	assert.EqualValues(t, 2, stored[0]["total_tasks"])
}
