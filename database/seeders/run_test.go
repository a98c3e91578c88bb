package seeders_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories/memory"
	"github.com/shashiranjanraj/parcelhub/database/seeders"
)

func TestRunAllSeedsDemoData(t *testing.T) {
	stores := memory.New()
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, seeders.RunAll(ctx, stores.Set(), &out))
	assert.Equal(t, []string{"admin_user", "demo_rider", "demo_parcel"}, seeders.Names())

	admin, err := stores.Users.FindByEmail(ctx, "admin@parcelhub.local")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	pending, err := stores.Riders.List(ctx, []models.RiderStatus{models.RiderPending}, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Dhaka", pending[0].Fields["region"])

	parcels, err := stores.Parcels.List(ctx, "admin@parcelhub.local")
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, models.Unpaid, parcels[0].PaymentStatus)
}

func TestRunAllTwiceSkipsExisting(t *testing.T) {
	stores := memory.New()
	ctx := context.Background()

	require.NoError(t, seeders.RunAll(ctx, stores.Set(), &bytes.Buffer{}))
	var out bytes.Buffer
	require.NoError(t, seeders.RunAll(ctx, stores.Set(), &out))
	assert.Contains(t, out.String(), "admin_user … skipped")
	assert.Contains(t, out.String(), "demo_rider … skipped")
}

func TestRunAllStopsOnError(t *testing.T) {
	stores := memory.New()
	stores.Riders.FailOn("insert", assert.AnError)

	err := seeders.RunAll(context.Background(), stores.Set(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo_rider")
}
