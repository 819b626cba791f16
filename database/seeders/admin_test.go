package seeders

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/pkg/auth"
)

func TestSeedAdmin_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()

	require.NoError(t, seedAdmin(ctx, store, " Root@Example.com ", "s3cret!"))
	require.NoError(t, seedAdmin(ctx, store, "root@example.com", "other"))

	u, err := store.Users().FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, auth.CheckPassword(u.Password, "s3cret!"))
}

func TestSeedAdmin_RequiresPassword(t *testing.T) {
	err := seedAdmin(context.Background(), repositories.NewMemoryStore(), "root@example.com", "")
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")
}

func TestRunAll_ReportsFailingSeeder(t *testing.T) {
	mu.Lock()
	saved := entries
	entries = []seederEntry{{name: "broken", fn: func(context.Context, repositories.Store) error {
		return assert.AnError
	}}}
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		entries = saved
		mu.Unlock()
	})

	out := &bytes.Buffer{}
	err := RunAll(context.Background(), repositories.NewMemoryStore(), out)
	assert.ErrorContains(t, err, `seeder "broken"`)
	assert.Contains(t, out.String(), "FAILED")
}
