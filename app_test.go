package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"sciencefair-registration/config"
	"sciencefair-registration/db"
	"sciencefair-registration/models"
	"sciencefair-registration/ratelimit"
)

func TestNewApp_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Sheets.Backend = config.BackendMock

	a, err := newApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &db.MockStore{}, a.store)
	assert.IsType(t, &ratelimit.MemoryLimiter{}, a.limiter)
}

func TestNewApp_Workbook(t *testing.T) {
	cfg := config.Default()
	cfg.Sheets.Backend = config.BackendXLSX
	cfg.Sheets.WorkbookPath = filepath.Join(t.TempDir(), "fair.xlsx")
	ctx := context.Background()

	a, err := newApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	id, err := a.store.NextProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.FirstProjectID, id)

	teachers, err := a.store.GetTeachers(ctx)
	require.ErrorIs(t, err, db.ErrUsingDefaults)
	assert.Equal(t, db.DefaultTeachers(), teachers)
}

func TestNewApp_WorkbookWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Sheets.Backend = config.BackendXLSX
	cfg.Sheets.WorkbookPath = filepath.Join(t.TempDir(), "fair.xlsx")
	cfg.Redis.Addr = mr.Addr()
	ctx := context.Background()

	a, err := newApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &db.CachedStore{}, a.store)
	assert.IsType(t, &ratelimit.RedisLimiter{}, a.limiter)

	row := models.NewProjectRow(models.RegistrationRequest{
		StudentName: "Ada", Teacher: "Mr. Smith", ParentGuardianName: "Bo",
		ParentGuardianEmail: "bo@example.com", ConsentGiven: true,
	}, 100, "2026-01-15T09:30:00.000Z")
	require.NoError(t, a.store.AppendRegistration(ctx, []models.ProjectRow{row}))

	id, err := a.store.NextProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 101, id)

	// no Info sheet yet, so the defaults are served and not cached
	_, err = a.store.GetFairMetadata(ctx)
	require.ErrorIs(t, err, db.ErrUsingDefaults)
	assert.Empty(t, mr.Keys())
}

func TestNewApp_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Sheets.Backend = "csv"

	_, err := newApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Sheets.Backend = config.BackendMock
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := newApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
