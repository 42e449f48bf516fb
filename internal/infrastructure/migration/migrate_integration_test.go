package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/smartspace/backend/migrations"
)

func newPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("smartspace_migrate"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx))
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (
		SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestMigrator_Lifecycle(t *testing.T) {
	db := newPostgres(t)
	m, err := New(db, zaptest.NewLogger(t))
	require.NoError(t, err)

	versions, err := Versions(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	latest := versions[len(versions)-1]

	st, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(0), st.Version)
	assert.Equal(t, len(versions), st.Pending)

	require.NoError(t, m.Up())
	assert.True(t, tableExists(t, db, "spaces"))
	assert.True(t, tableExists(t, db, "employees"))

	st, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, latest, st.Version)
	assert.Zero(t, st.Pending)
	assert.False(t, st.Dirty)

	// a second Up is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, versions[len(versions)-2], version)

	require.NoError(t, m.GoTo(latest))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, latest, version)

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "spaces"))
}
