package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartspace/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add badges table", "add_badges_table"},
		{"Add-Badge-Readers", "add_badge_readers"},
		{"add__sensor__index", "add_sensor_index"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_events.up.sql":      {},
		"000002_events.down.sql":    {},
		"000001_workspace.up.sql":   {},
		"000001_workspace.down.sql": {},
		"README.md":                 {},
		"notes_up.sql":              {},
	}
	versions, err := Versions(fsys)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, versions)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	versions, err := Versions(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	for i, v := range versions {
		assert.Equal(t, uint(i+1), v, "versions must be contiguous")
	}

	ups, err := filepath.Glob("../../../migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := filepath.Glob("../../../migrations/*.down.sql")
	require.NoError(t, err)
	assert.Len(t, downs, len(ups))
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "Add badge readers", "Badge reader inventory")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_badge_readers.up.sql"), first.UpPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add_badge_readers")
	assert.Contains(t, string(up), "-- Badge reader inventory")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback add_badge_readers")

	second, err := Create(dir, "sensor index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	up, err = os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.NotContains(t, string(up), "-- \n")
}

func TestCreate_InvalidName(t *testing.T) {
	_, err := Create(t.TempDir(), "!!!", "")
	assert.ErrorContains(t, err, "no usable characters")
}
