package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	t.Run("creates an up and down pair", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "add payment tables", "payment and detail tables")
		require.NoError(t, err)

		assert.FileExists(t, mf.UpPath)
		assert.FileExists(t, mf.DownPath)
		assert.Contains(t, filepath.Base(mf.UpPath), "add_payment_tables")
		assert.Len(t, mf.Version, 14)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add payment tables")
		assert.Contains(t, string(up), "payment and detail tables")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback")
	})

	t.Run("creates the directory when missing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		mf, err := CreateMigration(dir, "init", "initial schema")
		require.NoError(t, err)
		assert.FileExists(t, mf.UpPath)
	})
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "AddAuditLog", "addauditlog"},
		{"replaces spaces", "add audit log", "add_audit_log"},
		{"collapses separators", "add - audit  log", "add_audit_log"},
		{"drops trailing separator", "add audit ", "add_audit"},
		{"drops unsafe characters", "add/audit!log", "addauditlog"},
		{"keeps digits", "v2 schema", "v2_schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeName(tt.in))
		})
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("lists pairs sorted by version", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"20260201000000_second.up.sql",
			"20260201000000_second.down.sql",
			"20260101000000_first.up.sql",
			"20260101000000_first.down.sql",
			"notes.txt",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0644))
		}

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"20260101000000_first", "20260201000000_second"}, migrations)
	})

	t.Run("missing directory yields empty list", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})
}
