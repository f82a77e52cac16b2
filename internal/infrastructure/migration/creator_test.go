package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Document Locks")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.Contains(t, mf.UpPath, "add_document_locks.up.sql")
	assert.Contains(t, mf.DownPath, "add_document_locks.down.sql")

	for _, path := range []string{mf.UpPath, mf.DownPath} {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Add Document Locks")
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_init.up.sql"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_init.down.sql"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init"}, migrations)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Document Locks", "add_document_locks"},
		{"fix--weird   spacing_", "fix_weird_spacing"},
		{"Drop!Bad@Chars", "dropbadchars"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in))
	}
}
