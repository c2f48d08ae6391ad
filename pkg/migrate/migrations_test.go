package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())

	entries, err := fs.ReadDir(embedded, embeddedDir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestRepairRequestMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join(embeddedDir, "*_create_repair_requests.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS repair_requests",
		"FOREIGN KEY (repair_request_id) REFERENCES repair_requests(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"'checked'",
		"DROP TABLE IF EXISTS repair_request_components",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestComponentsMigrationGuardsStock(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join(embeddedDir, "*_create_components.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "CHECK (in_stock >= 0)"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Component SKU!")
	require.NoError(t, err)
	assert.Regexp(t, `\d{14}_add_component_sku\.sql$`, path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestCreateSQLMigrationRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := createSQLMigrationAt(dir, "add_index", now)
	require.NoError(t, err)
	_, err = createSQLMigrationAt(dir, "add_index", now)
	assert.Error(t, err)
}

func TestValidateDirRejectsUnbalancedStatements(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_broken.sql"), []byte(body), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}
