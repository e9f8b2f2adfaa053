package postgres

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentcast/parentcast/migrations"
)

// tableColumns extracts column name -> definition line from the CREATE TABLE
// statement in the initial migration.
func tableColumns(t *testing.T, table string) map[string]string {
	t.Helper()

	sql, err := migrations.Migrations.ReadFile("00001_init.sql")
	require.NoError(t, err)

	re := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\);`)
	match := re.FindStringSubmatch(string(sql))
	require.NotNil(t, match, "migration defines no table %q", table)

	columns := make(map[string]string)
	for _, line := range strings.Split(match[1], "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
		if line == "" {
			continue
		}
		name := strings.Fields(line)[0]
		if name == "CONSTRAINT" || name == "PRIMARY" {
			continue
		}
		columns[name] = line
	}
	return columns
}

// The repository's entry queries name every column in entryColumns; the
// migration must define all of them or the first SELECT fails with a 42703
// undefined-column error.
func TestMigrationDefinesEveryEntryColumn(t *testing.T) {
	columns := tableColumns(t, "entries")

	for _, col := range strings.Split(entryColumns, ",") {
		col = strings.TrimSpace(col)
		assert.Contains(t, columns, col, "entries migration misses column %q", col)
	}
}

// Text attachment columns scan into plain strings, so they may not be null.
func TestEntryTextColumnsAreNonNull(t *testing.T) {
	columns := tableColumns(t, "entries")

	for _, col := range []string{"title", "reflection", "transcript", "audio_path", "audio_url", "image_path", "entry_date"} {
		require.Contains(t, columns, col)
		assert.Contains(t, columns[col], "NOT NULL", "entries column %q must be non-null", col)
	}
}

func TestMigrationDefinesEveryCastColumn(t *testing.T) {
	columns := tableColumns(t, "casts")

	for _, col := range []string{"id", "owner_id", "title", "created_at", "updated_at"} {
		assert.Contains(t, columns, col, "casts migration misses column %q", col)
	}
	// No columns the repository never reads or writes.
	assert.Len(t, columns, 5)
}

func TestMigrationDefinesLinkAndRuleTables(t *testing.T) {
	rules := tableColumns(t, "rules")
	for _, col := range []string{"id", "owner_id", "title", "description", "created_at"} {
		assert.Contains(t, rules, col)
	}

	links := tableColumns(t, "entry_rule_links")
	for _, col := range []string{"entry_id", "rule_id"} {
		assert.Contains(t, links, col)
	}
}
