package metafile_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.arcalot.io/assert"

	"github.com/deckhand-ci/deckhand/internal/metafile"
)

func TestApplyInjectsBothKeys(t *testing.T) {
	doc := assert.NoErrorR[map[string]any](t)(metafile.Load([]byte(`{
		"title": "Fixtures",
		"databases": {
			"fixtures": {"source": "tests"}
		}
	}`)))
	result := metafile.Apply(doc)

	databases := result["databases"].(map[string]any)
	ephemeral := databases["ephemeral"].(map[string]any)
	assert.Equals(t, ephemeral["allow"], false)

	plugins := result["plugins"].(map[string]any)
	ephemeralTables := plugins["datasette-ephemeral-tables"].(map[string]any)
	assert.Equals(t, ephemeralTables["table_ttl"], 900)
}

func TestApplyPreservesExistingKeys(t *testing.T) {
	doc := assert.NoErrorR[map[string]any](t)(metafile.Load([]byte(`{
		"title": "Fixtures",
		"databases": {
			"fixtures": {"source": "tests"}
		},
		"plugins": {
			"datasette-cluster-map": {"latitude_column": "lat"}
		}
	}`)))
	result := metafile.Apply(doc)

	assert.Equals(t, result["title"], "Fixtures")
	databases := result["databases"].(map[string]any)
	assert.MapContainsKey(t, "fixtures", databases)
	assert.MapContainsKey(t, "ephemeral", databases)
	plugins := result["plugins"].(map[string]any)
	assert.MapContainsKey(t, "datasette-cluster-map", plugins)
	assert.MapContainsKey(t, "datasette-ephemeral-tables", plugins)

	// The source document is not mutated.
	_, ok := doc["plugins"].(map[string]any)["datasette-ephemeral-tables"]
	assert.Equals(t, ok, false)
}

func TestApplyMinimalDocument(t *testing.T) {
	result := metafile.Apply(map[string]any{})
	assert.MapContainsKey(t, "databases", result)
	assert.MapContainsKey(t, "plugins", result)
}

func TestLoadToleratesComments(t *testing.T) {
	doc := assert.NoErrorR[map[string]any](t)(metafile.Load([]byte(`{
		// deployment metadata
		"title": "Fixtures",
	}`)))
	assert.Equals(t, doc["title"], "Fixtures")
}

func TestLoadRejectsNonObject(t *testing.T) {
	_, err := metafile.Load([]byte(`[1, 2, 3]`))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	assert.NoError(t, metafile.Write(path, metafile.Apply(map[string]any{"title": "Fixtures"})))
	written := assert.NoErrorR[[]byte](t)(os.ReadFile(path))
	assert.Contains(t, string(written), "datasette-ephemeral-tables")
	reparsed := assert.NoErrorR[map[string]any](t)(metafile.Load(written))
	assert.Equals(t, reparsed["title"], "Fixtures")
}
