// Package metafile produces the derived deployment metadata file. It reads
// the source metadata document, injects the ephemeral-database and
// ephemeral-tables plugin settings without disturbing any existing keys, and
// writes the merged result.
package metafile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// The two injected settings. The ephemeral database is blocked from direct
// access and the ephemeral tables plugin drops created tables after 15
// minutes.
var (
	ephemeralDatabase = map[string]any{"allow": false}
	ephemeralPlugin   = map[string]any{"table_ttl": 900}
)

const (
	databasesKey       = "databases"
	pluginsKey         = "plugins"
	ephemeralDBName    = "ephemeral"
	ephemeralPluginKey = "datasette-ephemeral-tables"
)

// Load parses a metadata document. Comments and trailing commas are
// tolerated; the document must be a JSON object.
func Load(data []byte) (map[string]any, error) {
	var doc any
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("invalid metadata document (%w)", err)
	}
	object, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("metadata document is not a JSON object")
	}
	return object, nil
}

// Apply returns a copy of the document with the ephemeral database and
// plugin settings injected. Existing keys, including other entries under
// "databases" and "plugins", are preserved unchanged.
func Apply(doc map[string]any) map[string]any {
	result := make(map[string]any, len(doc)+2)
	for k, v := range doc {
		result[k] = v
	}
	result[databasesKey] = withEntry(result[databasesKey], ephemeralDBName, ephemeralDatabase)
	result[pluginsKey] = withEntry(result[pluginsKey], ephemeralPluginKey, ephemeralPlugin)
	return result
}

// withEntry copies a nested object and sets one entry in it. A missing or
// non-object value is replaced by a fresh object.
func withEntry(value any, key string, entry map[string]any) map[string]any {
	existing, ok := value.(map[string]any)
	if !ok {
		return map[string]any{key: entry}
	}
	result := make(map[string]any, len(existing)+1)
	for k, v := range existing {
		result[k] = v
	}
	result[key] = entry
	return result
}

// Write serializes the document to path as indented JSON.
func Write(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize metadata (%w)", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write metadata file %s (%w)", path, err)
	}
	return nil
}
