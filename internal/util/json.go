package util

import (
	"encoding/json"

	"go.arcalot.io/lang"
)

// JSONEncode encodes a value as JSON or panics. It is used to build schema
// default values, which must be JSON strings.
func JSONEncode(value any) string {
	return string(lang.Must2(json.Marshal(value)))
}
