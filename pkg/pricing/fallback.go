package pricing

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed fallback.json
var fallbackJSON []byte

// FallbackTable returns the embedded pricing table used when neither
// the network nor the durable cache can supply one.
func FallbackTable() (Table, error) {
	var table Table
	if err := json.Unmarshal(fallbackJSON, &table); err != nil {
		return nil, fmt.Errorf("failed to decode embedded pricing: %w", err)
	}
	return table, nil
}
