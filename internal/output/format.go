package output

import (
	"encoding/json"
	"fmt"

	"github.com/crimson-sun/ensilo-events/internal/model"
)

// Marshal encodes a record as a single-line JSON object with sorted keys.
func Marshal(r model.Record) ([]byte, error) {
	data, err := json.Marshal(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("output: marshal: %w", err)
	}
	return data, nil
}
