package mapping

import "github.com/crimson-sun/ensilo-events/internal/model"

// Separator joins parent and child keys of flattened records.
const Separator = "_"

// Flatten lifts nested objects into top-level keys joined with Separator.
// Lists and scalars are kept as-is.
func Flatten(r model.Record) model.Record {
	out := make(model.Record, len(r))
	flattenInto(out, "", r)
	return out
}

func flattenInto(out model.Record, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		switch nested := v.(type) {
		case map[string]any:
			if len(nested) == 0 {
				out[key] = nested
				continue
			}
			flattenInto(out, key, nested)
		case model.Record:
			flattenInto(out, key, nested)
		default:
			out[key] = v
		}
	}
}
