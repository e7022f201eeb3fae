package catalogs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const DaySchemaURL = "https://slicehouse.ai/schemas/day.schema.json"

// DaySchema is the structural contract for days/*.json. Enum names are
// checked separately so errors can carry suggestions.
const DaySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["day", "orders"],
  "additionalProperties": false,
  "properties": {
    "day": {"type": "integer", "minimum": 0},
    "orders": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "customer", "time_limit_sec"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "customer": {"type": "string"},
          "archetype": {"type": "string"},
          "time_limit_sec": {"type": "number", "exclusiveMinimum": 0},
          "items": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["species", "part", "quantity"],
              "additionalProperties": false,
              "properties": {
                "species": {"type": "string"},
                "part": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1},
                "min_quality": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var daySchema = jsonschema.MustCompileString(DaySchemaURL, DaySchema)

func validateDay(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := daySchema.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// hint returns a " (did you mean X?)" suffix for the closest known name, or
// an empty string when nothing is close.
func hint(got string, known []string) string {
	token := strings.ToUpper(strings.TrimSpace(got))
	best, bestDist := "", -1
	for _, cand := range known {
		d := levenshtein.ComputeDistance(token, strings.ToUpper(cand))
		if d > levenshteinLimit(len(cand)) {
			continue
		}
		if bestDist < 0 || d < bestDist || (d == bestDist && cand < best) {
			best, bestDist = cand, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", best)
}
