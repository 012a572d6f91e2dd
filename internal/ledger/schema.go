package ledger

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Response schemas. Validation runs before decoding so that a
// malformed body is reported as ErrProtocol with a useful position
// instead of a zero-valued struct.
const (
	readSchemaJSON = `{
  "type": "object",
  "required": ["ok"],
  "properties": {
    "ok": {"type": "boolean"},
    "error": {"type": "string"},
    "orders": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string"},
          "customer": {"type": "string"},
          "channel": {"type": "string"},
          "message_id": {"type": "string"},
          "items": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["key"],
              "properties": {
                "key": {"type": "string"},
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "status": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "confirmed": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string"},
          "message_id": {"type": "string"}
        }
      }
    }
  }
}`

	writeSchemaJSON = `{
  "type": "object",
  "required": ["ok"],
  "properties": {
    "ok": {"type": "boolean"},
    "error": {"type": "string"},
    "deleted": {"type": "integer"}
  }
}`
)

type schemas struct {
	read  *jsonschema.Schema
	write *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	c := jsonschema.NewCompiler()
	for name, src := range map[string]string{
		"ledger://read.json":  readSchemaJSON,
		"ledger://write.json": writeSchemaJSON,
	} {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(src)))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", name, err)
		}
		if err := c.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	read, err := c.Compile("ledger://read.json")
	if err != nil {
		return nil, fmt.Errorf("compile read schema: %w", err)
	}
	write, err := c.Compile("ledger://write.json")
	if err != nil {
		return nil, fmt.Errorf("compile write schema: %w", err)
	}
	return &schemas{read: read, write: write}, nil
}

// validateBody checks a raw response body against a schema.
func validateBody(sch *jsonschema.Schema, body []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return err
	}
	return nil
}
