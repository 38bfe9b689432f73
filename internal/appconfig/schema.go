package appconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema constrains the merged configuration after defaults are applied.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["dataset", "embedding", "generation", "vectorStore", "topK", "quitToken", "timeout"],
  "properties": {
    "dataset": {"type": "string", "minLength": 1},
    "embedding": {"$ref": "#/definitions/endpoint"},
    "generation": {"$ref": "#/definitions/endpoint"},
    "vectorStore": {
      "type": "object",
      "required": ["type", "path", "collection"],
      "properties": {
        "type": {"enum": ["jsonl", "sqlite", "qdrant", "memory"]},
        "path": {"type": "string", "minLength": 1},
        "collection": {"type": "string", "pattern": "^[A-Za-z0-9_-]+$"},
        "url": {"type": "string"},
        "apiKeyEnv": {"type": "string"}
      }
    },
    "topK": {"type": "integer", "minimum": 1, "maximum": 100},
    "quitToken": {"type": "string", "minLength": 1},
    "promptTemplate": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1},
    "retries": {"type": "integer", "minimum": 0, "maximum": 10},
    "retryBackoffMs": {"type": "integer", "minimum": 0},
    "logFile": {"type": "string"},
    "metricsFile": {"type": "string"},
    "debug": {"type": "boolean"},
    "tui": {"type": "boolean"},
    "metrics": {"type": "boolean"}
  },
  "definitions": {
    "endpoint": {
      "type": "object",
      "required": ["provider", "model"],
      "properties": {
        "provider": {"enum": ["ollama", "openai", "llamacpp"]},
        "url": {"type": "string"},
        "model": {"type": "string", "minLength": 1},
        "apiKeyEnv": {"type": "string"},
        "parameters": {
          "type": "object",
          "properties": {
            "top_k": {"type": "integer", "minimum": 0},
            "top_p": {"type": "number", "minimum": 0, "maximum": 1},
            "temperature": {"type": "number", "minimum": 0},
            "repeat_penalty": {"type": "number", "minimum": 0},
            "num_ctx": {"type": "integer", "minimum": 0}
          }
        }
      }
    }
  }
}`

// Validate checks the configuration against the JSON schema and returns a single
// error listing every violation.
func Validate(cfg Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
