package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaError lists where model output broke the response schema, one
// entry per failing instance location ("/rules/3: missing properties: 'fullText'").
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "output does not match schema: " + strings.Join(e.Violations, "; ")
}

// schemaCache holds compiled schemas keyed by the raw response format.
// Every chunk of a run sends the same schema.
var schemaCache sync.Map

// Decode recovers the JSON value from model output and checks it against
// the schema. The returned value is compact.
func (rf *ResponseFormat) Decode(content string) (json.RawMessage, error) {
	value, err := RecoverJSON(content)
	if err != nil {
		return nil, err
	}
	if rf == nil || len(rf.JSONSchema) == 0 {
		return value, nil
	}
	if err := rf.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// Validate checks a JSON value against the schema. Violations are returned
// as a *SchemaError.
func (rf *ResponseFormat) Validate(value json.RawMessage) error {
	schema, err := rf.compile()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(value, &doc); err != nil {
		return fmt.Errorf("decoding output: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &SchemaError{Violations: violations(ve)}
		}
		return err
	}
	return nil
}

// Schema returns the bare JSON schema, unwrapping the
// {"name","strict","schema"} envelope sent on the wire.
func (rf *ResponseFormat) Schema() (json.RawMessage, error) {
	var envelope struct {
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(rf.JSONSchema, &envelope); err != nil {
		return nil, fmt.Errorf("invalid response schema: %w", err)
	}
	if len(envelope.Schema) > 0 {
		return envelope.Schema, nil
	}
	return rf.JSONSchema, nil
}

func (rf *ResponseFormat) compile() (*jsonschema.Schema, error) {
	key := string(rf.JSONSchema)
	if s, ok := schemaCache.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}

	body, err := rf.Schema()
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("response.json", bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("loading response schema: %w", err)
	}
	schema, err := compiler.Compile("response.json")
	if err != nil {
		return nil, fmt.Errorf("compiling response schema: %w", err)
	}
	schemaCache.Store(key, schema)
	return schema, nil
}

// violations flattens a validation error tree to its leaves.
func violations(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + ve.Message}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, violations(c)...)
	}
	return out
}

// RecoverJSON returns the first complete JSON object or array in model
// output, ignoring markdown fences and prose around it.
func RecoverJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("empty structured output")
	}

	for start := 0; start < len(content); start++ {
		i := strings.IndexAny(content[start:], "{[")
		if i < 0 {
			break
		}
		start += i

		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&raw); err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			continue
		}
		return buf.Bytes(), nil
	}
	return nil, errors.New("no JSON value in structured output")
}
