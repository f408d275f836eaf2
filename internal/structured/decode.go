package structured

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
)

// Schema is a compiled JSON schema together with its source text.
// The source is handed to generators that support constrained output.
type Schema struct {
	name     string
	raw      string
	compiled *jsonschema.Schema
}

// Compile compiles a JSON schema document.
func Compile(name, raw string) (*Schema, error) {
	c := jsonschema.NewCompiler()
	url := name + ".json"
	if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, raw: raw, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error. For package-level schemas.
func MustCompile(name, raw string) *Schema {
	s, err := Compile(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Raw returns the schema source.
func (s *Schema) Raw() string { return s.raw }

// Validate checks an already-decoded JSON value (maps, slices, json.Number...).
func (s *Schema) Validate(v any) error {
	return s.compiled.Validate(v)
}

// Decode extracts a JSON object from text, validates it against schema and
// unmarshals it into T. Every failure is a *domain.DecodeError.
func Decode[T any](text string, schema *Schema) (T, error) {
	var out T
	fail := func(err error) (T, error) {
		return out, &domain.DecodeError{Kind: schema.name, Raw: text, Err: err}
	}

	raw := ExtractJSON(text)
	if raw == "" {
		return fail(errors.New("no JSON object in output"))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fail(fmt.Errorf("malformed JSON: %w", err))
	}
	if err := schema.Validate(doc); err != nil {
		return fail(err)
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fail(err)
	}
	return out, nil
}
