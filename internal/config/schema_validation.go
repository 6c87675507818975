package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	subprocschema "github.com/Paintersrp/subproc/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var (
	schemaOnce     sync.Once
	procfileSchema *jsonschema.Schema
	schemaErr      error
)

func loadProcfileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("procfile.v1.json", bytes.NewReader(subprocschema.ProcfileV1Schema)); err != nil {
			schemaErr = fmt.Errorf("add procfile schema resource: %w", err)
			return
		}
		procfileSchema, schemaErr = compiler.Compile("procfile.v1.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile procfile schema: %w", schemaErr)
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	return procfileSchema, nil
}

func validateAgainstSchema(raw []byte) error {
	schema, err := loadProcfileSchema()
	if err != nil {
		return fmt.Errorf("load procfile schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	// Round-trip through JSON so the instance carries the value types the
	// schema library expects.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("prepare manifest for schema validation: %w", err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return fmt.Errorf("prepare manifest for schema validation: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if ok := asValidationError(err, &ve); ok {
			return fmt.Errorf("schema validation: %s", flattenValidationError(ve))
		}
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// flattenValidationError renders the deepest cause of a validation failure,
// which is the message users can act on.
func flattenValidationError(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		loc = "(root)"
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(loc, "/", "."), ve.Message)
}
