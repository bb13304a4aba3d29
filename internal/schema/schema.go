// Package schema validates todo input before it is sent to the API.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"todoctl/internal/service"
)

//go:embed create.schema.json
var createSchema []byte

//go:embed update.schema.json
var updateSchema []byte

const (
	createURL = "https://todoctl.invalid/schema/create.json"
	updateURL = "https://todoctl.invalid/schema/update.json"
)

// ValidationError describes the first rule an input broke.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

var (
	compileOnce sync.Once
	compiled    struct {
		create *jsonschema.Schema
		update *jsonschema.Schema
	}
	compileErr error
)

func load() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true

		if err := compiler.AddResource(createURL, bytes.NewReader(createSchema)); err != nil {
			compileErr = fmt.Errorf("adding create schema: %w", err)
			return
		}
		if err := compiler.AddResource(updateURL, bytes.NewReader(updateSchema)); err != nil {
			compileErr = fmt.Errorf("adding update schema: %w", err)
			return
		}

		compiled.create, compileErr = compiler.Compile(createURL)
		if compileErr != nil {
			return
		}
		compiled.update, compileErr = compiler.Compile(updateURL)
	})
	return compileErr
}

// ValidateCreate checks a create request. The title must contain a
// non-whitespace character.
func ValidateCreate(in service.CreateTodo) error {
	if err := load(); err != nil {
		return err
	}
	return validate(compiled.create, in)
}

// ValidateUpdate checks an update request. At least one field must be set
// and a set title must not be blank.
func ValidateUpdate(in service.UpdateTodo) error {
	if err := load(); err != nil {
		return err
	}
	return validate(compiled.update, in)
}

func validate(s *jsonschema.Schema, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding input: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding input: %w", err)
	}

	err = s.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return fromLeaf(firstLeaf(ve))
}

func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

func fromLeaf(ve *jsonschema.ValidationError) *ValidationError {
	field := strings.TrimPrefix(strings.TrimPrefix(ve.InstanceLocation, "#"), "/")
	keyword := ve.KeywordLocation[strings.LastIndex(ve.KeywordLocation, "/")+1:]

	switch {
	case field == "title" && (keyword == "minLength" || keyword == "pattern"):
		return &ValidationError{Field: field, Message: "must not be blank"}
	case keyword == "minProperties":
		return &ValidationError{Message: "nothing to update"}
	default:
		return &ValidationError{Field: field, Message: ve.Message}
	}
}
