package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	packageSchemaLocationConstant         = "https://pinmirror.invalid/registry/package_schema.json"
	versionsPropertyNameConstant          = "versions"
	schemaLoadErrorTemplateConstant       = "unable to load registry payload schema: %w"
	schemaCompileErrorTemplateConstant    = "unable to compile registry payload schema: %w"
	unexpectedPayloadShapeMessageConstant = "versions is not an object"
)

//go:embed package_schema.json
var packageSchemaContent []byte

var errUnexpectedPayloadShape = errors.New(unexpectedPayloadShapeMessageConstant)

type payloadValidator struct {
	schema *jsonschema.Schema
}

func newPayloadValidator() (*payloadValidator, error) {
	schemaDocument, unmarshalError := jsonschema.UnmarshalJSON(bytes.NewReader(packageSchemaContent))
	if unmarshalError != nil {
		return nil, fmt.Errorf(schemaLoadErrorTemplateConstant, unmarshalError)
	}

	compiler := jsonschema.NewCompiler()
	if resourceError := compiler.AddResource(packageSchemaLocationConstant, schemaDocument); resourceError != nil {
		return nil, fmt.Errorf(schemaLoadErrorTemplateConstant, resourceError)
	}

	compiledSchema, compileError := compiler.Compile(packageSchemaLocationConstant)
	if compileError != nil {
		return nil, fmt.Errorf(schemaCompileErrorTemplateConstant, compileError)
	}

	return &payloadValidator{schema: compiledSchema}, nil
}

// decodeVersionKeys validates the payload and returns the keys of its versions mapping in lexical order.
func (validator *payloadValidator) decodeVersionKeys(sourceURL string, payload []byte) ([]string, error) {
	instance, unmarshalError := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if unmarshalError != nil {
		return nil, ParseError{URL: sourceURL, Cause: unmarshalError}
	}

	if validationError := validator.schema.Validate(instance); validationError != nil {
		return nil, ParseError{URL: sourceURL, Cause: validationError}
	}

	document, isObject := instance.(map[string]any)
	if !isObject {
		return nil, ParseError{URL: sourceURL, Cause: errUnexpectedPayloadShape}
	}
	versionEntries, versionsAreObject := document[versionsPropertyNameConstant].(map[string]any)
	if !versionsAreObject {
		return nil, ParseError{URL: sourceURL, Cause: errUnexpectedPayloadShape}
	}

	versionKeys := make([]string, 0, len(versionEntries))
	for versionKey := range versionEntries {
		versionKeys = append(versionKeys, versionKey)
	}
	sort.Strings(versionKeys)

	return versionKeys, nil
}
