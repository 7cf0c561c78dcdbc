package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	fieldPathSeparatorConstant          = "."
	indentationConstant                 = "  "
	emptyFieldPathMessageConstant       = "field path must not be empty"
	rootNotObjectMessageConstant        = "manifest root must be a JSON object"
	trailingContentMessageConstant      = "unexpected content after manifest object"
	unexpectedDelimiterTemplateConstant = "unexpected delimiter %v"
	fieldMissingTemplateConstant        = "field %q is not present"
	fieldNotStringTemplateConstant      = "field %q holds %T, expected a string"
	fieldNotObjectTemplateConstant      = "field %q holds %T, expected an object"
)

// Object is a JSON object that remembers the order in which its keys appeared.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject constructs an empty ordered object.
func NewObject() *Object {
	return &Object{values: map[string]any{}}
}

// Keys returns the keys in document order.
func (object *Object) Keys() []string {
	duplicatedKeys := make([]string, len(object.keys))
	copy(duplicatedKeys, object.keys)
	return duplicatedKeys
}

// Get returns the value stored under key.
func (object *Object) Get(key string) (any, bool) {
	value, exists := object.values[key]
	return value, exists
}

// Set stores the value, appending the key when it is new and keeping its position otherwise.
func (object *Object) Set(key string, value any) {
	if _, exists := object.values[key]; !exists {
		object.keys = append(object.keys, key)
	}
	object.values[key] = value
}

// MarshalJSON renders the object with keys in document order.
func (object *Object) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for keyIndex, key := range object.keys {
		if keyIndex > 0 {
			buffer.WriteByte(',')
		}
		encodedKey, keyError := marshalWithoutEscaping(key)
		if keyError != nil {
			return nil, keyError
		}
		buffer.Write(encodedKey)
		buffer.WriteByte(':')
		encodedValue, valueError := marshalWithoutEscaping(object.values[key])
		if valueError != nil {
			return nil, valueError
		}
		buffer.Write(encodedValue)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// Document is a decoded package manifest.
type Document struct {
	root *Object
}

// Decode parses manifest content, preserving key order and number literals.
func Decode(content []byte) (*Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()

	rootValue, decodeError := decodeValue(decoder)
	if decodeError != nil {
		return nil, decodeError
	}
	rootObject, isObject := rootValue.(*Object)
	if !isObject {
		return nil, errors.New(rootNotObjectMessageConstant)
	}
	if _, trailingError := decoder.Token(); !errors.Is(trailingError, io.EOF) {
		return nil, errors.New(trailingContentMessageConstant)
	}

	return &Document{root: rootObject}, nil
}

// Encode renders the manifest with two-space indentation and a trailing newline.
func (document *Document) Encode() ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indentationConstant)
	if encodeError := encoder.Encode(document.root); encodeError != nil {
		return nil, encodeError
	}
	return buffer.Bytes(), nil
}

// Root exposes the top-level object.
func (document *Document) Root() *Object {
	return document.root
}

// String reads the string value at a dotted field path such as "dependencies.pnpm".
func (document *Document) String(fieldPath string) (string, error) {
	pathSegments, pathError := splitFieldPath(fieldPath)
	if pathError != nil {
		return "", pathError
	}

	currentObject := document.root
	for segmentIndex, pathSegment := range pathSegments {
		value, exists := currentObject.Get(pathSegment)
		if !exists {
			return "", fmt.Errorf(fieldMissingTemplateConstant, fieldPath)
		}
		if segmentIndex == len(pathSegments)-1 {
			stringValue, isString := value.(string)
			if !isString {
				return "", fmt.Errorf(fieldNotStringTemplateConstant, fieldPath, value)
			}
			return stringValue, nil
		}
		nestedObject, isObject := value.(*Object)
		if !isObject {
			return "", fmt.Errorf(fieldNotObjectTemplateConstant, strings.Join(pathSegments[:segmentIndex+1], fieldPathSeparatorConstant), value)
		}
		currentObject = nestedObject
	}

	return "", fmt.Errorf(fieldMissingTemplateConstant, fieldPath)
}

// SetString stores a string at a dotted field path, creating intermediate objects as needed.
func (document *Document) SetString(fieldPath string, value string) error {
	pathSegments, pathError := splitFieldPath(fieldPath)
	if pathError != nil {
		return pathError
	}

	currentObject := document.root
	for segmentIndex, pathSegment := range pathSegments[:len(pathSegments)-1] {
		existingValue, exists := currentObject.Get(pathSegment)
		if !exists {
			nestedObject := NewObject()
			currentObject.Set(pathSegment, nestedObject)
			currentObject = nestedObject
			continue
		}
		nestedObject, isObject := existingValue.(*Object)
		if !isObject {
			return fmt.Errorf(fieldNotObjectTemplateConstant, strings.Join(pathSegments[:segmentIndex+1], fieldPathSeparatorConstant), existingValue)
		}
		currentObject = nestedObject
	}

	currentObject.Set(pathSegments[len(pathSegments)-1], value)
	return nil
}

func splitFieldPath(fieldPath string) ([]string, error) {
	trimmedFieldPath := strings.TrimSpace(fieldPath)
	if len(trimmedFieldPath) == 0 {
		return nil, errors.New(emptyFieldPathMessageConstant)
	}
	pathSegments := strings.Split(trimmedFieldPath, fieldPathSeparatorConstant)
	for _, pathSegment := range pathSegments {
		if len(pathSegment) == 0 {
			return nil, errors.New(emptyFieldPathMessageConstant)
		}
	}
	return pathSegments, nil
}

func decodeValue(decoder *json.Decoder) (any, error) {
	token, tokenError := decoder.Token()
	if tokenError != nil {
		return nil, tokenError
	}

	delimiter, isDelimiter := token.(json.Delim)
	if !isDelimiter {
		return token, nil
	}

	switch delimiter {
	case '{':
		object := NewObject()
		for decoder.More() {
			keyToken, keyError := decoder.Token()
			if keyError != nil {
				return nil, keyError
			}
			key, _ := keyToken.(string)
			value, valueError := decodeValue(decoder)
			if valueError != nil {
				return nil, valueError
			}
			object.Set(key, value)
		}
		if _, closeError := decoder.Token(); closeError != nil {
			return nil, closeError
		}
		return object, nil
	case '[':
		elements := []any{}
		for decoder.More() {
			element, elementError := decodeValue(decoder)
			if elementError != nil {
				return nil, elementError
			}
			elements = append(elements, element)
		}
		if _, closeError := decoder.Token(); closeError != nil {
			return nil, closeError
		}
		return elements, nil
	default:
		return nil, fmt.Errorf(unexpectedDelimiterTemplateConstant, delimiter)
	}
}

func marshalWithoutEscaping(value any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if encodeError := encoder.Encode(value); encodeError != nil {
		return nil, encodeError
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}
