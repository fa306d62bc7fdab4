// ABOUTME: Argument guards shared by the role and user stores
// ABOUTME: Null values fail, empty strings only fail where a key is required

// Package validate holds the argument guards used at every store entry point.
package validate

import (
	"reflect"

	"github.com/2389/docstore-identity/internal/identity"
)

// NotNil fails with an invalid-argument error when v is nil. Typed nil
// pointers, maps, slices, funcs, channels and interfaces count as nil. A
// non-nil pointer to an empty string passes.
//
// The optional message replaces the default text.
func NotNil(v any, name string, message ...string) error {
	if !isNil(v) {
		return nil
	}
	return argumentError(name, message)
}

// NotEmpty fails with an invalid-argument error when s is empty. It guards
// lookup keys such as login providers, token names and identifiers.
func NotEmpty(s, name string, message ...string) error {
	if s != "" {
		return nil
	}
	return argumentError(name, message)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func argumentError(name string, message []string) error {
	err := &identity.ArgumentError{Name: name}
	if len(message) > 0 {
		err.Message = message[0]
	}
	return err
}
