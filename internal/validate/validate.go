// Package validate wraps go-playground/validator so every service reports
// field errors the same way: as a *types.ValidationError whose messages use
// the JSON field names the client actually sent.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/degree-registry/internal/types"
)

// A single validator instance is safe for concurrent use and caches the
// parsed struct tags, so it is shared package-wide.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(jsonName)
	return val
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// Struct validates s against its validate:"..." tags. It returns nil or a
// *types.ValidationError.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: a programming error (non-struct passed).
		return fmt.Errorf("validate.Struct: %w", err)
	}

	typ := reflect.Indirect(reflect.ValueOf(s)).Type()
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, message(e, typ))
	}
	return types.NewValidationError(msgs...)
}

// message converts one FieldError to a plain English sentence. typ is the
// validated struct, used to name fields referenced by cross-field tags.
func message(e validator.FieldError, typ reflect.Type) string {
	switch e.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is required", e.Field())
	case "required_without":
		return fmt.Sprintf("field %s is required when %s is not given", e.Field(), paramField(typ, e.Param()))
	case "gte":
		return fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("field %s must be at most %s", e.Field(), e.Param())
	case "len":
		return fmt.Sprintf("field %s must be exactly %s characters", e.Field(), e.Param())
	case "number", "numeric":
		return fmt.Sprintf("field %s must contain only digits", e.Field())
	default:
		return fmt.Sprintf("field %s is invalid", e.Field())
	}
}

// paramField maps a Go field name used as a tag parameter to its JSON name.
func paramField(typ reflect.Type, goName string) string {
	if typ.Kind() != reflect.Struct {
		return goName
	}
	if fld, ok := typ.FieldByName(goName); ok {
		return jsonName(fld)
	}
	return goName
}
