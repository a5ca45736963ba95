package config

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/kbukum/asynciter/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their config key.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// ValidateStruct checks the `validate` tags of s and returns an INVALID_INPUT
// AppError listing every failing field under the "fields" detail.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("config validation failed").WithCause(err)
	}

	fields := make(map[string]string, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		key := fieldKey(e)
		msg := describe(e)
		fields[key] = msg
		messages = append(messages, key+": "+msg)
	}
	return apperrors.Validation(strings.Join(messages, "; ")).WithDetail("fields", fields)
}

// fieldKey drops the root struct name from the namespace, leaving the
// dotted config key.
func fieldKey(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	case "hostname_port":
		return "must be host:port"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "needs at least " + e.Param() + " entries"
	case "gtefield":
		return "must not be below " + e.Param()
	case "excluded_with":
		return "must be unset when " + e.Param() + " is set"
	case "required_with":
		return "is required with " + e.Param()
	case "url":
		return "must be a URL"
	default:
		return "is invalid"
	}
}
