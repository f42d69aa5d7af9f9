package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so messages match the
// request bodies callers send.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func Validate[T any](value T) (T, error) {
	if err := validate.Struct(value); err != nil {
		return value, ValidationErrorToString(err)
	}
	return value, nil
}

// ValidateValue checks a single path or query value against tag.
func ValidateValue(value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return ValidationErrorToString(err)
	}
	return nil
}

// ValidationErrorToString joins every field failure into one message, e.g.
// "relationships[0].subType failed 'required'".
func ValidationErrorToString(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	failures := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		failures = append(failures, describeFailure(fe))
	}
	return errors.New(strings.Join(failures, "; "))
}

func describeFailure(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	if field == "" {
		field = "value"
	}

	var b strings.Builder
	b.WriteString(field)
	b.WriteString(" failed '")
	b.WriteString(fe.Tag())
	if fe.Param() != "" {
		b.WriteString("=")
		b.WriteString(fe.Param())
	}
	b.WriteString("'")
	return b.String()
}
