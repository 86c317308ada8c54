// Package forms validates submitted form structs and reports the first failing field with
// the human-readable message declared in its msg tag.
package forms

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every *FieldError.
var ErrInvalid = errors.New("invalid form data")

// DefaultMessage is used when a failing field declares no msg tag.
const DefaultMessage = "Invalid form data. Please check your inputs and try again."

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// FieldError names the first field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validateInst = v
	})
	return validateInst
}

// Validate checks v against its validate tags. Failures are reported in struct field order.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	first := verrs[0]
	return &FieldError{Field: first.Field(), Message: messageFor(v, first.StructField())}
}

// Message extracts the user-facing text from err, falling back to DefaultMessage.
func Message(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return DefaultMessage
}

func messageFor(v any, structField string) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return DefaultMessage
	}
	f, ok := t.FieldByName(structField)
	if !ok {
		return DefaultMessage
	}
	if msg := f.Tag.Get("msg"); msg != "" {
		return msg
	}
	return DefaultMessage
}

// Validator exposes the shared instance for packages that validate whole documents.
func Validator() *validator.Validate {
	return validatorInstance()
}
