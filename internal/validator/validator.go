// Package validator wraps go-playground/validator with json field names and
// per-field Spanish messages.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Messages maps "field.tag" (for example "title.required") to the message reported for that failure
type Messages map[string]string

// Validate checks s and returns nil or an error carrying the first failure's message.
// Failures without an entry in msgs fall back to fallback.
func Validate(s interface{}, msgs Messages, fallback string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	first := verrs[0]
	if msg, ok := msgs[first.Field()+"."+first.Tag()]; ok {
		return errors.New(msg)
	}
	return errors.New(fallback)
}

// Var validates a single value against tag
func Var(value interface{}, tag string) error {
	return validate.Var(value, tag)
}
