// Package validate checks request payloads with go-playground/validator and
// reports failures as field-tagged apperr validation errors.
//
// A struct field may carry a `msg` tag; it replaces the library's default
// message for any rule failing on that field.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MKale112/devConnector/internal/apperr"
)

var v = newValidator()

func newValidator() *validator.Validate {
	x := validator.New()
	x.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return x
}

// Struct validates s. It returns nil or an *apperr.Error of KindValidation.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	t := reflect.Indirect(reflect.ValueOf(s)).Type()
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Error()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		fields = append(fields, apperr.FieldError{Msg: msg, Param: fe.Field()})
	}
	return apperr.Validation(fields...)
}
