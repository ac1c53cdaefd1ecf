// Package validator registers the scheduler's custom binding tags with
// go-playground/validator.
package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-scheduler/pkg/timeofday"
)

const (
	TagTimeOfDay = "hhmm"
	TagDate      = "ymd"
)

// Register adds the custom tags to v and reports fields by their json name.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagTimeOfDay, timeOfDay); err != nil {
		return err
	}
	if err := v.RegisterValidation(TagDate, date); err != nil {
		return err
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}

// RegisterGin installs the custom tags on gin's default binding engine.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}

func timeOfDay(fl validator.FieldLevel) bool {
	s, ok := stringValue(fl.Field())
	if !ok {
		return false
	}
	_, err := timeofday.Minutes(s)
	return err == nil
}

func date(fl validator.FieldLevel) bool {
	s, ok := stringValue(fl.Field())
	if !ok {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func stringValue(v reflect.Value) (string, bool) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.String {
		return "", false
	}
	return v.String(), true
}

// Messages flattens validator errors into "field: reason" strings.
func Messages(err error) []string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field()+": "+message(e))
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case TagTimeOfDay:
		return "must be formatted HH:MM"
	case TagDate:
		return "must be formatted YYYY-MM-DD"
	case "min":
		return "must be at least " + e.Param()
	}
	return "failed " + e.Tag() + " validation"
}
