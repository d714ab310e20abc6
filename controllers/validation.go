package controllers

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newRequestValidator returns a validator reporting fields by their JSON name
func newRequestValidator() *validator.Validate {
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

// missingFields validates only the named struct fields of req and returns the
// JSON names of those that failed, in the order fields lists them.
func missingFields(v *validator.Validate, req interface{}, fields ...string) ([]string, error) {
	err := v.StructPartial(req, fields...)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}
	position := make(map[string]int, len(fields))
	for i, field := range fields {
		position[field] = i
	}
	failed := []validator.FieldError(validationErrors)
	sort.SliceStable(failed, func(i, j int) bool {
		return position[failed[i].StructField()] < position[failed[j].StructField()]
	})

	missing := make([]string, 0, len(failed))
	for _, fe := range failed {
		missing = append(missing, fe.Field())
	}
	return missing, nil
}
