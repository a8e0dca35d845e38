// Package services holds the business workflows behind the HTTP handlers:
// pricing, the order lifecycle, the catalog, accounts and reports.
package services

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/repository"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and reports the first failure as a
// validation error naming the offending field.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation("invalid request")
	}
	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return apperrors.Validation("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return apperrors.Validation("%s needs at least %s entries", field, fe.Param())
		}
		return apperrors.Validation("%s must be at least %s", field, fe.Param())
	case "max":
		return apperrors.Validation("%s must be at most %s", field, fe.Param())
	case "oneof":
		return apperrors.Validation("%s must be one of: %s", field, fe.Param())
	case "email":
		return apperrors.Validation("%s must be a valid email address", field)
	default:
		return apperrors.Validation("%s is invalid", field)
	}
}

const dateLayout = "2006-01-02"

// ParseDateRange reads optional YYYY-MM-DD bounds in loc. The upper bound
// covers the whole of its day.
func ParseDateRange(from, to string, loc *time.Location) (repository.DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	var r repository.DateRange
	if from != "" {
		start, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return r, apperrors.Validation("invalid date %q, expected YYYY-MM-DD", from)
		}
		r.From = &start
	}
	if to != "" {
		day, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return r, apperrors.Validation("invalid date %q, expected YYYY-MM-DD", to)
		}
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		r.To = &end
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return r, apperrors.Validation("date range ends before it starts")
	}
	return r, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
