package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

var (
	aadharPattern = regexp.MustCompile(`^\d{12}$`)
	phonePattern  = regexp.MustCompile(`^\d{10}$`)

	once     sync.Once
	instance *validator.Validate
)

// closedSet is implemented by the enum types
type closedSet interface {
	IsValid() bool
}

// Get returns the shared validator with the custom tags registered:
//
//	aadhar  exactly 12 digits
//	phone   exactly 10 digits
//	enum    value is a member of its enum type
//
// decimal.Decimal fields validate as float64 and uuid.UUID as its string
// form (uuid.Nil is empty), so gte/lte/required work on them directly.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})

		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if id, ok := field.Interface().(uuid.UUID); ok && id != uuid.Nil {
				return id.String()
			}
			return ""
		}, uuid.UUID{})

		_ = v.RegisterValidation("aadhar", func(fl validator.FieldLevel) bool {
			return aadharPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
			e, ok := fl.Field().Interface().(closedSet)
			return ok && e.IsValid()
		})

		instance = v
	})
	return instance
}

// Struct validates s and returns a 422 AppError listing every failed field.
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewBadRequestError(err.Error())
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return apperror.NewValidationError(fields)
}

// fieldPath drops the top-level struct name: "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "aadhar":
		return "must be exactly 12 digits"
	case "phone":
		return "must be exactly 10 digits"
	case "enum", "oneof":
		return fmt.Sprintf("invalid value %v", fe.Value())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
