package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"shelfswap/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the domain enum tags registered:
// rarity, tradestatus and notiftype.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("rarity", func(fl validator.FieldLevel) bool {
			return models.Rarity(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("tradestatus", func(fl validator.FieldLevel) bool {
			return models.TradeStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("notiftype", func(fl validator.FieldLevel) bool {
			return models.NotificationType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// Struct validates s against its `validate` tags and reports the first
// violation as a VALIDATION_ERROR.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return models.NewValidationError(describe(verrs[0]))
	}
	return models.NewValidationError("Invalid request body")
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "rarity":
		return fmt.Sprintf("%s must be one of common, rare, ultra-rare, limited", field)
	case "tradestatus":
		return fmt.Sprintf("%s must be one of pending, accepted, rejected, completed", field)
	case "notiftype":
		return fmt.Sprintf("%s is not a known notification type", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "email":
		return "invalid email format"
	case "url", "uri":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
