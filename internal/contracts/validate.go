package contracts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("department", oneOf(Departments))
	_ = validate.RegisterValidation("waste_category", oneOf(WasteCategories))
	_ = validate.RegisterValidation("procedure", oneOf(Procedures))
	_ = validate.RegisterValidation("disposal_method", oneOf(DisposalMethods))
	_ = validate.RegisterValidation("shift", oneOf(Shifts))
}

func oneOf[T ~string](allowed []T) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[string(v)] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// Validate checks a WasteSubmission or BaselineInput payload and flattens field errors
// into a single readable message.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "department", "waste_category", "procedure", "disposal_method", "shift":
		return fmt.Sprintf("%s has unsupported value %q", fe.Field(), fe.Value())
	default:
		return fe.Field() + " is invalid"
	}
}
