package serverutils

import (
	"fmt"
	"strings"

	"festival-cms-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and folds the failures into one
// validation error.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var problems []string
	for _, fieldErr := range err.(validator.ValidationErrors) {
		problems = append(problems, fmt.Sprintf("%s failed on %q", fieldErr.Field(), fieldErr.Tag()))
	}
	return apperror.New(apperror.KindValidation, "request.Validate", strings.Join(problems, "; "))
}
