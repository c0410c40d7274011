package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance with the shot_type and angle tags
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("shot_type", func(fl validator.FieldLevel) bool {
		_, err := entities.ParseShotType(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("angle", func(fl validator.FieldLevel) bool {
		_, err := entities.ParseAngle(fl.Field().String())
		return err == nil
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
