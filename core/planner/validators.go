package planner

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/malla/core"
)

var (
	courseCodeTag  = "coursecode"
	courseCodeText = "invalid course code"

	periodCodeTag  = "periodcode"
	periodCodeText = "invalid academic period; expected 202410 or 2024-1"
)

// InitValidators registers the planner validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(courseCodeTag, courseCodeValidation)
	core.RegisterCustomTranslation(validate, translator, courseCodeTag, courseCodeText)

	_ = validate.RegisterValidation(periodCodeTag, periodCodeValidation)
	core.RegisterCustomTranslation(validate, translator, periodCodeTag, periodCodeText)
}

// courseCodeValidation accepts anything that still holds a letter or digit once normalized.
func courseCodeValidation(fl validator.FieldLevel) bool {
	return NormalizeCode(fl.Field().String()) != ""
}

func periodCodeValidation(fl validator.FieldLevel) bool {
	_, err := ParsePeriod(fl.Field().String())
	return err == nil
}
