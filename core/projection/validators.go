package projection

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/malla/core"
)

var (
	projTypeTag  = "projtype"
	projTypeText = "must be one of: manual, automatica"

	maxNameLen     = 120
	errNameTooLong = "name must be at most 120 characters long"
)

// InitValidators registers the projection validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(projTypeTag, projTypeValidation)
	core.RegisterCustomTranslation(validate, translator, projTypeTag, projTypeText)
}

// projTypeValidation checks that the field is one of AllTypes.
func projTypeValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, t := range AllTypes {
		if val == t {
			return true
		}
	}
	return false
}
