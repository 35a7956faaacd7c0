package app

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"soundrise/internal/service"
)

// contentKindRule accepts any raw kind that normalizes to a canonical content
// kind, so handlers can reject bad kinds at binding time.
func contentKindRule(fl validator.FieldLevel) bool {
	_, err := service.NormalizeKind(fl.Field().String())
	return err == nil
}

// registerValidators installs custom rules on gin's binding engine
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("contentkind", contentKindRule)
	}
}
