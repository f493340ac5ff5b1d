package routes

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"netsuite-gateway/models"
)

var validationOnce sync.Once

// registerValidations teaches the binding layer the period formats request
// DTOs carry, so malformed input fails at bind time instead of deep in a
// query builder.
func registerValidations() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
			_, err := models.NormalizePeriod(fl.Field().String())
			return err == nil
		})
	})
}
