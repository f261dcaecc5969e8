// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"budgetapp/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(requestFieldName)
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("month_code", validateMonthCode)
		_ = v.RegisterValidation("money", validateMoney)
	}
}

// requestFieldName reports fields by their json (or form) name so errors
// point at the request field the client sent.
func requestFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}

// FirstInvalidField returns the request field of the first failed rule in
// err, or "" when err is not a validation error.
func FirstInvalidField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

// decimalValue lets tags see a decimal.Decimal as its canonical string.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateMonthCode(fl validator.FieldLevel) bool {
	_, ok := models.ParseMonth(fl.Field().String())
	return ok
}

func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return models.ValidMoney(d)
}
