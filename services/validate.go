package services

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.Regions, fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validateStruct runs the struct tags of s and reports failures as a
// *models.ValidationError keyed by json field name.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return models.NewValidationError(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "email":
		return "e-mail inválido"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("deve ter ao menos %s caracteres", fe.Param())
		}
		return "deve ser no mínimo " + fe.Param()
	case "gt":
		return "deve ser maior que " + fe.Param()
	case "oneof":
		return "deve ser um de: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "region":
		return "região inválida, use: " + strings.Join(models.Regions, ", ")
	default:
		return "valor inválido"
	}
}
