package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"taskmanager/internal/core/model/response"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	Validator.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

		if name == "-" {
			return ""
		}

		return name
	})

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	addCustomTranslations()
}

func addCustomTranslations() {
	register := func(tag, text string, params func(fe validator.FieldError) []string) {
		Validator.RegisterTranslation(tag, Translator, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, params(fe)...)
			return t
		})
	}

	register("required", "{0} is required", func(fe validator.FieldError) []string {
		return []string{fe.Field()}
	})

	register("min", "{0} must be at least {1} characters", func(fe validator.FieldError) []string {
		return []string{fe.Field(), fe.Param()}
	})

	register("max", "{0} must be at most {1} characters", func(fe validator.FieldError) []string {
		return []string{fe.Field(), fe.Param()}
	})

	register("email", "{0} must be a valid email address", func(fe validator.FieldError) []string {
		return []string{fe.Field()}
	})
}

func FormatValidationErrors(err error) []response.ValidationError {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make([]response.ValidationError, 0, len(validationErrors))

	for _, fieldError := range validationErrors {
		out = append(out, response.ValidationError{
			Field:   fieldError.Field(),
			Message: fieldError.Translate(Translator),
		})
	}

	return out
}
