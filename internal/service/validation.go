package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

// Validator wraps go-playground validation with English messages keyed by JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator builds a validator with translations registered.
func NewValidator() *Validator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate, translator: translator}
}

// Struct validates v and converts failures into a VALIDATION_ERROR with field detail.
func (v *Validator) Struct(s interface{}, message string) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	fields := make([]appErrors.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, appErrors.FieldError{
			Field:   fieldPath(fe),
			Message: fe.Translate(v.translator),
		})
	}
	return appErrors.Validation(message, fields...)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}
