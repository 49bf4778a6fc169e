// Package validation configures the shared request validator: English messages, JSON field
// names and the office-specific tags (mobile, batch, course, dec_gt0, dec_gte0).
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"ms-backoffice/internal/apperr"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

// Courses offered by the institute.
var Courses = []string{"MS-CIT", "TALLY", "ADVANCE_EXCEL", "IOT", "MOM", "SCRATCH", "SARTHI"}

var (
	Validate   *validator.Validate
	Translator ut.Translator

	mobileRegex = regexp.MustCompile(`^[0-9]{10}$`)
	batchRegex  = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)

	customTags = map[string]struct {
		fn   validator.Func
		text string
	}{
		"mobile":   {mobileValidation, "{0} must be a 10 digit mobile number"},
		"batch":    {batchValidation, "{0} must be in YYYY-MM format"},
		"course":   {courseValidation, "{0} must be one of " + strings.Join(Courses, ", ")},
		"dec_gt0":  {decimalGreaterThanZero, "{0} must be greater than zero"},
		"dec_gte0": {decimalNotNegative, "{0} must not be negative"},
	}
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated through their string form.
	Validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	for tag, c := range customTags {
		_ = Validate.RegisterValidation(tag, c.fn)
		registerTranslation(tag, c.text)
	}
}

func registerTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and converts failures into an *apperr.ValidationError.
func Struct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	return &apperr.ValidationError{Fields: fields}
}

func IsMobile(s string) bool { return mobileRegex.MatchString(s) }

func IsCourse(s string) bool {
	for _, c := range Courses {
		if c == s {
			return true
		}
	}
	return false
}

func mobileValidation(fl validator.FieldLevel) bool {
	return IsMobile(fl.Field().String())
}

func batchValidation(fl validator.FieldLevel) bool {
	return batchRegex.MatchString(fl.Field().String())
}

func courseValidation(fl validator.FieldLevel) bool {
	return IsCourse(fl.Field().String())
}

func decimalGreaterThanZero(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

func decimalNotNegative(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative()
}
