package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iyann1255/daftaren/lib/phone"
)

const (
	tagContact = "wa"
	nameRules  = "required,min=3,max=64"
)

// Validator checks registration input. The "wa" tag validates a contact
// number against the configured phone rule.
type Validator struct {
	v    *validator.Validate
	rule phone.Rule
}

func New(rule phone.Rule) *Validator {
	v := newValidate()
	_ = v.RegisterValidation(tagContact, func(fl validator.FieldLevel) bool {
		_, ok := rule.Normalize(fl.Field().String())
		return ok
	})
	return &Validator{v: v, rule: rule}
}

// Name validates a display name and returns it trimmed.
func (v *Validator) Name(input string) (string, error) {
	name := strings.Join(strings.Fields(input), " ")
	if err := v.v.Var(name, nameRules); err != nil {
		return "", describe(err)
	}
	return name, nil
}

// Contact validates a phone number and returns its normalized form.
func (v *Validator) Contact(input string) (string, error) {
	if err := v.v.Var(input, "required,"+tagContact); err != nil {
		return "", describe(err)
	}
	normalized, _ := v.rule.Normalize(input)
	return normalized, nil
}

// Struct validates a single struct object
func (v *Validator) Struct(s interface{}) error {
	return structWith(v.v, s)
}

// Struct validates a single struct object using the default tag set
func Struct(s interface{}) error {
	return structWith(newValidate(), s)
}

func newValidate() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func structWith(validate *validator.Validate, s interface{}) error {
	if s == nil {
		return fmt.Errorf("is nil")
	}
	if !isStruct(s) {
		return fmt.Errorf("not a struct")
	}
	return describe(validate.Struct(s))
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	var invalidValidationError *validator.InvalidValidationError

	if errors.As(err, &validationErrors) {
		message := ""
		for _, fieldErr := range validationErrors {
			if len(message) > 0 {
				message += "; "
			}
			if fieldErr.Field() == "" {
				message += fieldErr.Tag()
			} else {
				message += fmt.Sprintf("%s %s", fieldErr.Field(), fieldErr.Tag())
			}
		}
		return errors.New(message)
	} else if errors.As(err, &invalidValidationError) {
		return fmt.Errorf("invalid validation error: %w", err)
	} else {
		return fmt.Errorf("unknown validation error: %w", err)
	}
}

func isStruct(s interface{}) bool {
	r := reflect.TypeOf(s)
	if r.Kind() == reflect.Ptr {
		r = r.Elem()
	}
	return r.Kind() == reflect.Struct
}
