package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"archway-web/internal/locale"
)

const (
	MaxMessageLength = 500
	// MaxFieldLength matches the varchar(255) columns of the submission log.
	MaxFieldLength = 255
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactForm is the contact page form. Tags serve both gin binding and validation.
type ContactForm struct {
	Name    string `form:"name" json:"name" validate:"required,max=255"`
	Email   string `form:"email" json:"email" validate:"required,max=255,emailaddr"`
	Subject string `form:"subject" json:"subject" validate:"required,max=255"`
	Message string `form:"message" json:"message" validate:"required,max=500"`
}

// NewsletterForm is the footer signup form.
type NewsletterForm struct {
	Email string `form:"email" json:"email" validate:"required,max=255,emailaddr"`
}

func (f *ContactForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
}

func (f *NewsletterForm) trim() {
	f.Email = strings.TrimSpace(f.Email)
}

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

// NewValidator returns a validator that knows the emailaddr rule and reports
// fields by their form names. It panics if the rule cannot be registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("forms: registering emailaddr: %v", err))
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name, _, _ := strings.Cut(field.Tag.Get("form"), ","); name != "" && name != "-" {
			return name
		}
		return field.Name
	})
	return v
}

// IsEmail reports whether s passes the address check used by both forms.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// messageKeys maps "field.tag" or "tag" to a catalog key; the field form wins.
type messageKeys map[string]string

var (
	contactMessages = messageKeys{
		"required":    "validation.required",
		"emailaddr":   "validation.invalid_email",
		"max":         "validation.too_long",
		"message.max": "validation.message_too_long",
	}
	newsletterMessages = messageKeys{
		"required":  "footer.newsletter.email_required",
		"emailaddr": "footer.newsletter.invalid_email",
		"max":       "footer.newsletter.invalid_email",
	}
)

// fieldErrors validates form and translates failures; nil means valid.
func fieldErrors(v *validator.Validate, form any, keys messageKeys, catalog *locale.Catalog, l locale.Locale) FieldErrors {
	err := v.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		key, ok := keys[fe.Field()+"."+fe.Tag()]
		if !ok {
			key, ok = keys[fe.Tag()]
		}
		if !ok {
			key = "validation.required"
		}
		out[fe.Field()] = catalog.T(l, key)
	}
	return out
}
