package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront/internal/pricing"
)

// Draft is the address and contact form of one checkout attempt. It is
// never persisted.
type Draft struct {
	State        string `json:"state" validate:"required,ngstate"`
	City         string `json:"city" validate:"required"`
	Address      string `json:"address" validate:"required,min=10"`
	Phone        string `json:"phone" validate:"required,ngphone"`
	DiscountCode string `json:"discountCode"`
}

// Normalized trims every field and strips whitespace inside the phone number.
func (d Draft) Normalized() Draft {
	return Draft{
		State:        strings.TrimSpace(d.State),
		City:         strings.TrimSpace(d.City),
		Address:      strings.TrimSpace(d.Address),
		Phone:        strings.Join(strings.Fields(d.Phone), ""),
		DiscountCode: strings.TrimSpace(d.DiscountCode),
	}
}

// Country code or leading zero, then a 7/8/9 mobile prefix and nine digits.
var phonePattern = regexp.MustCompile(`^(\+234|0)[789]\d{9}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.Join(strings.Fields(phone), ""))
}

// FieldErrors maps a draft field to the message shown next to it.
type FieldErrors map[string]string

func (f FieldErrors) Valid() bool {
	return len(f) == 0
}

var fieldMessages = map[string]map[string]string{
	"state": {
		"required": "State is required",
		"ngstate":  "Select a valid state",
	},
	"city": {
		"required": "City is required",
	},
	"address": {
		"required": "Delivery address is required",
		"min":      "Please provide a complete address",
	},
	"phone": {
		"required": "Phone number is required",
		"ngphone":  "Enter a valid Nigerian phone number",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ngphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("ngstate", func(fl validator.FieldLevel) bool {
		return pricing.ValidState(fl.Field().String())
	})
	return v
}

// Validate checks every field and reports all failures at once.
func Validate(d Draft) FieldErrors {
	errs := FieldErrors{}

	err := validate.Struct(d.Normalized())
	if err == nil {
		return errs
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = "Invalid checkout details"
		return errs
	}
	for _, fe := range validationErrors {
		field := fe.Field()
		msg, ok := fieldMessages[field][fe.Tag()]
		if !ok {
			msg = field + " is invalid"
		}
		errs[field] = msg
	}
	return errs
}
