// Package form decodes and validates submitted forms.
//
// Struct tags drive validation (go-playground/validator); the `form` tag
// names the HTML input and the key used in Errors, so templates can look
// errors up by input name.
package form

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/model"
)

// Errors maps an input name to its first validation message.
// It is an error that matches apperror.ErrValidation.
type Errors map[string]string

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, k := range slices.Sorted(maps.Keys(e)) {
		msgs = append(msgs, e[k])
	}
	return strings.Join(msgs, " ")
}

func (e Errors) Unwrap() error { return apperror.ErrValidation }

// Validator wraps a configured *validator.Validate. It is safe for
// concurrent use; build one at startup and share it.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// The rating tag can't fail to register: the name is fixed and the
	// function is non-nil.
	_ = v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= model.MinRating && n <= model.MaxRating
	})

	return &Validator{v: v}
}

// Validate checks s against its struct tags. It returns nil or Errors.
func (val *Validator) Validate(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("form: validating: %w", err)
	}

	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "url", "http_url":
		return label + " must be a valid URL."
	case "email":
		return "Enter a valid email address."
	case "rating":
		return fmt.Sprintf("%s must be a rating from %d to %d.", label, model.MinRating, model.MaxRating)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	default:
		return label + " is invalid."
	}
}

var labels = map[string]string{
	"name":                 "Park name",
	"map_url":              "Map URL",
	"photo_url":            "Photo URL",
	"playground_condition": "Playground condition",
	"playground_variety":   "Playground variety",
	"security":             "Security",
	"tree_coverage":        "Tree coverage",
	"email":                "Email",
	"password":             "Password",
	"display_name":         "Name",
	"user_question":        "Question",
}

// truthy is the complete set of strings ParseBool accepts as true.
var truthy = map[string]bool{
	"true": true,
	"1":    true,
	"on":   true,
	"yes":  true,
	"y":    true,
}

// ParseBool reports whether s is one of the truthy tokens, ignoring case
// and surrounding space. Anything else, including "false" and "", is false.
func ParseBool(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// parseRating returns 0 for anything that is not an integer, which the
// rating validator then rejects.
func parseRating(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
