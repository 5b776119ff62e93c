// Package inputval validates request payloads with go-playground/validator.
//
// Structs declare rules in `validate` tags and a human label in `label`:
//
//	type roleInput struct {
//	    Email string `json:"email" validate:"required,email" label:"Email"`
//	    Role  string `json:"role"  validate:"required,role"  label:"Role"`
//	}
//
// Validate returns a Result whose messages are safe to show to API callers.
package inputval

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Result collects the failures from one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if label := fld.Tag.Get("label"); label != "" {
				return label
			}
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "objectid", func(fl validator.FieldLevel) bool {
			return isObjectID(fl.Field().String())
		})
		mustRegister(v, "httpurl", func(fl validator.FieldLevel) bool {
			return isHTTPURL(fl.Field().String())
		})
		mustRegister(v, "role", func(fl validator.FieldLevel) bool {
			return models.IsValidRole(strings.ToLower(strings.TrimSpace(fl.Field().String())))
		})
		mustRegister(v, "userstatus", func(fl validator.FieldLevel) bool {
			return models.IsValidStatus(strings.ToLower(strings.TrimSpace(fl.Field().String())))
		})
		mustRegister(v, "blogstatus", func(fl validator.FieldLevel) bool {
			return models.IsValidBlogStatus(strings.ToLower(strings.TrimSpace(fl.Field().String())))
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("inputval: register %q: %v", tag, err))
	}
}

// Validate runs the struct's rules.
func Validate(s any) *Result {
	res := &Result{}
	err := engine().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: "Invalid input."})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "role":
		return fmt.Sprintf("%s must be one of: donor, volunteer, admin.", label)
	case "userstatus":
		return fmt.Sprintf("%s must be one of: active, inactive, suspended.", label)
	case "blogstatus":
		return fmt.Sprintf("%s must be one of: draft, published.", label)
	case "objectid":
		return label + " is not a valid id."
	case "httpurl":
		return label + " must be an http or https URL."
	default:
		return label + " is invalid."
	}
}

// isObjectID reports whether s (trimmed) is a 24-character hex id.
func isObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// isHTTPURL reports whether s is an absolute http(s) URL with a host.
func isHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
