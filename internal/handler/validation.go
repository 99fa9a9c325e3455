package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/catalogify/product-catalog-api/internal/repository"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// Validator adapts go-playground/validator to Echo's Validator interface
// and registers the catalog's custom rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the request validator.  Field names in error messages
// use the json tag so clients see the names they sent.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
		return skuPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return repository.Category(fl.Field().String()).Valid()
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// validationError turns a validator failure into the API's 400 response
// with one message per offending field.
func validationError(c echo.Context, err error) error {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = messageFor(fe)
		}
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation failed", "errors": fields})
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "sku":
		return "must contain only uppercase letters, numbers, and hyphens"
	case "category":
		return "is not a valid product category"
	case "http_url":
		return "must be a valid http or https URL"
	}
	return "is invalid"
}
