package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of the errors list in a VALIDATION_ERROR response.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	}
}

func fieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in the format %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
}

// respondBindingError writes a 400 VALIDATION_ERROR. Malformed bodies that never
// reached the validator come back without a field list.
func respondBindingError(c *gin.Context, err error) {
	body := gin.H{
		"success":   false,
		"message":   "Invalid request payload",
		"errorCode": ErrCodeValidation,
	}
	if fields := fieldErrors(err); len(fields) > 0 {
		body["errors"] = fields
	} else {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

type normalizer interface {
	Normalize()
}

// bindNormalizedJSON decodes the body, lets the request trim and case-fold its
// fields, then runs the binding tags on the cleaned values.
func bindNormalizedJSON(c *gin.Context, obj normalizer) error {
	if c.Request.Body == nil {
		return errors.New("request body is empty")
	}
	if err := json.NewDecoder(c.Request.Body).Decode(obj); err != nil {
		return err
	}
	obj.Normalize()
	return binding.Validator.ValidateStruct(obj)
}
