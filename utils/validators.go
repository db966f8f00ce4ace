package utils

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func InitValidator() {
	Validate = validator.New()
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("eventdate", ValidateEventDateRule)
		v.RegisterValidation("eventtime", ValidateEventTimeRule)
	}
}

func ValidateEventDateRule(fl validator.FieldLevel) bool {
	return ValidateEventDate(fl.Field().String())
}

func ValidateEventTimeRule(fl validator.FieldLevel) bool {
	_, ok := NormalizeEventTime(fl.Field().String())
	return ok
}

// ValidateEventDate accepts an empty value or a YYYY-MM-DD calendar date.
func ValidateEventDate(value string) bool {
	if value == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// NormalizeEventTime accepts an empty value, HH:MM or HH:MM:SS, and returns
// the minute-precision HH:MM form. Seconds are accepted on input but never
// preserved.
func NormalizeEventTime(value string) (string, bool) {
	if value == "" {
		return "", true
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}
