package httpserver

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// fieldError mirrors one entry of the 422 details list.
type fieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

var fieldMessages = map[string]string{
	"Username.required": "Username is required",
	"Username.min":      "Username is required",
	"Username.alphanum": "Username contains non alphanumeric characters - not allowed",
	"Password.required": "Password is required",
	"Email.required":    "Email does not appear to be valid",
	"Email.email":       "Email does not appear to be valid",
	"Birthday.date":     "Birthday must be a date in YYYY-MM-DD format",
}

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	})
	return &requestValidator{validate: v}
}

// Struct validates req and flattens failures into field errors. A non-nil
// error is only returned when req itself cannot be validated.
func (v *requestValidator) Struct(req interface{}) ([]fieldError, error) {
	err := v.validate.Struct(req)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " failed " + fe.Tag() + " validation"
		}
		out = append(out, fieldError{Param: fe.Field(), Msg: msg})
	}
	return out, nil
}

// parseDate accepts a bare calendar date or a full RFC 3339 timestamp, which
// browsers send for date inputs serialized through Date.toISOString.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}
