package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeError reports a backend payload that is malformed or lacks a
// required field.
type DecodeError struct {
	Type  string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: invalid or missing field %q", e.Type, e.Field)
	}
	return fmt.Sprintf("decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Validate runs the struct's validate tags and reports the first failing
// field by its JSON name.
func Validate(typ string, v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &DecodeError{Type: typ, Field: verrs[0].Field(), Err: err}
		}
		return &DecodeError{Type: typ, Err: err}
	}
	return nil
}

func DecodeUsers(b []byte) ([]User, error) {
	var out []User
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, &DecodeError{Type: "users", Err: err}
	}
	for i := range out {
		if err := Validate("user", &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func DecodeUser(b []byte) (*User, error) {
	var u *User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, &DecodeError{Type: "user", Err: err}
	}
	if u == nil {
		return nil, &DecodeError{Type: "user", Err: errors.New("empty body")}
	}
	if err := Validate("user", u); err != nil {
		return nil, err
	}
	return u, nil
}

func DecodeRide(b []byte) (*Ride, error) {
	var r *Ride
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, &DecodeError{Type: "ride", Err: err}
	}
	if r == nil {
		return nil, &DecodeError{Type: "ride", Err: errors.New("empty body")}
	}
	if err := Validate("ride", r); err != nil {
		return nil, err
	}
	return r, nil
}

func DecodeRides(b []byte) ([]Ride, error) {
	var out []Ride
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, &DecodeError{Type: "rides", Err: err}
	}
	for i := range out {
		if err := Validate("ride", &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
