package validator

import (
	"errors"
	"fmt"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateVar(field string, value interface{}, tag string) error
}

type validator struct {
	v *playground.Validate
}

func New() Validator {
	return &validator{v: playground.New(playground.WithRequiredStructEnabled())}
}

// Validate checks obj against its `validate` tags and flattens failures
// into a single readable error.
func (v *validator) Validate(obj interface{}) error {
	return humanize(v.v.Struct(obj))
}

// ValidateVar checks a single value against a tag such as "required,email".
func (v *validator) ValidateVar(field string, value interface{}, tag string) error {
	if err := v.v.Var(value, tag); err != nil {
		var verrs playground.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s failed on %q", field, verrs[0].Tag())
		}
		return err
	}
	return nil
}

func humanize(err error) error {
	if err == nil {
		return nil
	}
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
