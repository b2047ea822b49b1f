package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound means the referenced client or work transaction does
	// not exist. Nothing was mutated.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the client still owns work transactions and
	// cannot be deleted. Nothing was mutated.
	ErrConflict = errors.New("client still has work transactions")
)

// ValidationError carries field-level detail about rejected input.
// Nothing is mutated when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// newValidationError maps validator tag failures onto field messages.
func newValidationError(err error) *ValidationError {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			name := fe.Field()
			// dive failures report as e.g. WorkTypes[0]; collapse to the field.
			if i := strings.IndexByte(name, '['); i >= 0 {
				name = name[:i]
			}
			switch fe.Tag() {
			case "required":
				fields[name] = "is required"
			case "gte":
				fields[name] = fmt.Sprintf("must be at least %s", fe.Param())
			case "min":
				fields[name] = fmt.Sprintf("must have at least %s items", fe.Param())
			case "datetime":
				fields[name] = "must be a valid date in YYYY-MM-DD format"
			case "email":
				fields[name] = "must be a valid email address"
			default:
				fields[name] = "is invalid"
			}
		}
	} else {
		fields["input"] = err.Error()
	}
	return &ValidationError{Fields: fields}
}
