package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
)

// DateLayout is the ISO-8601 calendar date format used by every date field.
const DateLayout = "2006-01-02"

// Validator runs struct-tag rules. Besides the built-in tags it understands:
//
//	between=LO HI  numeric value within [LO, HI]
//	notfuture      ISO date not after today
type Validator struct {
	validate *validator.Validate
	clock    clockwork.Clock
}

// New returns a Validator reading "today" from clock. Field names in errors
// come from the json tag.
func New(clock clockwork.Clock) *Validator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		clock:    clock,
	}
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("between", validateBetween)
	_ = v.validate.RegisterValidation("notfuture", v.validateNotFuture)
	return v
}

// Struct validates s and returns field messages keyed by json field name.
// labels maps json names to display names; missing labels fall back to the
// json name. A nil map means s is valid.
func (v *Validator) Struct(s any, labels map[string]string) (map[string]string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		label := labels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}
		out[fe.Field()] = Message(label, fe.Tag(), fe.Param())
	}
	return out, nil
}

// Message renders the user-facing message for a failed rule.
func Message(label, tag, param string) string {
	switch tag {
	case "required":
		return label + " is required"
	case "between":
		lo, hi, _ := strings.Cut(param, " ")
		return fmt.Sprintf("%s must be between %s and %s", label, lo, hi)
	case "notfuture":
		return label + " cannot be in the future"
	case "datetime":
		return label + " must be a valid date (YYYY-MM-DD)"
	case "number":
		return label + " must be a number"
	default:
		return label + " is invalid"
	}
}

func validateBetween(fl validator.FieldLevel) bool {
	lo, hi, ok := parseBounds(fl.Param())
	if !ok {
		return false
	}
	var f float64
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f = fl.Field().Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(fl.Field().Int())
	default:
		return false
	}
	return f >= lo && f <= hi
}

func parseBounds(param string) (lo, hi float64, ok bool) {
	parts := strings.Fields(param)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	return lo, hi, err1 == nil && err2 == nil
}

// validateNotFuture accepts dates up to and including today in the clock's
// location. Unparseable dates pass; the datetime tag reports those.
func (v *Validator) validateNotFuture(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if _, err := time.Parse(DateLayout, s); err != nil {
		return true
	}
	return s <= v.clock.Now().Format(DateLayout)
}
