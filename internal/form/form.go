// Package form implements the prediction form: raw string input, synchronous
// validation, a single in-flight submission and reset.
package form

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/kjstillabower/coastal-change-dashboard/internal/models"
	"github.com/kjstillabower/coastal-change-dashboard/internal/observability"
	"github.com/kjstillabower/coastal-change-dashboard/internal/validation"
)

var (
	// ErrInvalid is matched by *InvalidError.
	ErrInvalid = errors.New("invalid prediction input")
	// ErrInFlight is returned by Submit while a previous submission is pending.
	ErrInFlight = errors.New("prediction already in flight")
)

// Field names, as used in JSON bodies, HTML inputs and error maps.
const (
	FieldRegion        = "region"
	FieldDate          = "date"
	FieldSeaLevel      = "seaLevel"
	FieldErosionRate   = "erosionRate"
	FieldPrecipitation = "precipitation"
)

// Fields lists the form fields in display order.
var Fields = []string{FieldRegion, FieldDate, FieldSeaLevel, FieldErosionRate, FieldPrecipitation}

// Labels maps field names to display labels.
var Labels = map[string]string{
	FieldRegion:        "Region",
	FieldDate:          "Date",
	FieldSeaLevel:      "Sea Level",
	FieldErosionRate:   "Erosion Rate",
	FieldPrecipitation: "Precipitation",
}

// Predictor is the one backend call the form makes.
type Predictor interface {
	PredictCoastalChange(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error)
}

// Values holds raw field input as typed by the user.
type Values struct {
	Region        string `json:"region"`
	Date          string `json:"date"`
	SeaLevel      string `json:"seaLevel"`
	ErosionRate   string `json:"erosionRate"`
	Precipitation string `json:"precipitation"`
}

// Get returns the raw value of field.
func (v Values) Get(field string) string {
	switch field {
	case FieldRegion:
		return v.Region
	case FieldDate:
		return v.Date
	case FieldSeaLevel:
		return v.SeaLevel
	case FieldErosionRate:
		return v.ErosionRate
	case FieldPrecipitation:
		return v.Precipitation
	}
	return ""
}

// FieldErrors maps field names to messages.
type FieldErrors map[string]string

// InvalidError carries per-field messages for a rejected submission.
type InvalidError struct {
	Fields FieldErrors
}

func (e *InvalidError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range Fields {
		if m, ok := e.Fields[f]; ok {
			msgs = append(msgs, m)
		}
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (e *InvalidError) Is(target error) bool { return target == ErrInvalid }

// input is the typed form checked by the validator. Nil numbers are missing.
type input struct {
	Region        string   `json:"region" validate:"required"`
	Date          string   `json:"date" validate:"required,datetime=2006-01-02,notfuture"`
	SeaLevel      *float64 `json:"seaLevel" validate:"required,between=0 100"`
	ErosionRate   *float64 `json:"erosionRate" validate:"required,between=-10 10"`
	Precipitation *float64 `json:"precipitation" validate:"required,between=0 500"`
}

// Form is one mounted prediction form.
type Form struct {
	predictor Predictor
	validator *validation.Validator

	mu      sync.Mutex
	values  Values
	errors  FieldErrors
	busy    bool
	regions []string
}

// New returns an empty form. regions, when non-empty, are offered as a
// select list instead of free text.
func New(p Predictor, v *validation.Validator, regions []string) *Form {
	return &Form{predictor: p, validator: v, regions: regions}
}

// SetValues replaces all field values.
func (f *Form) SetValues(v Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = v
}

func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the current field errors.
func (f *Form) Errors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Busy reports whether a submission is in flight on this form.
func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Regions returns the known regions for the select variant.
func (f *Form) Regions() []string { return f.regions }

// Reset clears values and errors.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = Values{}
	f.errors = nil
}

// Validate checks the current values and records any field errors.
func (f *Form) Validate() (models.PredictionRequest, FieldErrors) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, errs := f.validateLocked()
	f.errors = errs
	return req, errs
}

func (f *Form) validateLocked() (models.PredictionRequest, FieldErrors) {
	in := input{
		Region: strings.TrimSpace(f.values.Region),
		Date:   strings.TrimSpace(f.values.Date),
	}
	errs := FieldErrors{}
	for field, dst := range map[string]**float64{
		FieldSeaLevel:      &in.SeaLevel,
		FieldErosionRate:   &in.ErosionRate,
		FieldPrecipitation: &in.Precipitation,
	} {
		n, ok := parseNumber(f.values.Get(field))
		if !ok {
			errs[field] = validation.Message(Labels[field], "number", "")
			continue
		}
		*dst = n
	}

	msgs, err := f.validator.Struct(in, Labels)
	if err != nil {
		errs["form"] = err.Error()
	}
	for field, m := range msgs {
		if _, ok := errs[field]; !ok {
			errs[field] = m
		}
	}
	if len(errs) > 0 {
		return models.PredictionRequest{}, errs
	}
	return models.PredictionRequest{
		Region:        in.Region,
		Date:          in.Date,
		SeaLevel:      *in.SeaLevel,
		ErosionRate:   *in.ErosionRate,
		Precipitation: *in.Precipitation,
	}, nil
}

// parseNumber returns nil, true for blank input so "required" reports it.
func parseNumber(s string) (*float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) {
		return nil, false
	}
	return &n, true
}

// Submit validates and, when valid, makes exactly one predict call. Fields are
// cleared once the call returns, whether or not it succeeded.
func (f *Form) Submit(ctx context.Context) (models.PredictionResult, error) {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		observability.PredictionSubmissionsTotal.WithLabelValues("in_flight").Inc()
		return models.PredictionResult{}, ErrInFlight
	}
	req, errs := f.validateLocked()
	f.errors = errs
	if len(errs) > 0 {
		f.mu.Unlock()
		observability.PredictionSubmissionsTotal.WithLabelValues("invalid").Inc()
		return models.PredictionResult{}, &InvalidError{Fields: errs}
	}
	f.busy = true
	f.mu.Unlock()

	res, err := f.predictor.PredictCoastalChange(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.values = Values{}
	f.errors = nil
	if err != nil {
		observability.PredictionSubmissionsTotal.WithLabelValues("error").Inc()
		return models.PredictionResult{}, fmt.Errorf("predict: %w", err)
	}
	observability.PredictionSubmissionsTotal.WithLabelValues("success").Inc()
	return res, nil
}
