package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidThresholdConfig is matched by every ThresholdError.
var ErrInvalidThresholdConfig = errors.New("invalid threshold configuration")

// ThresholdError reports a hazard whose cut points are not strictly increasing.
type ThresholdError struct {
	Hazard domain.Hazard
	Lower  float64
	Upper  float64
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("%s thresholds must increase: %g is not below %g", e.Hazard, e.Lower, e.Upper)
}

// Unwrap lets errors.Is match ErrInvalidThresholdConfig.
func (e *ThresholdError) Unwrap() error { return ErrInvalidThresholdConfig }

var validate = validator.New()

// Validate checks threshold monotonicity and the table and schedule fields.
func Validate(p *Policy) error {
	if p == nil {
		return errors.New("policy is nil")
	}
	for _, h := range domain.Hazards() {
		medium, high := p.Thresholds.Cutpoints(h)
		if !(medium < high) {
			return &ThresholdError{Hazard: h, Lower: medium, Upper: high}
		}
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("validate policy: %w", err)
	}
	if _, err := p.Schedule.Window(domain.Now()); err != nil {
		return err
	}
	return nil
}

// Parse decodes a YAML policy layered over Default and validates it. Fields
// absent from the document keep their default values; unknown fields are
// rejected.
func Parse(data []byte) (*Policy, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads and parses a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
