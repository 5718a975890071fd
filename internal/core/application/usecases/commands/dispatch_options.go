package commands

import (
	"errors"
	"math"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/pkg/errs"
)

// Default dispatch options.
const (
	DefaultBatchSize   = 3
	DefaultOfferTTL    = 120 * time.Second
	DefaultMaxRadiusKm = 10.0
)

// DispatchOptions control how one batch of offers is built.
type DispatchOptions struct {
	MaxRadiusKm float64
	BatchSize   int
	Timeout     time.Duration
}

// DefaultDispatchOptions returns the built-in defaults.
func DefaultDispatchOptions() DispatchOptions {
	return DispatchOptions{
		MaxRadiusKm: DefaultMaxRadiusKm,
		BatchSize:   DefaultBatchSize,
		Timeout:     DefaultOfferTTL,
	}
}

// Validate checks that every option is positive.
func (o DispatchOptions) Validate() error {
	var errList []error
	if math.IsNaN(o.MaxRadiusKm) || o.MaxRadiusKm <= 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("maxRadiusKm", o.MaxRadiusKm, 0, math.Inf(1)))
	}
	if o.BatchSize <= 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("batchSize", o.BatchSize, 1, math.MaxInt))
	}
	if o.Timeout < time.Second {
		errList = append(errList, errs.NewValueIsOutOfRangeError("timeoutSeconds", o.Timeout.Seconds(), 1, math.MaxInt32))
	}
	return errors.Join(errList...)
}

// withDefaults fills zero fields from defaults.
func (o DispatchOptions) withDefaults(defaults DispatchOptions) DispatchOptions {
	if o.MaxRadiusKm == 0 {
		o.MaxRadiusKm = defaults.MaxRadiusKm
	}
	if o.BatchSize == 0 {
		o.BatchSize = defaults.BatchSize
	}
	if o.Timeout == 0 {
		o.Timeout = defaults.Timeout
	}
	return o
}

// optionsFromMetadata recovers the options a batch was pushed with.
// Rows written without options fall back to defaults field by field.
func optionsFromMetadata(meta assignment.Metadata, defaults DispatchOptions) DispatchOptions {
	return DispatchOptions{
		MaxRadiusKm: meta.MaxRadiusKm,
		BatchSize:   meta.BatchSize,
		Timeout:     time.Duration(meta.TimeoutSeconds) * time.Second,
	}.withDefaults(defaults)
}
