package segmenter

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactLoad marks a missing or corrupt scaler, model or summary file.
	ErrArtifactLoad = errors.New("artifact load failed")
	// ErrConfigMismatch marks disagreement between the model, the catalog and the summary table.
	ErrConfigMismatch = errors.New("configuration mismatch")
	// ErrClusterNotFound is reported when a cluster id has no entry in a lookup table.
	ErrClusterNotFound = errors.New("cluster not found")
	// ErrDegenerateScaler marks a fitted scaler with a zero scale factor.
	ErrDegenerateScaler = errors.New("degenerate scaler")
	// ErrInputRange marks a user supplied value outside its declared range.
	ErrInputRange = errors.New("input out of range")
)

// ArtifactError describes a failure to read one of the startup artifacts.
type ArtifactError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s (%s): %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() []error {
	return []error{ErrArtifactLoad, e.Err}
}

func artifactError(artifact, path string, err error) error {
	return &ArtifactError{Artifact: artifact, Path: path, Err: err}
}

// ConfigMismatchError reports a cluster id missing from, or unexpected in, one of the tables.
type ConfigMismatchError struct {
	ClusterID ClusterID
	Table     string
	Reason    string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("cluster %d: %s %s", e.ClusterID, e.Table, e.Reason)
}

func (e *ConfigMismatchError) Unwrap() []error {
	if e.Reason == reasonMissing {
		return []error{ErrConfigMismatch, ErrClusterNotFound}
	}
	return []error{ErrConfigMismatch}
}

const (
	reasonMissing    = "has no entry"
	reasonUnexpected = "has an entry outside the model's cluster range"
)

// DegenerateScalerError reports a zero scale factor.
type DegenerateScalerError struct {
	Feature string
	Index   int
}

func (e *DegenerateScalerError) Error() string {
	return fmt.Sprintf("scale for %s (index %d) is zero", e.Feature, e.Index)
}

func (e *DegenerateScalerError) Unwrap() error { return ErrDegenerateScaler }

// InputRangeError reports the first field outside its allowed range.
type InputRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *InputRangeError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

func (e *InputRangeError) Unwrap() error { return ErrInputRange }
