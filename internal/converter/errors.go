package converter

import (
	"errors"
	"fmt"
)

// ErrNoImages is returned when a conversion is requested without any images.
var ErrNoImages = errors.New("no images to convert")

// ErrConversionInProgress is returned when a session is asked to convert while a run is pending.
var ErrConversionInProgress = errors.New("a conversion is already in progress")

// ErrUnknownImage is returned when a session operation names an image it does not hold.
var ErrUnknownImage = errors.New("unknown image")

// ValidationError reports an upload that was rejected before conversion.
type ValidationError struct {
	Filename string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Filename, e.Reason)
}

// DecodeError reports an accepted image whose bytes could not be decoded or re-encoded.
type DecodeError struct {
	ImageID  string
	Filename string
	MIMEType MIMEType
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode image %s (%s, id %s): %v", e.Filename, e.MIMEType, e.ImageID, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// SerializationError reports a failure of the PDF writer.
type SerializationError struct {
	Stage string
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("pdf serialization failed while %s: %v", e.Stage, e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// UsageError reports a call the core refuses to attempt.
type UsageError struct {
	Cause error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid conversion request: %v", e.Cause)
}

func (e *UsageError) Unwrap() error {
	return e.Cause
}
