// Package converr defines the closed failure taxonomy shared by every
// component of the conversion pipeline. No other error type crosses the
// library boundary: anything raised internally is normalized through Wrap
// before it reaches a caller.
package converr

import (
	"encoding/json"
	"errors"
)

// Kind tags an Error with one member of the stable taxonomy.
type Kind string

const (
	InvalidParameters   Kind = "INVALID_PARAMETERS"
	UnsupportedFormat   Kind = "UNSUPPORTED_FORMAT"
	EngineLoadFailed    Kind = "ENGINE_LOAD_FAILED"
	ConversionFailed    Kind = "CONVERSION_FAILED"
	MemoryLimitExceeded Kind = "MEMORY_LIMIT_EXCEEDED"
	TimeoutExceeded     Kind = "TIMEOUT_EXCEEDED"
	Cancelled           Kind = "CANCELLED"
	Unknown             Kind = "UNKNOWN"
)

var validKinds = map[Kind]bool{
	InvalidParameters:   true,
	UnsupportedFormat:   true,
	EngineLoadFailed:    true,
	ConversionFailed:    true,
	MemoryLimitExceeded: true,
	TimeoutExceeded:     true,
	Cancelled:           true,
	Unknown:             true,
}

// userMessages maps kinds to stable caller-facing strings. These never
// include internal detail and are safe to show or translate.
var userMessages = map[Kind]string{
	InvalidParameters:   "The conversion settings are invalid. Please check the start time, duration, frame rate and scale.",
	UnsupportedFormat:   "This video format is not supported or the file is corrupt.",
	EngineLoadFailed:    "The conversion engine could not be loaded. Please try again.",
	ConversionFailed:    "The conversion failed. Please try again with different settings.",
	MemoryLimitExceeded: "The video is too large to convert with the available memory.",
	TimeoutExceeded:     "The conversion took too long and was stopped.",
	Cancelled:           "The conversion was cancelled.",
	Unknown:             "An unexpected error occurred during conversion.",
}

// Error is a classified conversion failure. Details is an opaque bag of
// structured diagnostics; it is preserved across a JSON round trip.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// New builds an Error. An unrecognized kind degrades to Unknown rather than
// failing; construction never panics.
func New(kind Kind, message string, details map[string]any) *Error {
	if !validKinds[kind] {
		kind = Unknown
	}
	return &Error{Kind: kind, Message: message, Details: details}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// UserMessage returns the stable, caller-facing string for the error's kind.
func (e *Error) UserMessage() string {
	if m, ok := userMessages[e.Kind]; ok {
		return m
	}
	return userMessages[Unknown]
}

// ToJSON serializes the error preserving kind, message, and details.
func (e *Error) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON reverses ToJSON. An unknown kind in the payload degrades to
// Unknown so deserialized errors stay inside the taxonomy.
func FromJSON(data []byte) (*Error, error) {
	var e Error
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !validKinds[e.Kind] {
		e.Kind = Unknown
	}
	return &e, nil
}

// Wrap normalizes any error into exactly one taxonomy member, prefixing the
// message with context. An already-classified error keeps its kind and
// details; anything else becomes Unknown with the original cause attached
// as a detail.
func Wrap(err error, context string) *Error {
	if err == nil {
		return New(Unknown, context, nil)
	}
	var ce *Error
	if errors.As(err, &ce) {
		msg := ce.Message
		if context != "" {
			msg = context + ": " + msg
		}
		details := make(map[string]any, len(ce.Details))
		for k, v := range ce.Details {
			details[k] = v
		}
		if len(details) == 0 {
			details = nil
		}
		return &Error{Kind: ce.Kind, Message: msg, Details: details}
	}
	msg := err.Error()
	if context != "" {
		msg = context + ": " + msg
	}
	return &Error{
		Kind:    Unknown,
		Message: msg,
		Details: map[string]any{"cause": err.Error()},
	}
}

// KindOf reports the taxonomy kind of err, or Unknown when err is not a
// classified error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Unknown
}
