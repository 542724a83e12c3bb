package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidData marks a response whose shape is missing required fields.
	ErrInvalidData = errors.New("invalid data structure")
	// ErrInvalidInput marks a bad user-supplied argument (IP, email, target).
	ErrInvalidInput = errors.New("invalid input")
)

const invalidDataMessage = "Invalid data structure received from server"

// DataError is returned when a backend payload fails shape validation.
type DataError struct {
	Endpoint string
	Fields   []string
	Err      error
}

func (e *DataError) Error() string {
	return invalidDataMessage
}

// Detail lists what was wrong, for logs.
func (e *DataError) Detail() string {
	parts := []string{e.Endpoint}
	if len(e.Fields) > 0 {
		parts = append(parts, "fields: "+strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *DataError) Is(target error) bool {
	return target == ErrInvalidData
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// UpstreamError is a non-2xx envelope from the analysis backend.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// InputError rejects a user-supplied argument before any request is made.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UserMessage is the text shown in place of a failed widget or page.
func UserMessage(err error) string {
	var dataErr *DataError
	if errors.As(err, &dataErr) {
		return dataErr.Error()
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Message != "" {
			return upErr.Message
		}
		return "Failed to fetch data"
	}
	var inErr *InputError
	if errors.As(err, &inErr) {
		return inErr.Reason
	}
	return err.Error()
}
