package transcript

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies pipeline failures.
type ErrorCode string

const (
	ErrorCodeInvalidURL       ErrorCode = "INVALID_URL"
	ErrorCodeVideoUnavailable ErrorCode = "VIDEO_UNAVAILABLE"
	ErrorCodeNoCaptions       ErrorCode = "NO_CAPTIONS"
	ErrorCodeLanguageNotFound ErrorCode = "LANGUAGE_NOT_FOUND"
	ErrorCodeFetch            ErrorCode = "FETCH_ERROR"
	ErrorCodeParse            ErrorCode = "PARSE_ERROR"
)

// Error is returned by every stage of the pipeline.
type Error struct {
	Code    ErrorCode
	VideoID VideoID
	Message string
	// Available is set for LANGUAGE_NOT_FOUND.
	Available []string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var te *Error
	return errors.As(err, &te) && te.Code == code
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func NewInvalidURLError(input string) *Error {
	return &Error{
		Code:    ErrorCodeInvalidURL,
		Message: fmt.Sprintf("could not extract a video ID from %q", input),
	}
}

func NewVideoUnavailableError(id VideoID, reason string) *Error {
	msg := fmt.Sprintf("video %s is unavailable", id)
	if reason != "" {
		msg += " (" + reason + ")"
	}
	return &Error{Code: ErrorCodeVideoUnavailable, VideoID: id, Message: msg}
}

func NewNoCaptionsError(id VideoID) *Error {
	msg := "no captions are available for this video"
	if id != "" {
		msg = fmt.Sprintf("no captions are available for video %s", id)
	}
	return &Error{Code: ErrorCodeNoCaptions, VideoID: id, Message: msg}
}

func NewLanguageNotFoundError(lang string, available []string) *Error {
	msg := fmt.Sprintf("no captions in language %q", lang)
	if len(available) > 0 {
		msg += ". Available languages: " + strings.Join(available, ", ")
	}
	return &Error{Code: ErrorCodeLanguageNotFound, Message: msg, Available: available}
}

func NewFetchError(id VideoID, msg string, err error) *Error {
	return &Error{Code: ErrorCodeFetch, VideoID: id, Message: msg, Err: err}
}

func NewParseError(id VideoID, msg string, err error) *Error {
	return &Error{Code: ErrorCodeParse, VideoID: id, Message: msg, Err: err}
}
