// Package apperror defines the user-visible error kinds returned by the
// services and mapped to HTTP statuses by the handlers.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidURL       = errors.New("invalid_url")
	ErrDuplicate        = errors.New("duplicate")
	ErrVideoNotFound    = errors.New("video_not_found")
	ErrFetchFailed      = errors.New("fetch_failed")
	ErrValidationFailed = errors.New("validation_failed")
	ErrEmptyTag         = errors.New("empty_tag")
	ErrTagNotFound      = errors.New("tag_not_found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("conflict")
)

// AppError carries one of the sentinel kinds above plus a message that is
// safe to show to API clients.
type AppError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is lets errors.Is match an AppError against its kind.
func (e *AppError) Is(target error) bool {
	return e.Kind == target
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func InvalidURL(url string) *AppError {
	return &AppError{
		Kind:    ErrInvalidURL,
		Message: fmt.Sprintf("not a valid YouTube video url: %q", url),
	}
}

func Duplicate(videoID string) *AppError {
	return &AppError{
		Kind:    ErrDuplicate,
		Message: fmt.Sprintf("video %s is already registered", videoID),
	}
}

func VideoNotFound(videoID string) *AppError {
	return &AppError{
		Kind:    ErrVideoNotFound,
		Message: fmt.Sprintf("video %s not found", videoID),
	}
}

func FetchFailed(videoID string, cause error) *AppError {
	return &AppError{
		Kind:    ErrFetchFailed,
		Message: fmt.Sprintf("failed to fetch stats for video %s: %v", videoID, cause),
		Err:     cause,
	}
}

func NoHashtags(videoID string) *AppError {
	return &AppError{
		Kind:    ErrValidationFailed,
		Message: fmt.Sprintf("video %s has no hashtags", videoID),
	}
}

// MissingHashtags reports exactly which required tags were absent.
func MissingHashtags(videoID string, missing []string) *AppError {
	return &AppError{
		Kind:    ErrValidationFailed,
		Message: fmt.Sprintf("video %s is missing required hashtags: %s", videoID, strings.Join(missing, ", ")),
	}
}

func EmptyTag() *AppError {
	return &AppError{
		Kind:    ErrEmptyTag,
		Message: "hashtag must not be empty",
	}
}

func TagNotFound(tag string) *AppError {
	return &AppError{
		Kind:    ErrTagNotFound,
		Message: fmt.Sprintf("no votes recorded for hashtag %s", tag),
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Kind:    ErrUnauthorized,
		Message: message,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Kind:    ErrConflict,
		Message: message,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Kind:    ErrValidationFailed,
		Message: message,
	}
}
