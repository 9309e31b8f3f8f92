// Package apperror classifies lower level store and transport errors into the
// small taxonomy the API surfaces to callers. Write paths re-throw classified
// errors; read paths swallow them and degrade to empty results.
package apperror

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	KindPermissionDenied Kind = "permission_denied"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindUnavailable      Kind = "unavailable"
	KindNetwork          Kind = "network_error"
	KindValidation       Kind = "validation_error"
	KindUnknown          Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from any error in the chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Classify wraps a raw store or transport error with an actionable message.
// Already-classified errors pass through untouched.
func Classify(op string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Wrap(KindNetwork, op, "please check your connection and try again", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "not allowed") || strings.Contains(msg, "iam"):
		return Wrap(KindPermissionDenied, op, "you do not have permission to perform this action", err)
	case strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist") || strings.Contains(msg, "no record"):
		return Wrap(KindNotFound, op, "the requested record was not found", err)
	case strings.Contains(msg, "unavailable") || strings.Contains(msg, "too many requests"):
		return Wrap(KindUnavailable, op, "the service is temporarily unavailable, please try again later", err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "websocket") || strings.Contains(msg, "broken pipe"):
		return Wrap(KindNetwork, op, "please check your connection and try again", err)
	default:
		return Wrap(KindUnknown, op, "an unexpected error occurred", err)
	}
}

// HTTPStatus maps a taxonomy kind to the response status the error
// middleware should emit.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindPermissionDenied:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindUnavailable:
		return fiber.StatusServiceUnavailable
	case KindNetwork:
		return fiber.StatusBadGateway
	case KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
