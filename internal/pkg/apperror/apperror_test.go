package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"permission denied", errors.New("IAM: caller is not allowed"), KindPermissionDenied},
		{"missing record", errors.New("record does not exist"), KindNotFound},
		{"rate limited", errors.New("too many requests"), KindUnavailable},
		{"service down", errors.New("service unavailable"), KindUnavailable},
		{"connection reset", errors.New("connection reset by peer"), KindNetwork},
		{"websocket drop", errors.New("websocket: close 1006"), KindNetwork},
		{"timeout", errors.New("i/o timeout"), KindNetwork},
		{"anything else", errors.New("cbor: unexpected tag"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("test.Op", tt.err)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, "test.Op", got.Op)
			assert.NotEmpty(t, got.Message)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	original := New(KindConflict, "annotation.Add", "score already exists")

	got := Classify("other.Op", fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, got)
}

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "x", "gone")
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindPermissionDenied, fiber.StatusForbidden},
		{KindNotFound, fiber.StatusNotFound},
		{KindConflict, fiber.StatusConflict},
		{KindUnavailable, fiber.StatusServiceUnavailable},
		{KindNetwork, fiber.StatusBadGateway},
		{KindValidation, fiber.StatusBadRequest},
		{KindUnknown, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), string(tt.kind))
	}
}
