package ntfs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNtfsError_Error_UsesMessageWhenSet(t *testing.T) {
	err := &NtfsError{Kind: ErrBufferTooSmall, Message: "custom message"}
	assert.Equal(t, "custom message", err.Error())
}

func TestNtfsError_Error_FallsBackToKindAndPosition(t *testing.T) {
	err := &NtfsError{Kind: ErrIo, Position: NewPosition(0x10)}
	assert.Contains(t, err.Error(), "0x10")
}

func TestNtfsError_Unwrap(t *testing.T) {
	wrapped := errors.New("underlying")
	err := &NtfsError{Kind: ErrIo, Wrapped: wrapped}

	assert.Equal(t, wrapped, errors.Unwrap(err))
}

func TestErrAttributeNotFound_CarriesType(t *testing.T) {
	err := errAttributeNotFound(NoPosition(), AttributeTypeFileName)

	assert.Equal(t, ErrAttributeNotFound, err.Kind)
	assert.Equal(t, AttributeTypeFileName, err.Type)
}

func TestErrBufferTooSmall_CarriesExpectedAndActual(t *testing.T) {
	err := errBufferTooSmall(16, 8)

	assert.Equal(t, ErrBufferTooSmall, err.Kind)
	assert.Equal(t, uint64(16), err.Expected)
	assert.Equal(t, uint64(8), err.Actual)
}
