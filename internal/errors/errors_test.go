package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanekitError_Error(t *testing.T) {
	err := NewManifestError("MANIFEST_DECODE", "failed to decode manifest", fmt.Errorf("yaml: line 3"))
	err.WithComponent("manifest")

	msg := err.Error()
	assert.Contains(t, msg, "[MANIFEST_DECODE]")
	assert.Contains(t, msg, "component:manifest")
	assert.Contains(t, msg, "failed to decode manifest")
	assert.Contains(t, msg, "yaml: line 3")
}

func TestPanekitError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewIOError("IO_READ", "read failed", cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestPanekitError_Is(t *testing.T) {
	a := NewConfigError("CONFIG_PORT", "bad port")
	b := NewConfigError("CONFIG_PORT", "different message")
	c := NewConfigError("CONFIG_HOST", "bad host")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestPanekitError_WithContext(t *testing.T) {
	err := NewValidationError("VAL_KEY", "duplicate key").WithContext("key", "overview")
	assert.Equal(t, "overview", err.Context["key"])
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(NewValidationError("V", "x")))
	assert.False(t, IsRecoverable(NewConfigError("C", "x")))
	assert.False(t, IsRecoverable(fmt.Errorf("plain")))
}

func TestIsManifestError(t *testing.T) {
	assert.True(t, IsManifestError(NewManifestError("M", "x", nil)))
	assert.False(t, IsManifestError(NewConfigError("C", "x")))
}

func TestErrorCollector(t *testing.T) {
	ec := NewErrorCollector()

	assert.False(t, ec.HasErrors())
	assert.NoError(t, ec.Err())

	ec.Add(nil)
	assert.False(t, ec.HasErrors())

	ec.Add(fmt.Errorf("first"))
	ec.Addf("VAL_MODE", "unknown mode %q", "carousel")

	assert.True(t, ec.HasErrors())
	assert.Len(t, ec.Errors(), 2)

	err := ec.Err()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "carousel")

	ec.Reset()
	assert.False(t, ec.HasErrors())
}
