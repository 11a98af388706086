package errs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwraps(t *testing.T) {
	base := New(AppNotFound, "no such app")
	wrapped := fmt.Errorf("resolve_app: %w", base)

	assert.True(t, Is(wrapped, AppNotFound))
	assert.Equal(t, AppNotFound, KindOf(wrapped))
}

func TestKindOfDefaultsToSystemError(t *testing.T) {
	assert.Equal(t, SystemError, KindOf(fmt.Errorf("plain error")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("OS refused handle")
	err := Wrap(SystemError, "SendInput failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SendInput failed")
}

func TestKindStrings(t *testing.T) {
	cases := map[Kind]string{
		PermissionDenied:      "PERMISSION_DENIED",
		InvalidParams:         "INVALID_PARAMS",
		AppNotFound:           "APP_NOT_FOUND",
		WindowNotFound:        "WINDOW_NOT_FOUND",
		ElementNotFound:       "ELEMENT_NOT_FOUND",
		ElementNotAccessible:  "ELEMENT_NOT_ACCESSIBLE",
		CoordinateOutOfBounds: "COORDINATE_OUT_OF_BOUNDS",
		Timeout:               "TIMEOUT",
		SystemError:           "SYSTEM_ERROR",
		ResourceUnavailable:   "RESOURCE_UNAVAILABLE",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
