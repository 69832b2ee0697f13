package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pindl/pkg/errors"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ExponentialBackoff{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDefaultRetryIf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network without code", errs.New(errs.ErrorTypeNetwork, "request failed"), true},
		{"resolution", errs.New(errs.ErrorTypeResolution, "no playable media"), false},
		{"rate limited", errs.NewWithCode(errs.ErrorTypeRateLimit, 429, "rate limited"), true},
		{"server error", errs.NewWithCode(errs.ErrorTypeServerError, 503, "server error"), true},
		{"auth rejected", errs.NewWithCode(errs.ErrorTypeAuth, 401, "session rejected"), false},
		{"not found", errs.NewWithCode(errs.ErrorTypeNotFound, 404, "pin not found"), false},
		// the status code wins over the type when both are present
		{"unknown type, 5xx code", errs.NewWithCode(errs.ErrorTypeUnknown, 502, "bad gateway"), true},
		{"cancelled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DefaultRetryIf(tc.err), tc.name)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errs.NewWithCode(errs.ErrorTypeServerError, 500, "server error")
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errs.NewWithCode(errs.ErrorTypeAuth, 403, "session rejected")
	}, testConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeNetwork, "request failed")
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}
