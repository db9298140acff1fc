package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindNetwork},
		{"wrapped cancel", fmt.Errorf("execute request: %w", context.Canceled), KindNetwork},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindNetwork},
		{"plain", errors.New("boom"), KindUnknown},
		{"validation passthrough", Validation(map[string]string{"name": "required"}, nil), KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			require.Equal(t, tt.want, got.Kind)
		})
	}
	require.Nil(t, Classify(nil))
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("update profile: %w", Network(errors.New("refused")))
	require.ErrorIs(t, err, ErrNetwork)
	require.NotErrorIs(t, err, ErrValidation)
	require.NotErrorIs(t, err, ErrUnknown)
}

func TestValidationFields(t *testing.T) {
	fields := map[string]string{"name": "required", "email": "invalid"}
	err := Validation(fields, nil)
	fields["name"] = "mutated"

	require.Equal(t, "required", FieldErrors(err)["name"])
	require.Equal(t, "ValidationError (email: invalid, name: required)", err.Error())
	require.Nil(t, FieldErrors(Unknown(errors.New("x"))))
}
