package pending

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_PendingKeepsCreationOrder(t *testing.T) {
	var r Registry

	r.Add("updateProfile", 1, "first")
	r.Add("uploadAvatar", 2, "avatar")
	r.Add("updateProfile", 3, "second")

	require.Equal(t, []any{"first", "second"}, r.Pending("updateProfile"))
	require.Equal(t, []any{"avatar"}, r.Pending("uploadAvatar"))
	require.Equal(t, 2, r.Count("updateProfile"))
	require.Empty(t, r.Pending("missing"))
}

func TestRegistry_RemoveIsImmediate(t *testing.T) {
	var r Registry
	r.Add("updateProfile", 1, "first")
	r.Add("updateProfile", 2, "second")

	r.Remove("updateProfile", 1)
	require.Equal(t, []any{"second"}, r.Pending("updateProfile"))

	r.Remove("updateProfile", 2)
	require.Empty(t, r.Pending("updateProfile"))
	require.Zero(t, r.Count("updateProfile"))

	// Removing an unknown id is a no-op.
	r.Remove("updateProfile", 42)
}

func TestRegistry_SubscribeBroadcastsChanges(t *testing.T) {
	var r Registry
	var seen [][]any
	unsubscribe := r.Subscribe("updateProfile", func(vars []any) {
		seen = append(seen, vars)
	})

	r.Add("updateProfile", 1, "a")
	r.Add("uploadAvatar", 2, "ignored")
	r.Remove("updateProfile", 1)
	unsubscribe()
	r.Add("updateProfile", 3, "after")

	require.Equal(t, [][]any{{"a"}, nil}, seen)
}
