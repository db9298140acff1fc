// Package transport provides an HTTP client for the studio profile API.
//
// # Overview
//
// The Client implements the remote side of the profile-editing flow:
//
//   - GET /api/auth/me: the signed-in identity
//   - PATCH /api/profile: replace name, email and bio
//   - POST /api/profile/avatar: upload a new avatar image
//
// Requests carry Accept and User-Agent headers, honour the context, and pass
// through a token-bucket limiter (golang.org/x/time/rate) so a burst of edits
// cannot flood the server.
//
// # Error Handling
//
// Every error returned by the client is an *apierr.Error:
//
//   - transport failures and timeouts: apierr.KindNetwork
//   - 422 responses (or 400 with fieldErrors): apierr.KindValidation with the
//     server's field map
//   - anything else, including decode failures: apierr.KindUnknown
//
// A 401 response additionally wraps ErrUnauthorized so session handlers can
// force re-authentication.
//
// Example error messages:
//   - "NetworkError: execute request: dial tcp: connection refused"
//   - "ValidationError (name: must be at least 2 characters): api /api/profile returned status 422: invalid profile"
//   - "UnknownError: decode response: unexpected EOF"
//
// # Testing Considerations
//
// The stub package serves the same API in memory; wrap it in httptest.Server
// to exercise the client end to end.
package transport
