// Package stub serves an in-memory version of the studio profile API. It
// backs the transport tests and the shutter-stub command.
package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/five82/shutter/internal/transport"
)

const maxAvatarBytes = 2 << 20

// Server holds one signed-in profile.
type Server struct {
	// Latency delays every response.
	Latency time.Duration

	mu         sync.Mutex
	profile    transport.Profile
	failWrites int
	avatars    int
	mux        *http.ServeMux
}

// New returns a Server seeded with profile.
func New(profile transport.Profile) *Server {
	s := &Server{profile: profile}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /api/auth/me", s.handleMe)
	s.mux.HandleFunc("PATCH /api/profile", s.handleUpdate)
	s.mux.HandleFunc("POST /api/profile/avatar", s.handleAvatar)
	return s
}

// FailWrites makes the next n write requests fail with status 500 after the
// change has been applied, simulating a partially applied write.
func (s *Server) FailWrites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = n
}

// Profile returns the stored profile.
func (s *Server) Profile() transport.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-r.Context().Done():
			return
		}
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Profile())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var update transport.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body", nil)
		return
	}
	if fields := validateUpdate(update); len(fields) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid profile", fields)
		return
	}

	s.mu.Lock()
	s.profile.Name = strings.TrimSpace(update.Name)
	s.profile.Email = strings.ToLower(strings.TrimSpace(update.Email))
	s.profile.Bio = strings.TrimSpace(update.Bio)
	s.profile.Verified = true
	s.profile.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	fail := s.consumeFailureLocked()
	profile := s.profile
	s.mu.Unlock()

	if fail {
		writeError(w, http.StatusInternalServerError, "storage unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	var upload transport.AvatarUpload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4*maxAvatarBytes)).Decode(&upload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body", nil)
		return
	}
	fields := map[string]string{}
	switch {
	case len(upload.Data) == 0:
		fields["data"] = "empty file"
	case len(upload.Data) > maxAvatarBytes:
		fields["data"] = "file too large"
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		fields["contentType"] = "must be an image"
	}
	if len(fields) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid avatar", fields)
		return
	}

	s.mu.Lock()
	s.avatars++
	ext := path.Ext(upload.Filename)
	s.profile.AvatarURL = fmt.Sprintf("/avatars/%s-%d%s", s.profile.ID, s.avatars, ext)
	s.profile.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	fail := s.consumeFailureLocked()
	profile := s.profile
	s.mu.Unlock()

	if fail {
		writeError(w, http.StatusInternalServerError, "storage unavailable", nil)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) consumeFailureLocked() bool {
	if s.failWrites <= 0 {
		return false
	}
	s.failWrites--
	return true
}

func validateUpdate(update transport.ProfileUpdate) map[string]string {
	fields := map[string]string{}
	if name := strings.TrimSpace(update.Name); len(name) < 2 {
		fields["name"] = "must be at least 2 characters"
	}
	if email := strings.TrimSpace(update.Email); email != "" && !strings.Contains(email, "@") {
		fields["email"] = "must be a valid address"
	}
	if len(update.Bio) > 500 {
		fields["bio"] = "must be at most 500 characters"
	}
	return fields
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	writeJSON(w, status, map[string]any{
		"message":     message,
		"fieldErrors": fields,
	})
}
