package transport

import "time"

// Profile mirrors the payload returned by /api/auth/me.
type Profile struct {
	ID        string `json:"id" toml:"id"`
	Name      string `json:"name" toml:"name"`
	Email     string `json:"email" toml:"email"`
	Bio       string `json:"bio" toml:"bio"`
	AvatarURL string `json:"avatarUrl" toml:"avatar_url"`
	Verified  bool   `json:"verified" toml:"verified"`
	UpdatedAt string `json:"updatedAt" toml:"updated_at"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (p Profile) ParsedUpdatedAt() time.Time {
	if p.UpdatedAt == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, p.UpdatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ProfileUpdate is the body of PATCH /api/profile. Every editable field is
// sent; the server replaces them as a unit.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

// AvatarUpload is the body of POST /api/profile/avatar. Data is sent base64
// encoded.
type AvatarUpload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Clone implements cache.Cloner.
func (a AvatarUpload) Clone() any {
	dup := a
	dup.Data = append([]byte(nil), a.Data...)
	return dup
}

// errorBody is the JSON error envelope of the API.
type errorBody struct {
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors"`
}
