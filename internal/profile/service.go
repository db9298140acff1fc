// Package profile wires the profile-editing flow onto the mutation engine.
//
// The identity entry lives under IdentityKey. Updating the profile writes the
// edited fields optimistically into that entry; uploading an avatar also
// writes a local preview into the derived AvatarKey entry. Both operations
// publish their variables to the pending registry under their kind, so any
// screen can show that a save is in progress.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/five82/shutter/internal/cache"
	"github.com/five82/shutter/internal/mutation"
	"github.com/five82/shutter/internal/transport"
)

// Mutation kinds.
const (
	KindUpdateProfile = "updateProfile"
	KindUploadAvatar  = "uploadAvatar"
)

// IdentityKey is the cache key of the signed-in profile.
var IdentityKey = cache.NewKey("auth")

// ErrNoIdentity is returned when an operation needs a profile that has not
// been loaded yet.
var ErrNoIdentity = errors.New("identity not loaded")

// AvatarKey is the cache key of the avatar image for a profile id.
func AvatarKey(id string) cache.Key {
	return cache.NewKey("avatar", id)
}

// Avatar is the value cached under AvatarKey.
type Avatar struct {
	URL     string
	Preview []byte // local bytes while an upload is pending
}

// Clone implements cache.Cloner.
func (a Avatar) Clone() any {
	dup := a
	dup.Preview = append([]byte(nil), a.Preview...)
	return dup
}

// Service runs profile mutations.
type Service struct {
	store *cache.Store
	coord *mutation.Coordinator
	api   transport.API
}

// NewService registers the identity fetcher on store and returns a Service.
func NewService(store *cache.Store, coord *mutation.Coordinator, api transport.API) *Service {
	s := &Service{store: store, coord: coord, api: api}
	store.RegisterFetcher(IdentityKey, cache.FetcherFunc(func(ctx context.Context, _ cache.Key) (any, error) {
		return api.FetchIdentity(ctx)
	}))
	return s
}

// Identity returns the cached profile, optimistic or confirmed.
func (s *Service) Identity() (transport.Profile, bool) {
	ent, ok := s.store.Get(IdentityKey)
	if !ok || !ent.HasValue {
		return transport.Profile{}, false
	}
	p, ok := ent.Value.(transport.Profile)
	return p, ok
}

// UpdateProfile saves update. The cached identity shows the new fields until
// the server answers; a failure restores the previous profile and is
// returned unchanged.
func (s *Service) UpdateProfile(ctx context.Context, update transport.ProfileUpdate) (transport.Profile, error) {
	result, err := s.coord.Run(ctx, mutation.Spec{
		Keys:      []cache.Key{IdentityKey},
		Kind:      KindUpdateProfile,
		Variables: update,
		Apply: func(_ cache.Key, current, variables any) any {
			p, _ := current.(transport.Profile)
			u := variables.(transport.ProfileUpdate)
			p.Name = u.Name
			p.Email = u.Email
			p.Bio = u.Bio
			return p
		},
		Execute: func(ctx context.Context, variables any) (any, error) {
			return s.api.UpdateProfile(ctx, variables.(transport.ProfileUpdate))
		},
		Merge: func(_ cache.Key, result any) any {
			return result
		},
	})
	if err != nil {
		return transport.Profile{}, err
	}
	return result.(transport.Profile), nil
}

// UploadAvatar uploads a new avatar. The identity and avatar entries show the
// local file until the server answers.
func (s *Service) UploadAvatar(ctx context.Context, upload transport.AvatarUpload) (transport.Profile, error) {
	current, ok := s.Identity()
	if !ok {
		return transport.Profile{}, ErrNoIdentity
	}
	avatarKey := AvatarKey(current.ID)
	s.ensureAvatarFetcher(avatarKey)

	result, err := s.coord.Run(ctx, mutation.Spec{
		Keys:      []cache.Key{IdentityKey, avatarKey},
		Kind:      KindUploadAvatar,
		Variables: upload,
		Apply: func(key cache.Key, current, variables any) any {
			u := variables.(transport.AvatarUpload)
			preview := "local:" + u.Filename
			if key == avatarKey {
				return Avatar{URL: preview, Preview: u.Data}
			}
			p, _ := current.(transport.Profile)
			p.AvatarURL = preview
			return p
		},
		Execute: func(ctx context.Context, variables any) (any, error) {
			return s.api.UploadAvatar(ctx, variables.(transport.AvatarUpload))
		},
		Merge: func(key cache.Key, result any) any {
			p := result.(transport.Profile)
			if key == avatarKey {
				return Avatar{URL: p.AvatarURL}
			}
			return p
		},
	})
	if err != nil {
		return transport.Profile{}, err
	}
	return result.(transport.Profile), nil
}

// PendingUpdates returns the profile updates currently being saved, oldest
// first.
func (s *Service) PendingUpdates() []transport.ProfileUpdate {
	vars := s.coord.Pending().Pending(KindUpdateProfile)
	updates := make([]transport.ProfileUpdate, 0, len(vars))
	for _, v := range vars {
		if u, ok := v.(transport.ProfileUpdate); ok {
			updates = append(updates, u)
		}
	}
	return updates
}

// PendingUploads returns the filenames of avatar uploads in flight.
func (s *Service) PendingUploads() []string {
	vars := s.coord.Pending().Pending(KindUploadAvatar)
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		if u, ok := v.(transport.AvatarUpload); ok {
			names = append(names, u.Filename)
		}
	}
	return names
}

// Refresh forces a refetch of the identity.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.store.Refetch(ctx, IdentityKey); err != nil {
		return fmt.Errorf("refresh identity: %w", err)
	}
	return nil
}

func (s *Service) ensureAvatarFetcher(key cache.Key) {
	s.store.RegisterFetcher(key, cache.FetcherFunc(func(ctx context.Context, _ cache.Key) (any, error) {
		p, err := s.api.FetchIdentity(ctx)
		if err != nil {
			return nil, err
		}
		return Avatar{URL: p.AvatarURL}, nil
	}))
}
