package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"warden/internal/platform/events"
	"warden/internal/profile/models"
	"warden/internal/profile/provider"
	"warden/internal/profile/validate"
	dErrors "warden/pkg/domain-errors"
	"warden/pkg/sentinel"
)

// Patch carries the mutable profile fields. Nil pointers leave the field
// untouched; the aggregate's own setters enforce content rules per field.
type Patch struct {
	Email       *string         `json:"email,omitempty"`
	DisplayName *string         `json:"display_name,omitempty"`
	Bio         *string         `json:"bio,omitempty"`
	Name        *models.Name    `json:"name,omitempty"`
	Picture     *string         `json:"picture,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Gender      *string         `json:"gender,omitempty"`
	Birthdate   *string         `json:"birthdate,omitempty"`
	Address     *models.Address `json:"address,omitempty"`
	Company     *string         `json:"company,omitempty"`
	Pronouns    *string         `json:"pronouns,omitempty"`
	Language    *string         `json:"language,omitempty"`
	Timezone    *string         `json:"timezone,omitempty"`

	SocialLinks       map[string]string `json:"social_links,omitempty"`
	RemoveSocialLinks []string          `json:"remove_social_links,omitempty"`

	Notifications *bool          `json:"notifications,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Create builds a fresh profile and persists it.
func (s *Service) Create(ctx context.Context, email, displayName string) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Create")
	defer span.End()

	p, err := models.New(strings.TrimSpace(email), displayName)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnsafeContent) {
			s.incrementRejected()
		}
		return nil, err
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	s.incrementCreated()
	s.emit(ctx, events.TypeProfileCreated, p.ID(), nil)
	return p, nil
}

// ImportFromProvider normalizes a raw identity-provider record into a profile
// and persists it.
func (s *Service) ImportFromProvider(ctx context.Context, rec provider.Record) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.ImportFromProvider")
	defer span.End()

	p, err := provider.Normalize(rec)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save imported profile")
	}

	s.incrementImported()
	s.emit(ctx, events.TypeProfileCreated, p.ID(), map[string]string{"source": "provider"})
	return p, nil
}

// Get loads the full profile aggregate.
func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Get")
	defer span.End()

	return s.load(ctx, id)
}

// GetPublic returns the public projection, served from cache when possible.
func (s *Service) GetPublic(ctx context.Context, id string) (*models.PublicProfile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.GetPublic")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			s.incrementCacheHit()
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "public cache read failed", "profile_id", id, "error", err)
		}
		s.incrementCacheMiss()
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	public := p.Public()
	if s.cache != nil {
		if err := s.cache.Set(ctx, id, public); err != nil {
			s.logger.WarnContext(ctx, "public cache write failed", "profile_id", id, "error", err)
		}
	}
	return &public, nil
}

// GetProviderAttributes returns the flat claim map for identity-provider sync.
func (s *Service) GetProviderAttributes(ctx context.Context, id string) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "profile.GetProviderAttributes")
	defer span.End()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.ProviderAttributes(), nil
}

// Update applies a patch to the profile. The whole patch is applied against
// the loaded aggregate before saving, so a rejected field aborts the entire
// update and nothing is persisted.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Update")
	defer span.End()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := applyPatch(p, patch)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnsafeContent) || dErrors.HasCode(err, dErrors.CodeUnsafeProtocol) {
			s.incrementRejected()
		}
		return nil, err
	}
	if len(changed) == 0 {
		return p, nil
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	s.invalidatePublic(ctx, id)
	s.emit(ctx, events.TypeProfileUpdated, id, map[string]string{"fields": strings.Join(changed, ",")})
	return p, nil
}

func applyPatch(p *models.Profile, patch Patch) ([]string, error) {
	var changed []string
	apply := func(field string, fn func() error) error {
		if err := fn(); err != nil {
			return dErrors.Wrap(err, errCode(err), "failed to update "+field)
		}
		changed = append(changed, field)
		return nil
	}

	steps := []struct {
		field string
		set   func() error
		skip  bool
	}{
		{"email", func() error { return p.SetEmail(*patch.Email) }, patch.Email == nil},
		{"display_name", func() error { return p.SetDisplayName(*patch.DisplayName) }, patch.DisplayName == nil},
		{"bio", func() error { return p.SetBio(*patch.Bio) }, patch.Bio == nil},
		{"name", func() error { return p.SetName(*patch.Name) }, patch.Name == nil},
		{"picture", func() error { return p.SetPicture(*patch.Picture) }, patch.Picture == nil},
		{"phone", func() error { return p.SetPhone(*patch.Phone) }, patch.Phone == nil},
		{"gender", func() error { return p.SetGender(*patch.Gender) }, patch.Gender == nil},
		{"birthdate", func() error { return p.SetBirthdate(*patch.Birthdate) }, patch.Birthdate == nil},
		{"address", func() error { return p.SetAddress(*patch.Address) }, patch.Address == nil},
		{"company", func() error { return p.SetCompany(*patch.Company) }, patch.Company == nil},
		{"pronouns", func() error { return p.SetPronouns(*patch.Pronouns) }, patch.Pronouns == nil},
		{"language", func() error { return p.SetLanguage(*patch.Language) }, patch.Language == nil},
		{"timezone", func() error { return p.SetTimezone(*patch.Timezone) }, patch.Timezone == nil},
	}
	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := apply(step.field, step.set); err != nil {
			return nil, err
		}
	}

	for platform, uri := range patch.SocialLinks {
		if err := apply("social_links."+platform, func() error { return p.SetSocialLink(platform, uri) }); err != nil {
			return nil, err
		}
	}
	for _, platform := range patch.RemoveSocialLinks {
		if err := apply("social_links."+platform, func() error { return p.RemoveSocialLink(platform) }); err != nil {
			return nil, err
		}
	}
	for key, value := range patch.Extra {
		if err := apply("extra."+key, func() error { return p.SetExtra(key, value) }); err != nil {
			return nil, err
		}
	}
	if patch.Notifications != nil {
		p.SetNotifications(*patch.Notifications)
		changed = append(changed, "notifications")
	}

	return changed, nil
}

// errCode preserves an existing domain code, defaulting to invalid input.
func errCode(err error) dErrors.Code {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return dErrors.CodeInvalidInput
}

// SetVerification flips one verification channel.
func (s *Service) SetVerification(ctx context.Context, id, channel string, verified bool) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.SetVerification")
	defer span.End()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch channel {
	case "email":
		if verified {
			p.VerifyEmail()
		} else {
			p.UnverifyEmail()
		}
	case "phone":
		if verified {
			p.VerifyPhone()
		} else {
			p.UnverifyPhone()
		}
	case "identity":
		if verified {
			p.VerifyIdentity()
		} else {
			p.UnverifyIdentity()
		}
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown verification channel %q", channel)
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	s.invalidatePublic(ctx, id)
	s.emit(ctx, events.TypeVerificationChanged, id, map[string]string{
		"channel":  channel,
		"verified": boolString(verified),
	})
	return p, nil
}

// Restrict places the profile under a restriction, optionally until a time.
func (s *Service) Restrict(ctx context.Context, id string, until *time.Time) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Restrict")
	defer span.End()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Restrict(until)
	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	s.invalidatePublic(ctx, id)
	detail := map[string]string{}
	if until != nil {
		detail["until"] = until.UTC().Format(time.RFC3339)
	}
	s.emit(ctx, events.TypeProfileRestricted, id, detail)
	return p, nil
}

// Unrestrict lifts any restriction.
func (s *Service) Unrestrict(ctx context.Context, id string) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Unrestrict")
	defer span.End()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Unrestrict()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	s.invalidatePublic(ctx, id)
	s.emit(ctx, events.TypeProfileUnrestricted, id, nil)
	return p, nil
}

// Validate runs field and aggregate checks without mutating anything.
func (s *Service) Validate(ctx context.Context, id string) (validate.Report, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Validate")
	defer span.End()

	p, err := s.load(ctx, id)
	if err != nil {
		return validate.Report{}, err
	}

	report := p.Validate()
	if !report.Valid {
		s.incrementValidationFailures()
	}
	return report, nil
}

// Delete removes the profile and its cached projections.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "profile.Delete")
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete profile")
	}

	s.invalidatePublic(ctx, id)
	s.emit(ctx, events.TypeProfileDeleted, id, nil)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "profile id is required")
	}
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
