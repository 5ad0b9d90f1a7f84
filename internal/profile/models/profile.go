// Package models holds the Profile aggregate. All state is unexported and
// mutated only through methods: every setter sanitizes or validates its input
// before the internal record is touched, so no field the aggregate exposes
// can carry markup, unsafe URI schemes, or structurally invalid data.
package models

import (
	"strings"
	"time"

	"warden/internal/profile/safeurl"
	"warden/internal/profile/sanitize"
	"warden/internal/profile/validate"
	dErrors "warden/pkg/domain-errors"
)

// Profile is the aggregate root for a user identity.
//
// Invariants held after every successful public operation:
//   - Email matches a basic local@domain.tld shape
//   - Display name is non-empty after trimming and carries no markup
//   - No stored field contains HTML, handler attributes, or executable URI
//     schemes
//   - Picture and social-link values use allowlisted protocols only
//   - Changing email or phone clears that channel's verification flag in the
//     same operation
//   - lastUpdate is monotonically non-decreasing and never before createdAt
//
// Instances assume single-owner, sequential access; the aggregate carries no
// internal locking.
type Profile struct {
	id           string
	email        string
	displayName  string
	identityHash string
	metadata     Metadata
	settings     Settings
	createdAt    time.Time
	lastUpdate   time.Time

	san *sanitize.Sanitizer
	now func() time.Time
}

// touch advances lastUpdate. A clock that momentarily runs backwards cannot
// regress the timestamp.
func (p *Profile) touch() {
	if now := p.now(); now.After(p.lastUpdate) {
		p.lastUpdate = now
	}
}

// ---------------------------------------------------------------------------
// Read side. Getters return owned copies; callers can never reach internal
// state through them.
// ---------------------------------------------------------------------------

func (p *Profile) ID() string            { return p.id }
func (p *Profile) Email() string         { return p.email }
func (p *Profile) DisplayName() string   { return p.displayName }
func (p *Profile) IdentityHash() string  { return p.identityHash }
func (p *Profile) CreatedAt() time.Time  { return p.createdAt }
func (p *Profile) LastUpdate() time.Time { return p.lastUpdate }
func (p *Profile) Bio() string           { return p.metadata.Bio }
func (p *Profile) Picture() string       { return p.metadata.Picture }
func (p *Profile) Phone() string         { return p.metadata.Phone }
func (p *Profile) Gender() Gender        { return p.metadata.Gender }
func (p *Profile) Birthdate() string     { return p.metadata.Birthdate }

func (p *Profile) Metadata() Metadata         { return p.metadata.clone() }
func (p *Profile) Settings() Settings         { return p.settings.clone() }
func (p *Profile) Verification() Verification { return p.metadata.Verification }

func (p *Profile) SocialLinks() map[string]string {
	out := make(map[string]string, len(p.metadata.SocialLinks))
	for k, v := range p.metadata.SocialLinks {
		out[k] = v
	}
	return out
}

// Validate audits shape and format of the aggregate without mutating it. It
// accumulates every finding instead of failing on the first.
func (p *Profile) Validate() validate.Report {
	return validate.Entity(p)
}

// CompletionPercentage scores how much of the optional profile surface is
// filled in. Only the fields this aggregate owns are counted; caller-defined
// Extra keys do not move the score.
func (p *Profile) CompletionPercentage() int {
	total := 7
	filled := 0
	if p.metadata.Name != nil {
		filled++
	}
	if p.metadata.Picture != "" {
		filled++
	}
	if p.metadata.Phone != "" {
		filled++
	}
	if p.metadata.Gender != "" {
		filled++
	}
	if p.metadata.Birthdate != "" {
		filled++
	}
	if p.metadata.Address != nil {
		filled++
	}
	if p.metadata.Bio != "" {
		filled++
	}
	return filled * 100 / total
}

// ---------------------------------------------------------------------------
// Mutation gate. Every setter follows the same protocol: sanitize or validate
// first, reject with state untouched on violation, then write, apply coupled
// side effects, and advance lastUpdate.
// ---------------------------------------------------------------------------

// SetEmail validates the new address and atomically clears the email
// verification flag in the same operation.
func (p *Profile) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Email(email); err != nil {
		return err
	}
	p.email = email
	p.metadata.Verification = Verification{
		Email:    false,
		Phone:    p.metadata.Verification.Phone,
		Identity: p.metadata.Verification.Identity,
	}
	p.touch()
	return nil
}

// SetDisplayName is a reject-on-violation mutator: detected markup fails the
// operation, the value is never silently altered.
func (p *Profile) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "display name is required")
	}
	if p.san.ContainsHTML(name) {
		return dErrors.New(dErrors.CodeUnsafeContent, "markup detected in display name")
	}
	p.displayName = name
	p.touch()
	return nil
}

// SetBio is clean-on-write: markup is stripped and the cleaned text stored.
func (p *Profile) SetBio(bio string) error {
	p.metadata.Bio = p.san.Sanitize(bio)
	p.touch()
	return nil
}

// SetName sanitizes each part, then requires non-blank first and last names.
func (p *Profile) SetName(name Name) error {
	cleaned := Name{
		First:  p.san.Sanitize(name.First),
		Last:   p.san.Sanitize(name.Last),
		Middle: p.san.Sanitize(name.Middle),
		Suffix: p.san.Sanitize(name.Suffix),
	}
	if err := validate.Name(cleaned.First, cleaned.Last); err != nil {
		return err
	}
	p.metadata.Name = &cleaned
	p.touch()
	return nil
}

// SetPicture enforces the protocol allowlist. URIs are not cleanable: an
// unsafe scheme is a hard rejection.
func (p *Profile) SetPicture(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "picture URL is required")
	}
	if !safeurl.IsSafe(uri) {
		return dErrors.New(dErrors.CodeUnsafeProtocol, "unsafe protocol in picture URL")
	}
	p.metadata.Picture = uri
	p.touch()
	return nil
}

// SetPhone validates the number and atomically clears the phone verification
// flag in the same operation.
func (p *Profile) SetPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if err := validate.Phone(phone); err != nil {
		return err
	}
	p.metadata.Phone = phone
	p.metadata.Verification = Verification{
		Email:    p.metadata.Verification.Email,
		Phone:    false,
		Identity: p.metadata.Verification.Identity,
	}
	p.touch()
	return nil
}

func (p *Profile) SetGender(value string) error {
	gender, err := ParseGender(value)
	if err != nil {
		return err
	}
	p.metadata.Gender = gender
	p.touch()
	return nil
}

func (p *Profile) SetBirthdate(value string) error {
	if err := validate.Birthdate(value); err != nil {
		return err
	}
	p.metadata.Birthdate = value
	p.touch()
	return nil
}

// SetAddress cleans every free-text field; coordinates pass through as-is.
func (p *Profile) SetAddress(addr Address) error {
	cleaned := Address{
		Street:     p.san.Sanitize(addr.Street),
		City:       p.san.Sanitize(addr.City),
		State:      p.san.Sanitize(addr.State),
		PostalCode: p.san.Sanitize(addr.PostalCode),
		Country:    p.san.Sanitize(addr.Country),
	}
	if addr.Latitude != nil {
		lat := *addr.Latitude
		cleaned.Latitude = &lat
	}
	if addr.Longitude != nil {
		lon := *addr.Longitude
		cleaned.Longitude = &lon
	}
	if cleaned.isZero() {
		p.metadata.Address = nil
	} else {
		p.metadata.Address = &cleaned
	}
	p.touch()
	return nil
}

// SetSocialLink stores platform → URI. The URI allowlist check runs before
// any sanitization is attempted; rejection there takes precedence.
func (p *Profile) SetSocialLink(platform, uri string) error {
	if !safeurl.IsSafe(strings.TrimSpace(uri)) {
		return dErrors.New(dErrors.CodeUnsafeProtocol, "unsafe protocol in social link")
	}
	key := p.san.Sanitize(platform)
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "social platform name is required")
	}
	if p.metadata.SocialLinks == nil {
		p.metadata.SocialLinks = make(map[string]string)
	}
	p.metadata.SocialLinks[key] = strings.TrimSpace(uri)
	p.touch()
	return nil
}

func (p *Profile) RemoveSocialLink(platform string) error {
	key := p.san.Sanitize(platform)
	if _, ok := p.metadata.SocialLinks[key]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "no social link for platform %s", key)
	}
	delete(p.metadata.SocialLinks, key)
	p.touch()
	return nil
}

func (p *Profile) SetCompany(company string) error {
	p.metadata.Company = p.san.Sanitize(company)
	p.touch()
	return nil
}

func (p *Profile) SetPronouns(pronouns string) error {
	p.metadata.Pronouns = p.san.Sanitize(pronouns)
	p.touch()
	return nil
}

func (p *Profile) SetLanguage(language string) error {
	p.metadata.Language = p.san.Sanitize(language)
	p.touch()
	return nil
}

func (p *Profile) SetTimezone(timezone string) error {
	p.metadata.Timezone = p.san.Sanitize(timezone)
	p.touch()
	return nil
}

// SetExtra stores a caller-defined metadata field. String values are cleaned
// on write; other value types are stored as given.
func (p *Profile) SetExtra(key string, value any) error {
	key = p.san.Sanitize(key)
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata key is required")
	}
	if s, ok := value.(string); ok {
		value = p.san.Sanitize(s)
	}
	if p.metadata.Extra == nil {
		p.metadata.Extra = make(map[string]any)
	}
	p.metadata.Extra[key] = value
	p.touch()
	return nil
}

func (p *Profile) SetNotifications(enabled bool) {
	p.settings.Notifications = enabled
	p.touch()
}

// SetSettingsExtra stores a caller-defined settings key untouched.
func (p *Profile) SetSettingsExtra(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "settings key is required")
	}
	if p.settings.Extra == nil {
		p.settings.Extra = make(map[string]any)
	}
	p.settings.Extra[key] = value
	p.touch()
	return nil
}

// ---------------------------------------------------------------------------
// Verification toggles. Each rewrites the full verification record.
// ---------------------------------------------------------------------------

func (p *Profile) setVerification(v Verification) {
	p.metadata.Verification = v
	p.touch()
}

func (p *Profile) VerifyEmail() {
	v := p.metadata.Verification
	v.Email = true
	p.setVerification(v)
}

func (p *Profile) UnverifyEmail() {
	v := p.metadata.Verification
	v.Email = false
	p.setVerification(v)
}

func (p *Profile) VerifyPhone() {
	v := p.metadata.Verification
	v.Phone = true
	p.setVerification(v)
}

func (p *Profile) UnverifyPhone() {
	v := p.metadata.Verification
	v.Phone = false
	p.setVerification(v)
}

func (p *Profile) VerifyIdentity() {
	v := p.metadata.Verification
	v.Identity = true
	p.setVerification(v)
}

func (p *Profile) UnverifyIdentity() {
	v := p.metadata.Verification
	v.Identity = false
	p.setVerification(v)
}

// ---------------------------------------------------------------------------
// Restriction sub-state.
// ---------------------------------------------------------------------------

// Restrict marks the account restricted, optionally until a point in time.
// A nil until restricts indefinitely.
func (p *Profile) Restrict(until *time.Time) {
	restriction := Restriction{Restricted: true}
	if until != nil {
		u := *until
		restriction.Until = &u
	}
	p.settings.Restriction = restriction
	p.touch()
}

// Unrestrict clears the restriction record entirely.
func (p *Profile) Unrestrict() {
	p.settings.Restriction = Restriction{}
	p.touch()
}

// IsCurrentlyRestricted is computed, not stored: restricted with no expiry,
// or restricted with an expiry still in the future.
func (p *Profile) IsCurrentlyRestricted() bool {
	r := p.settings.Restriction
	if !r.Restricted {
		return false
	}
	if r.Until == nil {
		return true
	}
	return p.now().Before(*r.Until)
}
