package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"warden/internal/profile/safeurl"
	"warden/internal/profile/sanitize"
	"warden/internal/profile/validate"
	dErrors "warden/pkg/domain-errors"
)

// IdentityHash returns the hex-encoded SHA-256 digest of an identifier. The
// digest is computed once at construction and is never recomputed implicitly;
// identifiers are immutable after construction.
func IdentityHash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// Option configures construction-time collaborators. Fallback behavior is
// resolved here once, not through process-wide state.
type Option func(*Profile)

// WithID supplies a caller-generated identifier instead of a fresh UUID.
func WithID(id string) Option {
	return func(p *Profile) { p.id = id }
}

// WithClock injects the time source. Tests use this for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Profile) { p.now = now }
}

// WithSanitizer swaps the sanitization pipeline, e.g. the pattern-only
// variant for hosts without the HTML policy engine.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(p *Profile) { p.san = s }
}

func newShell(opts ...Option) *Profile {
	p := &Profile{
		settings: defaultSettings(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.san == nil {
		p.san = sanitize.New()
	}
	return p
}

// New initializes a fresh profile. The identifier is generated when not
// supplied, its digest is computed immediately, and both timestamps are
// stamped to now. Fails closed on empty or malformed email and on a display
// name that is empty or carries markup.
func New(email, displayName string, opts ...Option) (*Profile, error) {
	p := newShell(opts...)
	if p.id == "" {
		p.id = uuid.NewString()
	}
	if strings.TrimSpace(p.id) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a non-empty string")
	}
	p.identityHash = IdentityHash(p.id)

	now := p.now()
	p.createdAt = now
	p.lastUpdate = now

	email = strings.TrimSpace(email)
	if err := validate.Email(email); err != nil {
		return nil, err
	}
	p.email = email

	if err := p.SetDisplayName(displayName); err != nil {
		return nil, err
	}
	return p, nil
}

// FromJSON rehydrates a profile from a previously serialized full document.
// Required identity fields must be present and string-typed; the error names
// the offending field. Rehydrated free-text metadata is re-run through the
// clean-on-write sanitizer and link fields re-checked against the protocol
// allowlist, so a tampered storage payload cannot smuggle markup past the
// mutation gate. On payloads produced by ToJSON the pass is idempotent and
// round-trips reproduce identical state.
func FromJSON(payload []byte) (*Profile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "profile payload is not valid JSON")
	}
	for _, field := range []string{"id", "email", "display_name", "identity_hash"} {
		msg, ok := raw[field]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "profile payload missing %s", field)
		}
		var s string
		if err := json.Unmarshal(msg, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "profile payload field %s must be a non-empty string", field)
		}
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "profile payload has malformed fields")
	}
	return FromDocument(doc)
}

// FromDocument rehydrates from an already-parsed document. See FromJSON for
// the defensive re-sanitization contract.
func FromDocument(doc Document, opts ...Option) (*Profile, error) {
	for field, value := range map[string]string{
		"id":            doc.ID,
		"email":         doc.Email,
		"display_name":  doc.DisplayName,
		"identity_hash": doc.IdentityHash,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "profile payload missing %s", field)
		}
	}

	p := newShell(opts...)
	p.id = doc.ID
	p.identityHash = doc.IdentityHash
	p.email = strings.TrimSpace(doc.Email)
	p.metadata = doc.Metadata.clone()
	p.settings = doc.Settings.clone()

	p.createdAt = doc.CreatedAt
	p.lastUpdate = doc.LastUpdate
	if p.createdAt.IsZero() {
		p.createdAt = p.now()
	}
	if p.lastUpdate.Before(p.createdAt) {
		p.lastUpdate = p.createdAt
	}

	displayName := strings.TrimSpace(doc.DisplayName)
	if p.san.ContainsHTML(displayName) {
		return nil, dErrors.New(dErrors.CodeUnsafeContent, "markup detected in display name")
	}
	p.displayName = displayName

	if err := p.resanitize(); err != nil {
		return nil, err
	}
	return p, nil
}

// resanitize re-runs the clean-on-write pass over rehydrated free-text fields
// and re-checks stored link fields. Storage is not assumed trustworthy.
func (p *Profile) resanitize() error {
	m := &p.metadata
	m.Bio = p.san.Sanitize(m.Bio)
	m.Company = p.san.Sanitize(m.Company)
	m.Pronouns = p.san.Sanitize(m.Pronouns)
	m.Language = p.san.Sanitize(m.Language)
	m.Timezone = p.san.Sanitize(m.Timezone)

	if m.Name != nil {
		cleaned := Name{
			First:  p.san.Sanitize(m.Name.First),
			Last:   p.san.Sanitize(m.Name.Last),
			Middle: p.san.Sanitize(m.Name.Middle),
			Suffix: p.san.Sanitize(m.Name.Suffix),
		}
		if err := validate.Name(cleaned.First, cleaned.Last); err != nil {
			return err
		}
		*m.Name = cleaned
	}
	if m.Address != nil {
		m.Address.Street = p.san.Sanitize(m.Address.Street)
		m.Address.City = p.san.Sanitize(m.Address.City)
		m.Address.State = p.san.Sanitize(m.Address.State)
		m.Address.PostalCode = p.san.Sanitize(m.Address.PostalCode)
		m.Address.Country = p.san.Sanitize(m.Address.Country)
	}

	if m.Picture != "" && !safeurl.IsSafe(m.Picture) {
		return dErrors.New(dErrors.CodeUnsafeProtocol, "unsafe protocol in picture URL")
	}
	for platform, uri := range m.SocialLinks {
		if !safeurl.IsSafe(uri) {
			return dErrors.Newf(dErrors.CodeUnsafeProtocol, "unsafe protocol in social link %s", platform)
		}
	}

	for key, value := range m.Extra {
		if s, ok := value.(string); ok {
			m.Extra[key] = p.san.Sanitize(s)
		}
	}
	return nil
}
