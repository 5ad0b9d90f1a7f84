// Package provider normalizes hosted identity-provider user records into the
// profile aggregate. The adapter maps provider metadata keys onto domain
// fields, turns confirmation timestamps into verification booleans, and
// preserves unrecognized provider setting keys verbatim.
package provider

import (
	"strings"
	"time"
	"unicode"

	"warden/internal/profile/models"
	dErrors "warden/pkg/domain-errors"
)

// Record mirrors the subset of a hosted-auth user object the adapter
// consumes. Field names follow the provider's wire format.
type Record struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	PhoneConfirmedAt *time.Time     `json:"phone_confirmed_at,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
}

// metadataKeys the adapter recognizes in user_metadata. Everything else is
// carried through as a caller-defined extra field.
var recognizedMetadata = map[string]struct{}{
	"full_name":  {},
	"name":       {},
	"first_name": {},
	"last_name":  {},
	"avatar_url": {},
	"picture":    {},
	"bio":        {},
	"gender":     {},
	"birthdate":  {},
	"company":    {},
	"pronouns":   {},
}

// Normalize converts a provider record into a profile aggregate. The result
// passes through the same rehydration defenses as stored documents, so a
// hostile provider payload cannot smuggle markup or unsafe URIs.
func Normalize(rec Record, opts ...models.Option) (*models.Profile, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider record missing id")
	}
	if strings.TrimSpace(rec.Email) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider record missing email")
	}

	doc := models.Document{
		ID:           rec.ID,
		Email:        rec.Email,
		IdentityHash: models.IdentityHash(rec.ID),
	}
	if rec.CreatedAt != nil {
		doc.CreatedAt = *rec.CreatedAt
	}
	if rec.UpdatedAt != nil {
		doc.LastUpdate = *rec.UpdatedAt
	}

	meta := &doc.Metadata
	meta.Phone = strings.TrimSpace(rec.Phone)
	meta.Verification = models.Verification{
		Email: rec.EmailConfirmedAt != nil,
		Phone: rec.PhoneConfirmedAt != nil && meta.Phone != "",
	}

	doc.DisplayName = metaString(rec.UserMetadata, "full_name")
	if doc.DisplayName == "" {
		doc.DisplayName = metaString(rec.UserMetadata, "name")
	}

	first := metaString(rec.UserMetadata, "first_name")
	last := metaString(rec.UserMetadata, "last_name")
	if first == "" && last == "" {
		first, last = deriveNameFromEmail(rec.Email)
	}
	if doc.DisplayName == "" {
		doc.DisplayName = strings.TrimSpace(first + " " + last)
	}
	if first != "" && last != "" {
		meta.Name = &models.Name{First: first, Last: last}
	}

	meta.Picture = metaString(rec.UserMetadata, "avatar_url")
	if meta.Picture == "" {
		meta.Picture = metaString(rec.UserMetadata, "picture")
	}
	meta.Bio = metaString(rec.UserMetadata, "bio")
	if g, err := models.ParseGender(metaString(rec.UserMetadata, "gender")); err == nil {
		// Provider gender values outside the closed enumeration are dropped,
		// not rejected: normalization is best effort for optional fields.
		meta.Gender = g
	}
	meta.Birthdate = metaString(rec.UserMetadata, "birthdate")
	meta.Company = metaString(rec.UserMetadata, "company")
	meta.Pronouns = metaString(rec.UserMetadata, "pronouns")

	for key, value := range rec.UserMetadata {
		if _, known := recognizedMetadata[key]; known {
			continue
		}
		if meta.Extra == nil {
			meta.Extra = make(map[string]any)
		}
		meta.Extra[key] = value
	}

	doc.Settings = models.Settings{Notifications: true}
	for key, value := range rec.AppMetadata {
		switch key {
		case "notifications":
			if b, ok := value.(bool); ok {
				doc.Settings.Notifications = b
			}
		default:
			// Unrecognized provider settings ride along verbatim.
			if doc.Settings.Extra == nil {
				doc.Settings.Extra = make(map[string]any)
			}
			doc.Settings.Extra[key] = value
		}
	}

	return models.FromDocument(doc, opts...)
}

func metaString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// deriveNameFromEmail produces a plausible structured name from the local
// part of an address when the provider carries none.
func deriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
