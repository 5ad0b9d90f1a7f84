package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Document is the full-fidelity serialized shape. It includes email and every
// metadata/settings field and is meant for the system's own storage, never
// for direct external exposure.
type Document struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	IdentityHash string    `json:"identity_hash"`
	Metadata     Metadata  `json:"metadata"`
	Settings     Settings  `json:"settings"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdate   time.Time `json:"last_update"`
}

// Document returns the full-fidelity view as an owned copy.
func (p *Profile) Document() Document {
	return Document{
		ID:           p.id,
		Email:        p.email,
		DisplayName:  p.displayName,
		IdentityHash: p.identityHash,
		Metadata:     p.metadata.clone(),
		Settings:     p.settings.clone(),
		CreatedAt:    p.createdAt,
		LastUpdate:   p.lastUpdate,
	}
}

// ToJSON serializes the full document for the persistence layer.
func (p *Profile) ToJSON() ([]byte, error) {
	return json.Marshal(p.Document())
}

// PublicProfile is the public-safe projection: a strict allowlist of exactly
// five fields. New metadata never leaks here without an explicit change to
// this type.
type PublicProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Picture     string    `json:"picture,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Public returns the public-safe projection.
func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		ID:          p.id,
		DisplayName: p.displayName,
		Picture:     p.metadata.Picture,
		Bio:         p.metadata.Bio,
		CreatedAt:   p.createdAt,
	}
}

// ProviderAttributes flattens domain fields into the key-value shape an
// external identity provider expects in its metadata bag. Absent values are
// dropped, never serialized as null.
func (p *Profile) ProviderAttributes() map[string]any {
	attrs := make(map[string]any)

	put := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			attrs[key] = value
		}
	}

	if p.metadata.Name != nil {
		full := strings.TrimSpace(p.metadata.Name.First + " " + p.metadata.Name.Last)
		put("full_name", full)
		put("first_name", p.metadata.Name.First)
		put("last_name", p.metadata.Name.Last)
	}
	put("avatar_url", p.metadata.Picture)
	put("bio", p.metadata.Bio)
	put("phone", p.metadata.Phone)
	put("gender", string(p.metadata.Gender))
	put("birthdate", p.metadata.Birthdate)
	put("company", p.metadata.Company)
	put("pronouns", p.metadata.Pronouns)
	put("language", p.metadata.Language)
	put("timezone", p.metadata.Timezone)

	for platform, uri := range p.metadata.SocialLinks {
		put("social_"+platform, uri)
	}
	for key, value := range p.metadata.Extra {
		if value == nil {
			continue
		}
		attrs[key] = value
	}
	return attrs
}
