package models

import (
	"time"

	dErrors "warden/pkg/domain-errors"
)

// Gender is a closed enumeration; free-text gender values are rejected at the
// mutation boundary.
type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderNonBinary   Gender = "non_binary"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

// ParseGender validates and returns a Gender value.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(s); g {
	case GenderFemale, GenderMale, GenderNonBinary, GenderOther, GenderUnspecified:
		return g, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown gender value: %s", s)
	}
}

// Name is the structured full name. First and last are required; middle and
// suffix are optional.
type Name struct {
	First  string `json:"first"`
	Last   string `json:"last"`
	Middle string `json:"middle,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Address is the structured postal address. Every field is optional,
// including the geocoordinates.
type Address struct {
	Street     string   `json:"street,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Country    string   `json:"country,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (a Address) clone() Address {
	out := a
	if a.Latitude != nil {
		lat := *a.Latitude
		out.Latitude = &lat
	}
	if a.Longitude != nil {
		lon := *a.Longitude
		out.Longitude = &lon
	}
	return out
}

func (a Address) isZero() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == "" &&
		a.Country == "" && a.Latitude == nil && a.Longitude == nil
}

// Verification tracks three independent channels. Toggles always rewrite the
// whole record so a partial patch can never leave it undefined.
type Verification struct {
	Email    bool `json:"email"`
	Phone    bool `json:"phone"`
	Identity bool `json:"identity"`
}

// Metadata is the open-ended profile record. Known fields get dedicated
// treatment at the mutation boundary; caller-defined fields ride in Extra and
// pass through serialization untouched.
type Metadata struct {
	Name         *Name             `json:"name,omitempty"`
	Bio          string            `json:"bio,omitempty"`
	Picture      string            `json:"picture,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Gender       Gender            `json:"gender,omitempty"`
	Birthdate    string            `json:"birthdate,omitempty"`
	Address      *Address          `json:"address,omitempty"`
	Language     string            `json:"language,omitempty"`
	Timezone     string            `json:"timezone,omitempty"`
	Pronouns     string            `json:"pronouns,omitempty"`
	Company      string            `json:"company,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
	Verification Verification      `json:"verification"`
	Extra        map[string]any    `json:"extra,omitempty"`
}

func (m Metadata) clone() Metadata {
	out := m
	if m.Name != nil {
		name := *m.Name
		out.Name = &name
	}
	if m.Address != nil {
		addr := m.Address.clone()
		out.Address = &addr
	}
	if m.SocialLinks != nil {
		out.SocialLinks = make(map[string]string, len(m.SocialLinks))
		for k, v := range m.SocialLinks {
			out.SocialLinks[k] = v
		}
	}
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Restriction is the settings sub-record for account restriction. Until is
// optional: a restriction without expiry holds until explicitly lifted.
type Restriction struct {
	Restricted bool       `json:"is_restricted"`
	Until      *time.Time `json:"restricted_until,omitempty"`
}

func (r Restriction) clone() Restriction {
	out := r
	if r.Until != nil {
		until := *r.Until
		out.Until = &until
	}
	return out
}

// Settings is open-ended like Metadata: notifications and restriction are
// owned here, extra caller-defined keys pass through untouched.
type Settings struct {
	Notifications bool           `json:"notifications"`
	Restriction   Restriction    `json:"restriction"`
	Extra         map[string]any `json:"extra,omitempty"`
}

func (s Settings) clone() Settings {
	out := s
	out.Restriction = s.Restriction.clone()
	if s.Extra != nil {
		out.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

func defaultSettings() Settings {
	return Settings{Notifications: true}
}
