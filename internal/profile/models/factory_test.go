package models

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "warden/pkg/domain-errors"
)

func fixedClock() func() time.Time {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestProfile(t *testing.T) *Profile {
	t.Helper()
	p, err := New("user@example.com", "Ada", WithID("user-1"), WithClock(fixedClock()))
	require.NoError(t, err)
	return p
}

func TestJSONRoundTrip(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.SetName(Name{First: "Ada", Last: "Lovelace"}))
	require.NoError(t, p.SetBio("first programmer"))
	require.NoError(t, p.SetPicture("https://cdn.example.com/a.png"))
	require.NoError(t, p.SetPhone("+14155552671"))
	require.NoError(t, p.SetBirthdate("1815-12-10"))
	require.NoError(t, p.SetSocialLink("github", "https://github.com/ada"))
	require.NoError(t, p.SetExtra("favorite_editor", "ed"))
	require.NoError(t, p.SetSettingsExtra("theme", "dark"))
	p.VerifyEmail()
	until := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p.Restrict(&until)

	payload, err := p.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(payload)
	require.NoError(t, err)

	assert.Equal(t, p.ID(), restored.ID())
	assert.Equal(t, p.Email(), restored.Email())
	assert.Equal(t, p.DisplayName(), restored.DisplayName())
	assert.Equal(t, p.IdentityHash(), restored.IdentityHash())
	assert.Equal(t, p.Metadata(), restored.Metadata())
	assert.Equal(t, p.Settings(), restored.Settings())
	assert.True(t, p.CreatedAt().Equal(restored.CreatedAt()))
	assert.True(t, p.LastUpdate().Equal(restored.LastUpdate()))
}

func TestFromJSONRequiredFields(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"id":            "user-1",
			"email":         "user@example.com",
			"display_name":  "Ada",
			"identity_hash": IdentityHash("user-1"),
		}
	}

	t.Run("minimal payload rehydrates with safe defaults", func(t *testing.T) {
		payload, err := json.Marshal(base())
		require.NoError(t, err)

		p, err := FromJSON(payload)
		require.NoError(t, err)
		assert.Equal(t, "user-1", p.ID())
		assert.Equal(t, Verification{}, p.Verification())
		assert.False(t, p.IsCurrentlyRestricted())
		assert.False(t, p.CreatedAt().IsZero())
	})

	for _, field := range []string{"id", "email", "display_name", "identity_hash"} {
		t.Run("missing "+field, func(t *testing.T) {
			doc := base()
			delete(doc, field)
			payload, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = FromJSON(payload)
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})

		t.Run("non-string "+field, func(t *testing.T) {
			doc := base()
			doc[field] = 12345
			payload, err := json.Marshal(doc)
			require.NoError(t, err)

			_, err = FromJSON(payload)
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
		})
	}

	t.Run("rejects non-JSON payload", func(t *testing.T) {
		_, err := FromJSON([]byte("not json"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestFromJSONDefendsAgainstTamperedStorage(t *testing.T) {
	t.Run("re-sanitizes free-text metadata", func(t *testing.T) {
		doc := map[string]any{
			"id":            "user-1",
			"email":         "user@example.com",
			"display_name":  "Ada",
			"identity_hash": IdentityHash("user-1"),
			"metadata": map[string]any{
				"bio": "tampered <script>alert(1)</script> bio",
			},
		}
		payload, err := json.Marshal(doc)
		require.NoError(t, err)

		p, err := FromJSON(payload)
		require.NoError(t, err)
		assert.NotContains(t, p.Bio(), "<")
		assert.NotContains(t, p.Bio(), "script")
	})

	t.Run("rejects markup in display name", func(t *testing.T) {
		doc := map[string]any{
			"id":            "user-1",
			"email":         "user@example.com",
			"display_name":  "<img src=x onerror=alert(1)>",
			"identity_hash": IdentityHash("user-1"),
		}
		payload, err := json.Marshal(doc)
		require.NoError(t, err)

		_, err = FromJSON(payload)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnsafeContent))
	})

	t.Run("rejects unsafe stored picture URL", func(t *testing.T) {
		doc := map[string]any{
			"id":            "user-1",
			"email":         "user@example.com",
			"display_name":  "Ada",
			"identity_hash": IdentityHash("user-1"),
			"metadata": map[string]any{
				"picture": "javascript:alert(1)",
			},
		}
		payload, err := json.Marshal(doc)
		require.NoError(t, err)

		_, err = FromJSON(payload)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnsafeProtocol))
	})
}

func TestIdentityHash(t *testing.T) {
	assert.Equal(t, IdentityHash("user-1"), IdentityHash("user-1"))
	assert.NotEqual(t, IdentityHash("user-1"), IdentityHash("user-2"))
	assert.Len(t, IdentityHash("user-1"), 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", IdentityHash("user-1"))
}

func TestPublicProjection(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.SetBio("hello"))
	require.NoError(t, p.SetPicture("https://cdn.example.com/a.png"))
	require.NoError(t, p.SetPhone("+14155552671"))
	require.NoError(t, p.SetExtra("secret_flag", "internal"))

	pub := p.Public()
	assert.Equal(t, p.ID(), pub.ID)
	assert.Equal(t, "Ada", pub.DisplayName)
	assert.Equal(t, "https://cdn.example.com/a.png", pub.Picture)
	assert.Equal(t, "hello", pub.Bio)
	assert.True(t, p.CreatedAt().Equal(pub.CreatedAt))

	// The projection is an allowlist: nothing beyond the five fields may
	// appear in the serialized form, whatever lands in metadata.
	raw, err := json.Marshal(pub)
	require.NoError(t, err)
	var asMap map[string]any
	require.NoError(t, json.Unmarshal(raw, &asMap))
	assert.Len(t, asMap, 5)
	for _, forbidden := range []string{"email", "phone", "secret_flag", "identity_hash"} {
		assert.NotContains(t, asMap, forbidden)
	}
}

func TestProviderAttributes(t *testing.T) {
	p := newTestProfile(t)
	require.NoError(t, p.SetName(Name{First: "Ada", Last: "Lovelace"}))
	require.NoError(t, p.SetPicture("https://cdn.example.com/a.png"))
	require.NoError(t, p.SetSocialLink("github", "https://github.com/ada"))

	attrs := p.ProviderAttributes()
	assert.Equal(t, "Ada Lovelace", attrs["full_name"])
	assert.Equal(t, "https://cdn.example.com/a.png", attrs["avatar_url"])
	assert.Equal(t, "https://github.com/ada", attrs["social_github"])

	// Absent values are dropped entirely, never serialized as null.
	for key, value := range attrs {
		assert.NotNil(t, value, "key %s", key)
	}
	assert.NotContains(t, attrs, "phone")
	assert.NotContains(t, attrs, "birthdate")
	assert.NotContains(t, attrs, fmt.Sprintf("social_%s", "twitter"))
}
