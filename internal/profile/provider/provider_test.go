package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/profile/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func baseRecord() Record {
	created := time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)
	return Record{
		ID:        "prov-user-1",
		Email:     "ada.lovelace@example.com",
		CreatedAt: timePtr(created),
		UpdatedAt: timePtr(created.Add(time.Hour)),
	}
}

func TestNormalize(t *testing.T) {
	t.Run("maps confirmation timestamps onto verification flags", func(t *testing.T) {
		rec := baseRecord()
		rec.Phone = "+14155552671"
		rec.EmailConfirmedAt = timePtr(time.Now())
		rec.PhoneConfirmedAt = timePtr(time.Now())

		p, err := Normalize(rec)
		require.NoError(t, err)
		assert.True(t, p.Verification().Email)
		assert.True(t, p.Verification().Phone)
		assert.False(t, p.Verification().Identity)
	})

	t.Run("unconfirmed channels stay unverified", func(t *testing.T) {
		p, err := Normalize(baseRecord())
		require.NoError(t, err)
		assert.Equal(t, models.Verification{}, p.Verification())
	})

	t.Run("maps provider metadata keys onto domain fields", func(t *testing.T) {
		rec := baseRecord()
		rec.UserMetadata = map[string]any{
			"full_name":  "Ada Lovelace",
			"avatar_url": "https://cdn.example.com/ada.png",
			"bio":        "first programmer",
			"gender":     "female",
		}

		p, err := Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", p.DisplayName())
		assert.Equal(t, "https://cdn.example.com/ada.png", p.Picture())
		assert.Equal(t, "first programmer", p.Bio())
		assert.Equal(t, models.GenderFemale, p.Gender())
	})

	t.Run("derives a display name from the email local part", func(t *testing.T) {
		p, err := Normalize(baseRecord())
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", p.DisplayName())
	})

	t.Run("keeps identity digest consistent with the provider id", func(t *testing.T) {
		p, err := Normalize(baseRecord())
		require.NoError(t, err)
		assert.Equal(t, models.IdentityHash("prov-user-1"), p.IdentityHash())
	})

	t.Run("unknown metadata keys land in the extra bag", func(t *testing.T) {
		rec := baseRecord()
		rec.UserMetadata = map[string]any{
			"full_name":     "Ada Lovelace",
			"loyalty_tier":  "gold",
			"referral_code": "XYZ",
		}

		p, err := Normalize(rec)
		require.NoError(t, err)
		extra := p.Metadata().Extra
		assert.Equal(t, "gold", extra["loyalty_tier"])
		assert.Equal(t, "XYZ", extra["referral_code"])
		assert.NotContains(t, extra, "full_name")
	})

	t.Run("unrecognized settings pass through verbatim", func(t *testing.T) {
		rec := baseRecord()
		rec.AppMetadata = map[string]any{
			"notifications": false,
			"beta_cohort":   "q3",
		}

		p, err := Normalize(rec)
		require.NoError(t, err)
		settings := p.Settings()
		assert.False(t, settings.Notifications)
		assert.Equal(t, "q3", settings.Extra["beta_cohort"])
	})

	t.Run("provider markup is stripped during normalization", func(t *testing.T) {
		rec := baseRecord()
		rec.UserMetadata = map[string]any{
			"full_name": "Ada Lovelace",
			"bio":       "hello <script>alert(1)</script>",
		}

		p, err := Normalize(rec)
		require.NoError(t, err)
		assert.NotContains(t, p.Bio(), "<")
	})

	t.Run("unsafe avatar URL is rejected", func(t *testing.T) {
		rec := baseRecord()
		rec.UserMetadata = map[string]any{
			"full_name":  "Ada Lovelace",
			"avatar_url": "javascript:alert(1)",
		}

		_, err := Normalize(rec)
		require.Error(t, err)
	})

	t.Run("invalid provider gender is dropped", func(t *testing.T) {
		rec := baseRecord()
		rec.UserMetadata = map[string]any{"gender": "F"}

		p, err := Normalize(rec)
		require.NoError(t, err)
		assert.Empty(t, string(p.Gender()))
	})

	t.Run("missing id fails closed", func(t *testing.T) {
		rec := baseRecord()
		rec.ID = ""
		_, err := Normalize(rec)
		require.Error(t, err)
	})

	t.Run("missing email fails closed", func(t *testing.T) {
		rec := baseRecord()
		rec.Email = ""
		_, err := Normalize(rec)
		require.Error(t, err)
	})
}
