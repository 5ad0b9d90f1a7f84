package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	jwttoken "warden/internal/jwt_token"
	"warden/internal/platform/middleware"
	"warden/internal/profile/secrets"
	"warden/internal/profile/service"
	"warden/internal/profile/store"
)

var jwtService = jwttoken.NewJWTService("test-signing-key", "test-issuer", "test-audience")

func newProfileRouter(t *testing.T) chi.Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), service.WithLogger(logger))
	auth := middleware.RequireAuth(jwttoken.NewMiddlewareAdapter(jwtService), logger)

	h := New(svc, logger, auth)
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	h.Register(router)
	return router
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token, err := jwtService.GenerateAccessToken("test-admin", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, router chi.Router, method, path string, payload any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", bearerToken(t))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createProfile(t *testing.T, router chi.Router, email, name string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/profiles", map[string]string{
		"email":        email,
		"display_name": name,
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating profile, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if resp.ID == "" {
		t.Fatalf("expected id in create response")
	}
	return resp.ID
}

func TestAuthRequiredForMutations(t *testing.T) {
	router := newProfileRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/profiles", map[string]string{
		"email":        "ada@example.com",
		"display_name": "Ada",
	}, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestCreateAndFetchProfile(t *testing.T) {
	router := newProfileRouter(t)
	id := createProfile(t, router, "ada@example.com", "Ada")

	rec := doJSON(t, router, http.MethodGet, "/profiles/"+id, nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching profile, got %d", rec.Code)
	}

	var resp struct {
		Email                string `json:"email"`
		DisplayName          string `json:"display_name"`
		IdentityHash         string `json:"identity_hash"`
		CompletionPercentage int    `json:"completion_percentage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode profile response: %v", err)
	}
	if resp.Email != "ada@example.com" || resp.DisplayName != "Ada" {
		t.Fatalf("unexpected profile fields: %+v", resp)
	}
	if resp.IdentityHash == "" {
		t.Fatalf("expected identity_hash in response")
	}
	if resp.CompletionPercentage != 0 {
		t.Fatalf("expected empty profile completion 0, got %d", resp.CompletionPercentage)
	}
}

func TestCreateRejectsHostileDisplayName(t *testing.T) {
	router := newProfileRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/profiles", map[string]string{
		"email":        "eve@example.com",
		"display_name": "<script>alert(1)</script>",
	}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for hostile display name, got %d", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "unsafe_content" {
		t.Fatalf("expected unsafe_content error code, got %q", resp.Error)
	}
}

func TestPatchProfile(t *testing.T) {
	router := newProfileRouter(t)
	id := createProfile(t, router, "grace@example.com", "Grace")

	rec := doJSON(t, router, http.MethodPatch, "/profiles/"+id, map[string]any{
		"bio":     "Compilers <b>and</b> more",
		"company": "Navy",
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 patching profile, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Metadata struct {
			Bio     string `json:"bio"`
			Company string `json:"company"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode patch response: %v", err)
	}
	if resp.Metadata.Bio != "Compilers and more" {
		t.Fatalf("expected bio cleaned of markup, got %q", resp.Metadata.Bio)
	}
	if resp.Metadata.Company != "Navy" {
		t.Fatalf("expected company persisted, got %q", resp.Metadata.Company)
	}
}

func TestPublicProjectionIsOpenAndMinimal(t *testing.T) {
	router := newProfileRouter(t)
	id := createProfile(t, router, "alan@example.com", "Alan")

	// No auth header on the public route
	rec := doJSON(t, router, http.MethodGet, "/profiles/"+id+"/public", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching public profile, got %d", rec.Code)
	}

	var public map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&public); err != nil {
		t.Fatalf("failed to decode public response: %v", err)
	}
	if _, ok := public["email"]; ok {
		t.Fatalf("public projection must not expose email")
	}
	if public["display_name"] != "Alan" {
		t.Fatalf("expected display_name in public projection, got %v", public["display_name"])
	}
}

func TestVerificationRoutes(t *testing.T) {
	router := newProfileRouter(t)
	id := createProfile(t, router, "joan@example.com", "Joan")

	rec := doJSON(t, router, http.MethodPost, "/profiles/"+id+"/verification/email", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 verifying email, got %d", rec.Code)
	}

	var resp struct {
		Metadata struct {
			Verification struct {
				Email bool `json:"email"`
			} `json:"verification"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode verification response: %v", err)
	}
	if !resp.Metadata.Verification.Email {
		t.Fatalf("expected email verification set")
	}

	rec = doJSON(t, router, http.MethodPost, "/profiles/"+id+"/verification/fax", nil, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown channel, got %d", rec.Code)
	}
}

func TestRestrictRoutes(t *testing.T) {
	router := newProfileRouter(t)
	id := createProfile(t, router, "eve@example.com", "Eve")

	until := time.Now().Add(time.Hour).UTC()
	rec := doJSON(t, router, http.MethodPost, "/profiles/"+id+"/restrict", map[string]any{
		"until": until.Format(time.RFC3339),
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 restricting profile, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		CurrentlyRestricted bool `json:"currently_restricted"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode restrict response: %v", err)
	}
	if !resp.CurrentlyRestricted {
		t.Fatalf("expected profile to be restricted")
	}

	rec = doJSON(t, router, http.MethodDelete, "/profiles/"+id+"/restrict", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 lifting restriction, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode unrestrict response: %v", err)
	}
	if resp.CurrentlyRestricted {
		t.Fatalf("expected restriction lifted")
	}
}

func TestValidateRoute(t *testing.T) {
	router := newProfileRouter(t)
	id := createProfile(t, router, "mary@example.com", "Mary")

	rec := doJSON(t, router, http.MethodGet, "/profiles/"+id+"/validate", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 validating profile, got %d", rec.Code)
	}

	var report struct {
		IsValid bool     `json:"is_valid"`
		Errors  []string `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode validation report: %v", err)
	}
	if !report.IsValid {
		t.Fatalf("expected fresh profile to validate, errors: %v", report.Errors)
	}
}

func TestImportRoute(t *testing.T) {
	router := newProfileRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/profiles/import", map[string]any{
		"id":    "prov-42",
		"email": "kay.mcnulty@example.com",
		"user_metadata": map[string]any{
			"avatar_url": "https://example.com/kay.png",
		},
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 importing profile, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode import response: %v", err)
	}
	if resp.ID != "prov-42" {
		t.Fatalf("expected imported profile to keep provider id, got %q", resp.ID)
	}
	if resp.DisplayName != "Kay Mcnulty" {
		t.Fatalf("expected display name derived from email, got %q", resp.DisplayName)
	}
}

func TestImportRouteRequiresSecretWhenConfigured(t *testing.T) {
	hash, err := secrets.Hash("sync-job-secret")
	if err != nil {
		t.Fatalf("failed to hash import secret: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), service.WithLogger(logger))
	auth := middleware.RequireAuth(jwttoken.NewMiddlewareAdapter(jwtService), logger)
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	New(svc, logger, auth, WithImportSecret(hash)).Register(router)

	record := map[string]any{"id": "prov-7", "email": "jean.bartik@example.com"}

	importWith := func(secret string) *httptest.ResponseRecorder {
		raw, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("failed to marshal record: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/profiles/import", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearerToken(t))
		if secret != "" {
			req.Header.Set("X-Import-Secret", secret)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := importWith(""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without import secret, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := importWith("wrong-secret"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong import secret, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := importWith("sync-job-secret"); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with correct import secret, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteRoute(t *testing.T) {
	router := newProfileRouter(t)
	id := createProfile(t, router, "gone@example.com", "Gone")

	rec := doJSON(t, router, http.MethodDelete, "/profiles/"+id, nil, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting profile, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/profiles/"+id, nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
