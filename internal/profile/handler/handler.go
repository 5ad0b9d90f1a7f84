package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"warden/internal/platform/middleware"
	"warden/internal/profile/models"
	"warden/internal/profile/provider"
	"warden/internal/profile/secrets"
	"warden/internal/profile/service"
	"warden/internal/profile/validate"
	"warden/pkg/httputil"
)

// Service defines the profile operations the HTTP layer depends on.
type Service interface {
	Create(ctx context.Context, email, displayName string) (*models.Profile, error)
	ImportFromProvider(ctx context.Context, rec provider.Record) (*models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	GetPublic(ctx context.Context, id string) (*models.PublicProfile, error)
	GetProviderAttributes(ctx context.Context, id string) (map[string]any, error)
	Update(ctx context.Context, id string, patch service.Patch) (*models.Profile, error)
	SetVerification(ctx context.Context, id, channel string, verified bool) (*models.Profile, error)
	Restrict(ctx context.Context, id string, until *time.Time) (*models.Profile, error)
	Unrestrict(ctx context.Context, id string) (*models.Profile, error)
	Validate(ctx context.Context, id string) (validate.Report, error)
	Delete(ctx context.Context, id string) error
}

// Handler wires profile endpoints to the profile service.
type Handler struct {
	service          Service
	logger           *slog.Logger
	auth             func(http.Handler) http.Handler
	importSecretHash string
}

// Option configures optional handler behavior.
type Option func(*Handler)

// WithImportSecret guards the provider-import endpoint with a shared secret.
// Callers must present the plaintext in X-Import-Secret; hash is its bcrypt
// hash from configuration. An empty hash leaves the endpoint open to any
// authenticated caller.
func WithImportSecret(hash string) Option {
	return func(h *Handler) {
		h.importSecretHash = hash
	}
}

// New constructs a profile handler with its dependencies.
func New(service Service, logger *slog.Logger, auth func(http.Handler) http.Handler, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
		auth:    auth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts profile endpoints on the router. The public projection is
// served without authentication; everything else requires a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profiles/{id}/public", h.HandleGetPublic)

	r.Group(func(r chi.Router) {
		if h.auth != nil {
			r.Use(h.auth)
		}
		r.Post("/profiles", h.HandleCreate)
		r.Post("/profiles/import", h.HandleImport)
		r.Get("/profiles/{id}", h.HandleGet)
		r.Patch("/profiles/{id}", h.HandleUpdate)
		r.Delete("/profiles/{id}", h.HandleDelete)
		r.Get("/profiles/{id}/attributes", h.HandleGetAttributes)
		r.Get("/profiles/{id}/validate", h.HandleValidate)
		r.Post("/profiles/{id}/restrict", h.HandleRestrict)
		r.Delete("/profiles/{id}/restrict", h.HandleUnrestrict)
		r.Post("/profiles/{id}/verification/{channel}", h.HandleVerify)
		r.Delete("/profiles/{id}/verification/{channel}", h.HandleUnverify)
	})
}

type createRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type restrictRequest struct {
	Until *time.Time `json:"until,omitempty"`
}

// profileResponse is the full authenticated view plus derived state.
type profileResponse struct {
	models.Document
	CompletionPercentage int  `json:"completion_percentage"`
	CurrentlyRestricted  bool `json:"currently_restricted"`
}

func toResponse(p *models.Profile) profileResponse {
	return profileResponse{
		Document:             p.Document(),
		CompletionPercentage: p.CompletionPercentage(),
		CurrentlyRestricted:  p.IsCurrentlyRestricted(),
	}
}

// HandleCreate handles POST /profiles requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Create(ctx, req.Email, req.DisplayName)
	if err != nil {
		h.logger.WarnContext(ctx, "profile creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile created",
		"request_id", requestID,
		"profile_id", p.ID(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toResponse(p))
}

// HandleImport handles POST /profiles/import requests carrying a raw
// identity-provider record.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if h.importSecretHash != "" {
		if err := secrets.Verify(r.Header.Get("X-Import-Secret"), h.importSecretHash); err != nil {
			h.logger.WarnContext(ctx, "profile import denied",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
	}

	rec, ok := httputil.DecodeAndPrepare[provider.Record](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.ImportFromProvider(ctx, rec)
	if err != nil {
		h.logger.WarnContext(ctx, "profile import failed",
			"request_id", requestID,
			"provider_id", rec.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile imported",
		"request_id", requestID,
		"profile_id", p.ID(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toResponse(p))
}

// HandleGet handles GET /profiles/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// HandleGetPublic handles GET /profiles/{id}/public requests.
func (h *Handler) HandleGetPublic(w http.ResponseWriter, r *http.Request) {
	public, err := h.service.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, public)
}

// HandleGetAttributes handles GET /profiles/{id}/attributes requests.
func (h *Handler) HandleGetAttributes(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.service.GetProviderAttributes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, attrs)
}

// HandleUpdate handles PATCH /profiles/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	profileID := chi.URLParam(r, "id")

	patch, ok := httputil.DecodeAndPrepare[service.Patch](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Update(ctx, profileID, patch)
	if err != nil {
		h.logger.WarnContext(ctx, "profile update rejected",
			"request_id", requestID,
			"profile_id", profileID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// HandleDelete handles DELETE /profiles/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "id")

	if err := h.service.Delete(ctx, profileID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile deleted",
		"request_id", middleware.GetRequestID(ctx),
		"profile_id", profileID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleValidate handles GET /profiles/{id}/validate requests.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleRestrict handles POST /profiles/{id}/restrict requests.
func (h *Handler) HandleRestrict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	profileID := chi.URLParam(r, "id")

	req := restrictRequest{}
	if r.ContentLength > 0 {
		var ok bool
		req, ok = httputil.DecodeAndPrepare[restrictRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
	}

	p, err := h.service.Restrict(ctx, profileID, req.Until)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile restricted",
		"request_id", requestID,
		"profile_id", profileID,
	)
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// HandleUnrestrict handles DELETE /profiles/{id}/restrict requests.
func (h *Handler) HandleUnrestrict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "id")

	p, err := h.service.Unrestrict(ctx, profileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "profile restriction lifted",
		"request_id", middleware.GetRequestID(ctx),
		"profile_id", profileID,
	)
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// HandleVerify handles POST /profiles/{id}/verification/{channel} requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.setVerification(w, r, true)
}

// HandleUnverify handles DELETE /profiles/{id}/verification/{channel} requests.
func (h *Handler) HandleUnverify(w http.ResponseWriter, r *http.Request) {
	h.setVerification(w, r, false)
}

func (h *Handler) setVerification(w http.ResponseWriter, r *http.Request, verified bool) {
	ctx := r.Context()
	profileID := chi.URLParam(r, "id")
	channel := chi.URLParam(r, "channel")

	p, err := h.service.SetVerification(ctx, profileID, channel, verified)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification changed",
		"request_id", middleware.GetRequestID(ctx),
		"profile_id", profileID,
		"channel", channel,
		"verified", verified,
	)
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

var _ Service = (*service.Service)(nil)
