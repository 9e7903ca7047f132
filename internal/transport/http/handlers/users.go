package handlers

import (
	"net/http"

	apierrors "github.com/inwren/auth-service/internal/errors"
	"github.com/inwren/auth-service/internal/service"
	"github.com/inwren/auth-service/internal/transport/http/middleware"
)

type updateProfileRequest struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type avatarPresignRequest struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
}

type avatarConfirmRequest struct {
	Key string `json:"key"`
}

type avatarPresignResponse struct {
	UploadURL      string            `json:"upload_url"`
	AvatarKey      string            `json:"avatar_key"`
	ExpiresSeconds int64             `json:"expires_seconds"`
	RequiredHeader map[string]string `json:"required_headers,omitempty"`
}

// Profile отдаёт профиль текущего пользователя (из контекста Authorize).
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	writeJSON(w, http.StatusOK, userFromModel(user))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var in updateProfileRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, service.ProfileUpdate{
		Email:    in.Email,
		FullName: in.FullName,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(updated))
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), user.ID, in.CurrentPassword, in.NewPassword); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeactivateSelf — мягкое отключение собственной учётной записи.
func (h *Handlers) DeactivateSelf(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	if err := h.svc.DeactivateUser(r.Context(), user.ID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AvatarPresign(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var in avatarPresignRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	info, err := h.svc.AvatarUploadURL(r.Context(), user.ID, in.ContentType, in.ContentLength)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, avatarPresignResponse{
		UploadURL:      info.UploadURL,
		AvatarKey:      info.AvatarKey,
		ExpiresSeconds: int64(info.Expires.Seconds()),
		RequiredHeader: info.RequiredHeader,
	})
}

func (h *Handlers) AvatarConfirm(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var in avatarConfirmRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	updated, err := h.svc.ConfirmAvatarUpload(r.Context(), user.ID, in.Key)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(updated))
}
