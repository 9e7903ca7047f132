package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/inwren/auth-service/internal/errors"
	"github.com/inwren/auth-service/internal/service"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Tier     string `json:"tier,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), service.RegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Tier:     in.Tier,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userFromModel(user))
}

func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	pair, err := h.svc.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensFromModel(pair))
}

// RefreshToken обновляет пару токенов. Контракт статусов этого эндпойнта
// отличается от общего маппинга: нераспознанный токен — 403, неизвестный
// пользователь — 404, отозванный токен — 401.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	pair, err := h.svc.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			apierrors.WriteStatus(w, r, http.StatusForbidden, "invalid_token", "invalid token")
			return
		}

		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokensFromModel(pair))
}
