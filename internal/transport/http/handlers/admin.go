package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/inwren/auth-service/internal/errors"
	"github.com/inwren/auth-service/internal/service"
)

type adminUpdateUserRequest struct {
	Email       *string `json:"email,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Tier        *string `json:"tier,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// pathUserID разбирает {id} маршрута в uuid.
func pathUserID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// queryInt разбирает числовой query-параметр; отсутствие — дефолт.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	return strconv.Atoi(raw)
}

func (h *Handlers) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	users, err := h.svc.ListUsers(r.Context(), skip, limit)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := listUsersResponse{
		Users: make([]userResponse, 0, len(users)),
		Skip:  skip,
		Limit: limit,
	}
	for i := range users {
		out.Users = append(out.Users, userFromModel(&users[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUserID(r)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, err := h.svc.UserByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

func (h *Handlers) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUserID(r)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	var in adminUpdateUserRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, err := h.svc.AdminUpdateUser(r.Context(), id, service.AdminUserUpdate{
		Email:       in.Email,
		FullName:    in.FullName,
		Tier:        in.Tier,
		IsActive:    in.IsActive,
		IsSuperuser: in.IsSuperuser,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

// AdminDeleteUser — жёсткое удаление; в теле ответа — удалённая запись.
func (h *Handlers) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUserID(r)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, err := h.svc.AdminDeleteUser(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}
