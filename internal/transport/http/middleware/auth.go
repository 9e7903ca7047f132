package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/inwren/auth-service/internal/errors"
	"github.com/inwren/auth-service/internal/models"
	"github.com/inwren/auth-service/internal/service"
)

// ctxKeyUser — ключ контекста для аутентифицированного пользователя.
type ctxKeyUser struct{}

// Authorize извлекает Bearer-токен из Authorization, прогоняет его через
// authorization gate сервиса и кладёт аутентифицированного пользователя
// в контекст. Запрос без валидного токена завершается 401/404 без вызова
// хендлера.
func Authorize(svc *service.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			user, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperuser пропускает дальше только superuser; остальным — 403.
// Навешивается после Authorize.
func RequireSuperuser(svc *service.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := svc.RequireSuperuser(UserFrom(r.Context())); err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserFrom возвращает аутентифицированного пользователя из контекста
// (nil, если Authorize не отработал).
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(ctxKeyUser{}).(*models.User)
	return user
}

// bearerToken достаёт "сырой" токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
