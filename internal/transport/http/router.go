// http собирает REST-поверхность сервиса: маршруты, middleware и
// служебные эндпойнты (health/metrics).
package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inwren/auth-service/internal/service"
	"github.com/inwren/auth-service/internal/transport/http/handlers"
	"github.com/inwren/auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
	// Ready — readiness-флаг процесса; /health отвечает 503, пока флаг не взведён.
	Ready *atomic.Bool
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // счётчик и латентность по маршрутам
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Служебные эндпойнты вне BasePath и без авторизации.
	root.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready == nil || opts.Ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	root.Handle("/metrics", promhttp.Handler())

	// Зависимости хендлеров.
	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	// auth — публичные маршруты.
	r.Post("/auth/register", h.RegisterUser)
	r.Post("/auth/login", h.LoginUser)
	r.Post("/auth/refresh", h.RefreshToken)

	// users — self-service за authorization gate.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(svc))

		r.Get("/users/me", h.Profile)
		r.Put("/users/me", h.UpdateProfile)
		r.Post("/users/me/password", h.ChangePassword)
		r.Delete("/users/me", h.DeactivateSelf)
		r.Post("/users/me/avatar/presign", h.AvatarPresign)
		r.Post("/users/me/avatar/confirm", h.AvatarConfirm)
	})

	// admin — только superuser.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(svc), middleware.RequireSuperuser(svc))

		r.Get("/admin/users", h.AdminListUsers)
		r.Get("/admin/users/{id}", h.AdminGetUser)
		r.Put("/admin/users/{id}", h.AdminUpdateUser)
		r.Delete("/admin/users/{id}", h.AdminDeleteUser)
	})
}
