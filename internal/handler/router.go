package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mssecurity/internal/metrics"
	"github.com/hitoshi/mssecurity/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	IsDevelopment     bool

	// 監視
	Metrics       middleware.HTTPMetricsRecorder
	Gatherer      prometheus.Gatherer
	HealthChecker HealthChecker

	// アップロード
	ProfileImageDir   string
	SignatureImageDir string
	MaxUploadBytes    int64

	// ユーザーと付随情報
	UserService             UserServiceInterface
	ProfileService          ProfileServiceInterface
	AddressService          AddressServiceInterface
	DigitalSignatureService DigitalSignatureServiceInterface
	DeviceService           DeviceServiceInterface

	// 認証情報
	SessionService          SessionServiceInterface
	PasswordService         PasswordServiceInterface
	SecurityQuestionService SecurityQuestionServiceInterface
	AnswerService           AnswerServiceInterface

	// 権限
	RoleService           RoleServiceInterface
	PermissionService     PermissionServiceInterface
	UserRoleService       UserRoleServiceInterface
	RolePermissionService RolePermissionServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Metrics → Recovery → SecurityHeaders → CORS → RateLimit(General)
//
// /healthと/metricsはレート制限の外に配置する。
// マルチパートを受け付けるルートにはアップロード用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{IsDevelopment: deps.IsDevelopment}))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, notFoundRoute)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusMethodNotAllowed, methodNotAllowed)
	})

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	var upload func(http.Handler) http.Handler
	if deps.RateLimiter != nil {
		upload = deps.RateLimiter.UploadMiddleware()
	}

	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/users", NewUserHandler(deps.UserService).RegisterRoutes)
		r.Route("/profiles", func(r chi.Router) {
			NewProfileHandler(deps.ProfileService, deps.ProfileImageDir, deps.MaxUploadBytes).RegisterRoutes(r, upload)
		})
		r.Route("/addresses", NewAddressHandler(deps.AddressService).RegisterRoutes)
		r.Route("/digital-signatures", func(r chi.Router) {
			NewDigitalSignatureHandler(deps.DigitalSignatureService, deps.SignatureImageDir, deps.MaxUploadBytes).RegisterRoutes(r, upload)
		})
		r.Route("/devices", NewDeviceHandler(deps.DeviceService).RegisterRoutes)

		r.Route("/sessions", NewSessionHandler(deps.SessionService).RegisterRoutes)
		r.Route("/passwords", NewPasswordHandler(deps.PasswordService).RegisterRoutes)
		r.Route("/security-questions", NewSecurityQuestionHandler(deps.SecurityQuestionService).RegisterRoutes)
		r.Route("/answers", NewAnswerHandler(deps.AnswerService).RegisterRoutes)

		r.Route("/roles", NewRoleHandler(deps.RoleService).RegisterRoutes)
		r.Route("/permissions", NewPermissionHandler(deps.PermissionService).RegisterRoutes)
		r.Route("/user-roles", NewUserRoleHandler(deps.UserRoleService).RegisterRoutes)
		r.Route("/role-permissions", NewRolePermissionHandler(deps.RolePermissionService).RegisterRoutes)
	})

	return r
}
