// Package app はコマンドライン引数に応じてサーバー・ワーカー・マイグレーションを起動する。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/mssecurity/internal/account"
	"github.com/hitoshi/mssecurity/internal/config"
	"github.com/hitoshi/mssecurity/internal/credential"
	"github.com/hitoshi/mssecurity/internal/database"
	"github.com/hitoshi/mssecurity/internal/handler"
	"github.com/hitoshi/mssecurity/internal/logger"
	"github.com/hitoshi/mssecurity/internal/metrics"
	"github.com/hitoshi/mssecurity/internal/middleware"
	"github.com/hitoshi/mssecurity/internal/rbac"
	"github.com/hitoshi/mssecurity/internal/repository"
	"github.com/hitoshi/mssecurity/internal/security"
	"github.com/hitoshi/mssecurity/internal/storage"
	"github.com/hitoshi/mssecurity/internal/user"
	"github.com/hitoshi/mssecurity/internal/worker/cleanup"
)

const (
	pingTimeout     = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// runContext はサブコマンドの実行に必要な共通の状態。
type runContext struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数のConfigを読み込み、
// 設定されたログレベルでロガーを再構成する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, nil)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, logger.SetupDefault(w, cfg.SlogLevel()), nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。ctxのキャンセルでサーバーとワーカーを停止する。
func Run(ctx context.Context, w io.Writer, args []string) error {
	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func runWithConfig(cmd *cobra.Command, w io.Writer, command Command, run func(*runContext) error) error {
	cfg, log, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	log.Info("starting application",
		slog.String("command", string(command)),
		slog.String("port", cfg.ServerPort),
		slog.String("env", cfg.AppEnv),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return run(&runContext{ctx: ctx, cfg: cfg, logger: log, out: cmd.OutOrStdout()})
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx, db, pingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newRegistry はGo/プロセスの標準メトリクスを含むレジストリとCollectorを生成する。
func newRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// buildRouterDeps は全リポジトリとサービスを組み立ててRouterDepsを返す。
func buildRouterDeps(cfg *config.Config, db *sql.DB, store *storage.LocalStore, collector *metrics.Collector) *handler.RouterDeps {
	// リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	addressRepo := repository.NewPostgresAddressRepo(db)
	signatureRepo := repository.NewPostgresDigitalSignatureRepo(db)
	deviceRepo := repository.NewPostgresDeviceRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	passwordRepo := repository.NewPostgresPasswordRepo(db)
	questionRepo := repository.NewPostgresSecurityQuestionRepo(db)
	answerRepo := repository.NewPostgresAnswerRepo(db)
	roleRepo := repository.NewPostgresRoleRepo(db)
	permissionRepo := repository.NewPostgresPermissionRepo(db)
	userRoleRepo := repository.NewPostgresUserRoleRepo(db)
	rolePermissionRepo := repository.NewPostgresRolePermissionRepo(db)

	// セキュリティ
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	sanitizer := security.NewTextSanitizer()

	return &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		IsDevelopment:     cfg.IsDevelopment(),
		Metrics:           collector,
		HealthChecker:     db,

		ProfileImageDir:   store.Dir(storage.NamespaceProfiles),
		SignatureImageDir: store.Dir(storage.NamespaceDigitalSignatures),
		MaxUploadBytes:    cfg.UploadMaxBytes,

		UserService:             user.NewService(userRepo, store, sanitizer),
		ProfileService:          account.NewProfileService(profileRepo, userRepo, store),
		AddressService:          account.NewAddressService(addressRepo, userRepo),
		DigitalSignatureService: account.NewDigitalSignatureService(signatureRepo, userRepo, store),
		DeviceService:           account.NewDeviceService(deviceRepo, userRepo, sanitizer),

		SessionService:          credential.NewSessionService(sessionRepo, userRepo, cfg.SessionDefaultTTL),
		PasswordService:         credential.NewPasswordService(passwordRepo, userRepo, hasher, collector),
		SecurityQuestionService: credential.NewSecurityQuestionService(questionRepo, sanitizer),
		AnswerService:           credential.NewAnswerService(answerRepo, userRepo, questionRepo),

		RoleService:           rbac.NewRoleService(roleRepo, sanitizer),
		PermissionService:     rbac.NewPermissionService(permissionRepo, rolePermissionRepo),
		UserRoleService:       rbac.NewUserRoleService(userRoleRepo, userRepo, roleRepo),
		RolePermissionService: rbac.NewRolePermissionService(rolePermissionRepo, roleRepo, permissionRepo),
	}
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(rc *runContext) error {
	cfg := rc.cfg

	db, err := openDatabase(rc.ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	rc.logger.Info("database connection established")

	store, err := storage.NewLocalStore(cfg.UploadFolder)
	if err != nil {
		return fmt.Errorf("failed to prepare upload folder: %w", err)
	}

	reg, collector := newRegistry()

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitUpload),
	)
	defer rateLimiter.Stop()

	deps := buildRouterDeps(cfg, db, store, collector)
	deps.Logger = rc.logger
	deps.RateLimiter = rateLimiter
	deps.Gatherer = reg

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := serveUntilDone(rc.ctx, rc.logger, "API server", server); err != nil {
		return err
	}
	rc.logger.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの定期更新と/metricsの公開を行い、ctxのキャンセルで停止する。
func runWorker(rc *runContext) error {
	cfg := rc.cfg

	db, err := openDatabase(rc.ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	rc.logger.Info("database connection established (worker)")

	reg, collector := newRegistry()
	sweeper := cleanup.NewSessionSweeper(repository.NewPostgresSessionRepo(db), collector, rc.logger)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metrics.SetupMetricsRoute(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	rc.logger.Info("worker starting",
		slog.Duration("sweep_interval", cfg.SessionSweepInterval),
		slog.String("metrics_port", cfg.WorkerMetricsPort),
	)

	g, ctx := errgroup.WithContext(rc.ctx)
	g.Go(func() error {
		sweeper.Start(ctx, cfg.SessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		return serveUntilDone(ctx, rc.logger, "worker metrics server", metricsServer)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	rc.logger.Info("worker stopped gracefully")
	return nil
}

// serveUntilDone はサーバーを起動し、ctxが終了したらシャットダウンする。
// 起動に失敗した場合はそのエラーを返す。
func serveUntilDone(ctx context.Context, log *slog.Logger, name string, server *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s listen error: %w", name, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down " + name)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s shutdown failed: %w", name, err)
		}
		return nil
	})

	return g.Wait()
}

// runMigrateUp は未適用のマイグレーションを順番に適用する。
func runMigrateUp(rc *runContext) error {
	rc.logger.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(rc.cfg.DatabaseURL)),
	)
	if err := database.RunMigrations(rc.cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	rc.logger.Info("database migrations completed successfully")
	return nil
}

// runMigrateDown は指定ステップ数だけマイグレーションを巻き戻す。
func runMigrateDown(rc *runContext, steps int) error {
	rc.logger.Info("rolling back database migrations",
		slog.String("database_url", maskDatabaseURL(rc.cfg.DatabaseURL)),
		slog.Int("steps", steps),
	)
	if err := database.RollbackMigrations(rc.cfg.DatabaseURL, steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	rc.logger.Info("database rollback completed successfully")
	return nil
}

// runMigrateVersion は適用済みのバージョンを出力する。
func runMigrateVersion(rc *runContext) error {
	version, dirty, err := database.MigrationVersion(rc.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	fmt.Fprintf(rc.out, "version=%d dirty=%t\n", version, dirty)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// baseURLの/healthにHTTPリクエストを送り、200以外はエラーとする。
func runHealthcheck(ctx context.Context, baseURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
