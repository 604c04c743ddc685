package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/syberry/bakery-api/config"
	"github.com/syberry/bakery-api/internal/adapters/hash"
	"github.com/syberry/bakery-api/internal/adapters/mail"
	redisad "github.com/syberry/bakery-api/internal/adapters/redis"
	"github.com/syberry/bakery-api/internal/adapters/token"
	"github.com/syberry/bakery-api/internal/data"
	"github.com/syberry/bakery-api/internal/observability/statsd"
	"github.com/syberry/bakery-api/internal/ports"
	"github.com/syberry/bakery-api/internal/service"
)

// ServiceContainer holds all constructed services and the shared adapters the
// HTTP layer needs.
type ServiceContainer struct {
	Auth    *service.AuthService
	Roles   *service.RoleService
	Tokens  ports.TokenIssuer
	Users   ports.UserStore
	Hasher  ports.PasswordHasher
	Metrics *statsd.Client
}

// ServicesConfig groups the dependencies for BuildServices.
type ServicesConfig struct {
	Config *config.AppConfig
	DB     *sql.DB
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

// BuildServices wires adapters, repositories, and services from configuration.
func BuildServices(cfg ServicesConfig) (ServiceContainer, error) {
	appCfg := cfg.Config
	if appCfg == nil {
		return ServiceContainer{}, fmt.Errorf("app config is required")
	}

	metrics, err := statsd.NewClient(statsd.Config{
		Enabled: appCfg.Observability.Metrics.IsEnabled(),
		Address: appCfg.Observability.Metrics.StatsdAddress,
		Prefix:  "bakery",
		Logger:  cfg.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("statsd client: %w", err)
	}

	issuer, err := token.NewJWTIssuer([]byte(appCfg.Auth.JWTSecret), appCfg.Auth.AccessTokenTTL)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("jwt issuer: %w", err)
	}

	hasher := hash.NewBcryptHasher(bcrypt.DefaultCost)
	users := data.NewUserRepo(cfg.DB)

	refreshTokens, err := data.NewRefreshTokenRepo(data.RefreshTokenRepoOptions{
		DB:  cfg.DB,
		TTL: appCfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("refresh token repo: %w", err)
	}

	mailer, err := mail.NewSMTPSender(mail.SMTPSenderOptions{
		Host:       appCfg.Mail.Host,
		Port:       appCfg.Mail.Port,
		Username:   appCfg.Mail.Username,
		Password:   appCfg.Mail.Password,
		From:       appCfg.Mail.From,
		DisableTLS: appCfg.Mail.DisableTLS,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("smtp sender: %w", err)
	}

	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		Users:          users,
		Hasher:         hasher,
		Tokens:         issuer,
		RefreshTokens:  refreshTokens,
		TwoFactorCodes: redisad.NewSecretCache(cfg.Redis, "2fa", appCfg.Auth.TwoFactorCodeTTL),
		ResetTokens:    redisad.NewSecretCache(cfg.Redis, "reset", appCfg.Auth.ResetTokenTTL),
		Mailer:         mailer,
		Metrics:        metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("auth service: %w", err)
	}

	roleSvc, err := service.NewRoleService(users, metrics)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("role service: %w", err)
	}

	return ServiceContainer{
		Auth:    authSvc,
		Roles:   roleSvc,
		Tokens:  issuer,
		Users:   users,
		Hasher:  hasher,
		Metrics: metrics,
	}, nil
}
