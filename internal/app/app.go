// Package app builds the shared dependencies of the server and folioctl
// from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/folio/backend/internal/config"
	"github.com/folio/backend/internal/storage"
	"github.com/folio/backend/pkg/ai"
	"github.com/folio/backend/pkg/identity"
)

// DevAdminTokenTTL is the lifetime of the token minted for the development admin.
const DevAdminTokenTTL = 24 * time.Hour

// Identity opens the account store and returns a provider over it. cleanup
// releases the Redis client, if any. The in-memory store is only allowed in
// development, where IDENTITY_DEV_ADMIN_UID seeds an admin account into it.
func Identity(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider *identity.Provider, cleanup func() error, err error) {
	var store identity.AccountStore
	cleanup = func() error { return nil }

	inMemory := cfg.RedisURL == ""
	if inMemory {
		if !cfg.IsDevelopment() {
			return nil, nil, fmt.Errorf("REDIS_URL is required when APP_ENV is %q", cfg.AppEnv)
		}
		logger.Warn("REDIS_URL not set; identity accounts are kept in memory and lost on restart")
		store = identity.NewMemoryAccountStore()
	} else {
		rdb, err := identity.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store = identity.NewRedisAccountStore(rdb)
		cleanup = rdb.Close
	}

	provider, err = identity.NewProvider(identity.Config{
		SigningKey: cfg.Identity.SigningKey,
		Issuer:     cfg.Identity.Issuer,
		Audience:   cfg.Identity.Audience,
	}, store)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	switch uid := cfg.Identity.DevAdminUID; {
	case uid != "" && inMemory:
		token, err := BootstrapDevAdmin(ctx, provider, uid)
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("bootstrap development admin: %w", err)
		}
		logger.Info("development admin ready", "uid", uid, "ttl", DevAdminTokenTTL, "token", token)
	case uid != "":
		logger.Warn("IDENTITY_DEV_ADMIN_UID ignored; use folioctl grant-admin with Redis", "uid", uid)
	case inMemory:
		logger.Warn("no admin account in the in-memory store; set IDENTITY_DEV_ADMIN_UID to reach admin routes")
	}
	return provider, cleanup, nil
}

// BootstrapDevAdmin creates uid with the admin claim and returns a token for it.
func BootstrapDevAdmin(ctx context.Context, p *identity.Provider, uid string) (string, error) {
	acct, err := p.EnsureAccount(ctx, uid, "")
	if err != nil {
		return "", err
	}
	claims := maps.Clone(acct.CustomClaims)
	if claims == nil {
		claims = map[string]any{}
	}
	claims[identity.AdminClaim] = true
	if err := p.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return "", err
	}
	return p.MintIDToken(ctx, uid, DevAdminTokenTTL)
}

// Images selects the image host. uploads is non-nil only for local
// storage and serves the stored files.
func Images(cfg *config.Config, logger *slog.Logger) (images storage.Storage, uploads http.Handler) {
	img := cfg.Images
	switch img.Cloudinary() {
	case config.CloudinaryComplete:
		logger.Info("image storage: cloudinary", "cloud", img.CloudName, "folder", img.Folder)
		return storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			CloudName: img.CloudName,
			APIKey:    img.APIKey,
			APISecret: img.APISecret,
			Folder:    img.Folder,
		}), nil
	case config.CloudinaryPartial:
		logger.Warn("image host partially configured; uploads disabled", "missing", img.MissingCloudinaryVars())
		return storage.Disabled{}, nil
	}
	if img.UploadDir != "" {
		local := storage.NewLocalStorage(img.UploadDir, "/uploads")
		logger.Info("image storage: local", "dir", local.BaseDir())
		return local, http.FileServer(http.Dir(local.BaseDir()))
	}
	logger.Warn("no image storage configured; uploads disabled")
	return storage.Disabled{}, nil
}

// AIClient returns nil when no API key is configured. The result is an
// interface so that callers never see a typed nil.
func AIClient(cfg *config.Config, logger *slog.Logger) ai.Client {
	if !cfg.AI.Enabled() {
		logger.Info("AI_API_KEY not set; categorization falls back to General")
		return nil
	}
	return ai.NewGeminiClient(ai.Options{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.Timeout,
	})
}
