// Package gatewayconfig serves gateway credentials and settings from the
// gateway_config table, resolving encrypted values through a secret manager
// and caching resolved snapshots per gateway for a short TTL.
package gatewayconfig

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"github.com/uzpos/payment-service/pkg/observability"
	"github.com/uzpos/payment-service/pkg/timeutil"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds credential staleness after an out-of-band config
// change. Admin writes that must take effect immediately call Reload.
const DefaultCacheTTL = 5 * time.Minute

// SecretPath returns the secret-manager location for one encrypted value.
func SecretPath(kind domain.GatewayKind, key string) string {
	return fmt.Sprintf("pos-gateway/%s/%s", kind, key)
}

// snapshot is one gateway's resolved configuration at a point in time.
type snapshot struct {
	values   map[string]string
	loadedAt time.Time
}

// Service implements ports.ConfigStore and domain.CredentialGetter.
type Service struct {
	db      ports.Database
	repo    ports.ConfigRepository
	secrets ports.SecretManager
	audit   ports.AuditLogger
	logger  *zap.Logger
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[domain.GatewayKind]*snapshot
}

// NewService creates a config store service.
func NewService(db ports.Database, repo ports.ConfigRepository, secrets ports.SecretManager, audit ports.AuditLogger, logger *zap.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		db:      db,
		repo:    repo,
		secrets: secrets,
		audit:   audit,
		logger:  logger,
		ttl:     ttl,
		cache:   make(map[domain.GatewayKind]*snapshot),
	}
}

// Value returns one configuration value with encrypted entries resolved.
// Missing keys return an empty string; the credential loaders in the domain
// turn that into CONFIG_MISSING_KEY.
func (s *Service) Value(ctx context.Context, kind domain.GatewayKind, key string) (string, error) {
	snap, err := s.snapshot(ctx, kind)
	if err != nil {
		return "", err
	}
	return snap.values[key], nil
}

// GetAll lists a gateway's configuration with encrypted values masked.
func (s *Service) GetAll(ctx context.Context, kind domain.GatewayKind) ([]domain.ConfigItem, error) {
	items, err := s.repo.List(ctx, s.db.Pool(), kind)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Value = items[i].MaskedValue()
	}
	return items, nil
}

// Set creates or updates a configuration entry. Encrypted values go to the
// secret manager; the row keeps only the secret path. The cache is left
// alone, so the change is visible after one TTL window or an explicit Reload.
func (s *Service) Set(ctx context.Context, kind domain.GatewayKind, key, value, description string, encrypt bool) error {
	if key == "" {
		return domain.NewDomainError(domain.ErrorCodeValidationMissingField, "config key is required")
	}

	item := domain.ConfigItem{
		Gateway:     kind,
		Key:         key,
		Value:       value,
		IsEncrypted: encrypt,
		IsActive:    true,
		Description: description,
	}

	if encrypt {
		path := SecretPath(kind, key)
		if err := s.secrets.PutSecret(ctx, path, value); err != nil {
			return domain.WrapError(domain.ErrorCodeConfigLoadFailed, "store encrypted config value", err)
		}
		item.Value = path
	}

	if err := s.repo.Upsert(ctx, s.db.Pool(), item); err != nil {
		return err
	}

	s.appendAudit(ctx, kind, domain.AuditConfigChanged, map[string]interface{}{
		"key":       key,
		"encrypted": encrypt,
	})

	s.logger.Info("gateway config updated",
		zap.String("gateway", string(kind)),
		zap.String("key", key),
		zap.Bool("encrypted", encrypt),
	)
	return nil
}

// Validate checks the gateway's required-key schema against fresh data.
func (s *Service) Validate(ctx context.Context, kind domain.GatewayKind) (*domain.ConfigValidation, error) {
	s.Reload(kind)

	snap, err := s.snapshot(ctx, kind)
	if err != nil {
		return nil, err
	}

	result := &domain.ConfigValidation{IsValid: true}
	for _, key := range kind.ConfigKeys() {
		value, ok := snap.values[key]
		switch {
		case !ok || value == "":
			result.IsValid = false
			result.MissingKeys = append(result.MissingKeys, key)
		case value == domain.PlaceholderValue:
			result.IsValid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s still holds the placeholder value", key))
		}
	}

	s.appendAudit(ctx, kind, domain.AuditConfigValidated, map[string]interface{}{
		"is_valid":     result.IsValid,
		"missing_keys": result.MissingKeys,
	})

	return result, nil
}

// ResetToDefaults wipes the gateway's configuration and reseeds every required
// key with the placeholder sentinel, forcing operators to supply real values
// before the gateway will sign anything.
func (s *Service) ResetToDefaults(ctx context.Context, kind domain.GatewayKind) error {
	// Best effort: stale secrets for keys being reset are dropped first.
	for _, key := range kind.ConfigKeys() {
		if err := s.secrets.DeleteSecret(ctx, SecretPath(kind, key)); err != nil {
			s.logger.Warn("could not delete secret during reset",
				zap.String("gateway", string(kind)),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repo.DeleteAll(ctx, tx, kind); err != nil {
			return err
		}
		for _, key := range kind.ConfigKeys() {
			item := domain.ConfigItem{
				Gateway:     kind,
				Key:         key,
				Value:       domain.PlaceholderValue,
				IsEncrypted: false,
				IsActive:    true,
				Description: "seeded default, replace before use",
			}
			if err := s.repo.Upsert(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Reload(kind)
	s.appendAudit(ctx, kind, domain.AuditConfigChanged, map[string]interface{}{
		"reset": true,
	})

	s.logger.Info("gateway config reset to defaults", zap.String("gateway", string(kind)))
	return nil
}

// Reload drops the cached snapshot for a gateway.
func (s *Service) Reload(kind domain.GatewayKind) {
	s.mu.Lock()
	delete(s.cache, kind)
	s.mu.Unlock()
}

// snapshot returns the gateway's resolved configuration, loading it from the
// repository and secret manager when the cache is cold or expired.
func (s *Service) snapshot(ctx context.Context, kind domain.GatewayKind) (*snapshot, error) {
	s.mu.RLock()
	snap, ok := s.cache[kind]
	s.mu.RUnlock()

	if ok && time.Since(snap.loadedAt) < s.ttl {
		observability.RecordConfigCacheHit()
		return snap, nil
	}

	reason := "absent"
	if ok {
		reason = "expired"
	}
	observability.RecordConfigCacheMiss(reason)

	fresh, err := s.load(ctx, kind)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[kind] = fresh
	s.mu.Unlock()

	return fresh, nil
}

func (s *Service) load(ctx context.Context, kind domain.GatewayKind) (*snapshot, error) {
	items, err := s.repo.List(ctx, s.db.Pool(), kind)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, item := range items {
		if item.IsActive {
			active++
		}
	}
	if len(items) > 0 && active == 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeConfigInactive,
			fmt.Sprintf("gateway %s is disabled", kind))
	}

	values := make(map[string]string, len(items))
	for _, item := range items {
		if !item.IsActive {
			continue
		}
		if !item.IsEncrypted {
			values[item.Key] = item.Value
			continue
		}

		secret, err := s.secrets.GetSecret(ctx, item.Value)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeConfigLoadFailed,
				fmt.Sprintf("resolve encrypted config %s/%s", kind, item.Key), err)
		}
		values[item.Key] = secret
	}

	s.logger.Debug("gateway config loaded",
		zap.String("gateway", string(kind)),
		zap.Int("keys", len(values)),
	)

	return &snapshot{values: values, loadedAt: time.Now()}, nil
}

func (s *Service) appendAudit(ctx context.Context, kind domain.GatewayKind, action domain.AuditAction, details map[string]interface{}) {
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		Gateway:   kind,
		Action:    action,
		Details:   details,
		CreatedAt: timeutil.Now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("audit append failed",
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
