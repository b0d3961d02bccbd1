package gatewayconfig_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"github.com/uzpos/payment-service/internal/services/gatewayconfig"
)

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) Pool() *pgxpool.Pool {
	return nil
}

func (m *MockDatabase) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)
	if fn != nil {
		if err := fn(ctx, nil); err != nil {
			return err
		}
	}
	return args.Error(0)
}

type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) List(ctx context.Context, db ports.DBTX, kind domain.GatewayKind) ([]domain.ConfigItem, error) {
	args := m.Called(ctx, db, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConfigItem), args.Error(1)
}

func (m *MockConfigRepository) Upsert(ctx context.Context, db ports.DBTX, item domain.ConfigItem) error {
	args := m.Called(ctx, db, item)
	return args.Error(0)
}

func (m *MockConfigRepository) DeleteAll(ctx context.Context, db ports.DBTX, kind domain.GatewayKind) error {
	args := m.Called(ctx, db, kind)
	return args.Error(0)
}

type MockSecretManager struct {
	mock.Mock
}

func (m *MockSecretManager) GetSecret(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *MockSecretManager) PutSecret(ctx context.Context, path, value string) error {
	args := m.Called(ctx, path, value)
	return args.Error(0)
}

func (m *MockSecretManager) DeleteSecret(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type fixture struct {
	db      *MockDatabase
	repo    *MockConfigRepository
	secrets *MockSecretManager
	audit   *MockAuditLogger
	svc     *gatewayconfig.Service
}

func newFixture(ttl time.Duration) *fixture {
	f := &fixture{
		db:      new(MockDatabase),
		repo:    new(MockConfigRepository),
		secrets: new(MockSecretManager),
		audit:   new(MockAuditLogger),
	}
	f.audit.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = gatewayconfig.NewService(f.db, f.repo, f.secrets, f.audit, zap.NewNop(), ttl)
	return f
}

func fastpayItems() []domain.ConfigItem {
	return []domain.ConfigItem{
		{Gateway: domain.GatewayFastPay, Key: "merchant_id", Value: "M-100", IsActive: true},
		{Gateway: domain.GatewayFastPay, Key: "terminal_id", Value: "T-1", IsActive: true},
		{Gateway: domain.GatewayFastPay, Key: "secret_key", Value: "pos-gateway/fastpay/secret_key", IsEncrypted: true, IsActive: true},
	}
}

func TestService_Value_ResolvesAndCaches(t *testing.T) {
	f := newFixture(time.Minute)
	ctx := context.Background()

	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayFastPay).
		Return(fastpayItems(), nil).Once()
	f.secrets.On("GetSecret", mock.Anything, "pos-gateway/fastpay/secret_key").
		Return("s3cret", nil).Once()

	v, err := f.svc.Value(ctx, domain.GatewayFastPay, "merchant_id")
	require.NoError(t, err)
	assert.Equal(t, "M-100", v)

	v, err = f.svc.Value(ctx, domain.GatewayFastPay, "secret_key")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	// Both reads served by one snapshot load.
	f.repo.AssertNumberOfCalls(t, "List", 1)
	f.secrets.AssertNumberOfCalls(t, "GetSecret", 1)
}

func TestService_Value_MissingKeyIsEmpty(t *testing.T) {
	f := newFixture(time.Minute)

	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayFastPay).
		Return([]domain.ConfigItem{}, nil)

	v, err := f.svc.Value(context.Background(), domain.GatewayFastPay, "merchant_id")

	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestService_Value_ExpiredSnapshotReloads(t *testing.T) {
	f := newFixture(10 * time.Millisecond)
	ctx := context.Background()

	items := []domain.ConfigItem{
		{Gateway: domain.GatewayPaymeQR, Key: "cashbox_id", Value: "cb-1", IsActive: true},
	}
	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayPaymeQR).Return(items, nil)

	_, err := f.svc.Value(ctx, domain.GatewayPaymeQR, "cashbox_id")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = f.svc.Value(ctx, domain.GatewayPaymeQR, "cashbox_id")
	require.NoError(t, err)

	f.repo.AssertNumberOfCalls(t, "List", 2)
}

func TestService_Reload_DropsSnapshot(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	items := []domain.ConfigItem{
		{Gateway: domain.GatewayClickPass, Key: "service_id", Value: "svc-1", IsActive: true},
	}
	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayClickPass).Return(items, nil)

	_, err := f.svc.Value(ctx, domain.GatewayClickPass, "service_id")
	require.NoError(t, err)

	f.svc.Reload(domain.GatewayClickPass)

	_, err = f.svc.Value(ctx, domain.GatewayClickPass, "service_id")
	require.NoError(t, err)

	f.repo.AssertNumberOfCalls(t, "List", 2)
}

func TestService_Value_DisabledGateway(t *testing.T) {
	f := newFixture(time.Minute)

	items := []domain.ConfigItem{
		{Gateway: domain.GatewayFastPay, Key: "merchant_id", Value: "M-100", IsActive: false},
		{Gateway: domain.GatewayFastPay, Key: "secret_key", Value: "x", IsActive: false},
	}
	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayFastPay).Return(items, nil)

	_, err := f.svc.Value(context.Background(), domain.GatewayFastPay, "merchant_id")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeConfigInactive, domain.GetErrorCode(err))
}

func TestService_Value_SecretResolutionFailure(t *testing.T) {
	f := newFixture(time.Minute)

	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayFastPay).
		Return(fastpayItems(), nil)
	f.secrets.On("GetSecret", mock.Anything, mock.Anything).
		Return("", assert.AnError)

	_, err := f.svc.Value(context.Background(), domain.GatewayFastPay, "secret_key")

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeConfigLoadFailed, domain.GetErrorCode(err))
}

func TestService_GetAll_MasksEncryptedValues(t *testing.T) {
	f := newFixture(time.Minute)

	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayFastPay).
		Return(fastpayItems(), nil)

	items, err := f.svc.GetAll(context.Background(), domain.GatewayFastPay)

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "M-100", items[0].Value)
	assert.Equal(t, "********", items[2].Value)
}

func TestService_Set_Plaintext(t *testing.T) {
	f := newFixture(time.Minute)

	f.repo.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(item domain.ConfigItem) bool {
		return item.Key == "merchant_id" && item.Value == "M-200" && !item.IsEncrypted
	})).Return(nil)

	err := f.svc.Set(context.Background(), domain.GatewayFastPay, "merchant_id", "M-200", "", false)

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
	f.secrets.AssertNotCalled(t, "PutSecret", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Set_EncryptedStoresPathNotValue(t *testing.T) {
	f := newFixture(time.Minute)

	f.secrets.On("PutSecret", mock.Anything, "pos-gateway/fastpay/secret_key", "hunter2").Return(nil)
	f.repo.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(item domain.ConfigItem) bool {
		return item.Key == "secret_key" &&
			item.Value == "pos-gateway/fastpay/secret_key" &&
			item.IsEncrypted
	})).Return(nil)

	err := f.svc.Set(context.Background(), domain.GatewayFastPay, "secret_key", "hunter2", "", true)

	require.NoError(t, err)
	f.secrets.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestService_Set_EmptyKeyRejected(t *testing.T) {
	f := newFixture(time.Minute)

	err := f.svc.Set(context.Background(), domain.GatewayFastPay, "", "x", "", false)

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeValidationMissingField, domain.GetErrorCode(err))
}

func TestService_Validate_ReportsMissingAndPlaceholder(t *testing.T) {
	f := newFixture(time.Minute)

	items := []domain.ConfigItem{
		{Gateway: domain.GatewayFastPay, Key: "merchant_id", Value: "M-100", IsActive: true},
		{Gateway: domain.GatewayFastPay, Key: "secret_key", Value: domain.PlaceholderValue, IsActive: true},
		// terminal_id missing entirely
	}
	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayFastPay).Return(items, nil)

	result, err := f.svc.Validate(context.Background(), domain.GatewayFastPay)

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"terminal_id"}, result.MissingKeys)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "secret_key")
}

func TestService_Validate_FullyConfigured(t *testing.T) {
	f := newFixture(time.Minute)

	f.repo.On("List", mock.Anything, mock.Anything, domain.GatewayFastPay).
		Return(fastpayItems(), nil)
	f.secrets.On("GetSecret", mock.Anything, mock.Anything).Return("s3cret", nil)

	result, err := f.svc.Validate(context.Background(), domain.GatewayFastPay)

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.MissingKeys)
	assert.Empty(t, result.Errors)
}

func TestService_ResetToDefaults(t *testing.T) {
	f := newFixture(time.Minute)
	ctx := context.Background()

	f.secrets.On("DeleteSecret", mock.Anything, mock.Anything).Return(nil)
	f.db.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("DeleteAll", mock.Anything, mock.Anything, domain.GatewayFastPay).Return(nil)
	f.repo.On("Upsert", mock.Anything, mock.Anything, mock.MatchedBy(func(item domain.ConfigItem) bool {
		return item.Value == domain.PlaceholderValue && !item.IsEncrypted && item.IsActive
	})).Return(nil)

	err := f.svc.ResetToDefaults(ctx, domain.GatewayFastPay)

	require.NoError(t, err)
	f.secrets.AssertNumberOfCalls(t, "DeleteSecret", len(domain.GatewayFastPay.ConfigKeys()))
	f.repo.AssertNumberOfCalls(t, "Upsert", len(domain.GatewayFastPay.ConfigKeys()))
	f.repo.AssertCalled(t, "DeleteAll", mock.Anything, mock.Anything, domain.GatewayFastPay)
}

func TestService_ResetToDefaults_SecretDeleteFailureIsNotFatal(t *testing.T) {
	f := newFixture(time.Minute)

	f.secrets.On("DeleteSecret", mock.Anything, mock.Anything).Return(assert.AnError)
	f.db.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("DeleteAll", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := f.svc.ResetToDefaults(context.Background(), domain.GatewayFastPay)

	require.NoError(t, err)
}
