package domain

import (
	"context"
	"fmt"
	"strings"
)

// GatewayKind identifies one of the supported mobile-wallet gateways.
type GatewayKind string

const (
	GatewayFastPay   GatewayKind = "fastpay"   // bank fast-payment (OTP)
	GatewayClickPass GatewayKind = "clickpass" // card-network QR
	GatewayPaymeQR   GatewayKind = "paymeqr"   // wallet QR receipt
)

// ParseGatewayKind parses a gateway identifier from an inbound request.
func ParseGatewayKind(s string) (GatewayKind, error) {
	switch GatewayKind(strings.ToLower(s)) {
	case GatewayFastPay:
		return GatewayFastPay, nil
	case GatewayClickPass:
		return GatewayClickPass, nil
	case GatewayPaymeQR:
		return GatewayPaymeQR, nil
	default:
		return "", NewDomainError(ErrorCodeValidationFailed,
			fmt.Sprintf("unknown gateway %q", s))
	}
}

// PlaceholderValue is the sentinel stored in freshly-seeded configuration
// rows. A key still holding it means the gateway was never configured; loading
// credentials fails fast rather than letting a broken live call through.
const PlaceholderValue = "CHANGE_ME"

// ConfigKeys returns the required configuration keys for a gateway. The sets
// differ per gateway, matching each provider's integration guide.
func (k GatewayKind) ConfigKeys() []string {
	switch k {
	case GatewayFastPay:
		return []string{"merchant_id", "terminal_id", "secret_key"}
	case GatewayClickPass:
		return []string{"service_id", "merchant_id", "merchant_user_id", "secret_key"}
	case GatewayPaymeQR:
		return []string{"cashbox_id", "key_id", "key"}
	default:
		return nil
	}
}

// CredentialGetter fetches one configuration value for a gateway, with
// encrypted values already resolved. Implemented by the config store service.
type CredentialGetter interface {
	Value(ctx context.Context, kind GatewayKind, key string) (string, error)
}

func requireValue(ctx context.Context, g CredentialGetter, kind GatewayKind, key string) (string, error) {
	v, err := g.Value(ctx, kind, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", NewDomainError(ErrorCodeConfigMissingKey,
			fmt.Sprintf("%s: required key %q is not set", kind, key))
	}
	if v == PlaceholderValue {
		return "", NewDomainError(ErrorCodeConfigPlaceholder,
			fmt.Sprintf("%s: key %q still holds the placeholder value", kind, key))
	}
	return v, nil
}

// FastPayCredentials carries the bank fast-payment gateway credentials.
type FastPayCredentials struct {
	MerchantID string
	TerminalID string
	SecretKey  string
}

// LoadFastPayCredentials loads and validates FastPay credentials, failing
// fast on any missing or placeholder key.
func LoadFastPayCredentials(ctx context.Context, g CredentialGetter) (*FastPayCredentials, error) {
	var c FastPayCredentials
	var err error
	if c.MerchantID, err = requireValue(ctx, g, GatewayFastPay, "merchant_id"); err != nil {
		return nil, err
	}
	if c.TerminalID, err = requireValue(ctx, g, GatewayFastPay, "terminal_id"); err != nil {
		return nil, err
	}
	if c.SecretKey, err = requireValue(ctx, g, GatewayFastPay, "secret_key"); err != nil {
		return nil, err
	}
	return &c, nil
}

// ClickPassCredentials carries the card-network QR gateway credentials.
type ClickPassCredentials struct {
	ServiceID      string
	MerchantID     string
	MerchantUserID string
	SecretKey      string
}

// LoadClickPassCredentials loads and validates ClickPass credentials.
func LoadClickPassCredentials(ctx context.Context, g CredentialGetter) (*ClickPassCredentials, error) {
	var c ClickPassCredentials
	var err error
	if c.ServiceID, err = requireValue(ctx, g, GatewayClickPass, "service_id"); err != nil {
		return nil, err
	}
	if c.MerchantID, err = requireValue(ctx, g, GatewayClickPass, "merchant_id"); err != nil {
		return nil, err
	}
	if c.MerchantUserID, err = requireValue(ctx, g, GatewayClickPass, "merchant_user_id"); err != nil {
		return nil, err
	}
	if c.SecretKey, err = requireValue(ctx, g, GatewayClickPass, "secret_key"); err != nil {
		return nil, err
	}
	return &c, nil
}

// PaymeQRCredentials carries the wallet QR-receipt gateway credentials.
type PaymeQRCredentials struct {
	CashboxID string
	KeyID     string
	Key       string
}

// LoadPaymeQRCredentials loads and validates PaymeQR credentials.
func LoadPaymeQRCredentials(ctx context.Context, g CredentialGetter) (*PaymeQRCredentials, error) {
	var c PaymeQRCredentials
	var err error
	if c.CashboxID, err = requireValue(ctx, g, GatewayPaymeQR, "cashbox_id"); err != nil {
		return nil, err
	}
	if c.KeyID, err = requireValue(ctx, g, GatewayPaymeQR, "key_id"); err != nil {
		return nil, err
	}
	if c.Key, err = requireValue(ctx, g, GatewayPaymeQR, "key"); err != nil {
		return nil, err
	}
	return &c, nil
}
