package domain

import "time"

// ConfigItem is one persisted gateway configuration entry. Encrypted values
// hold a secret-manager reference instead of the plaintext; listings mask
// them.
type ConfigItem struct {
	Gateway     GatewayKind `json:"gateway"`
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	IsEncrypted bool        `json:"is_encrypted"`
	IsActive    bool        `json:"is_active"`
	Description string      `json:"description"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// MaskedValue returns the value safe for listings: encrypted values are
// replaced with a fixed mask, plaintext values pass through.
func (c ConfigItem) MaskedValue() string {
	if c.IsEncrypted {
		return "********"
	}
	return c.Value
}

// ConfigValidation is the result of checking a gateway's required keys.
type ConfigValidation struct {
	IsValid     bool     `json:"is_valid"`
	MissingKeys []string `json:"missing_keys"`
	Errors      []string `json:"errors"`
}
