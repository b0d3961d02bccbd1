package fastpay

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/uzpos/payment-service/pkg/timeutil"
)

// timestampLayout is the signing timestamp format FastPay requires. The
// gateway validates it against Tashkent time (UTC+5), not the host zone.
const timestampLayout = "20060102150405"

// Sign computes the FastPay auth header for one call.
//
// digest = SHA-256(timestamp + secret), header = principal:digest:timestamp.
// The header is regenerated per call; timestamps are only valid for a short
// window on the gateway side.
func Sign(principal, secret string) (header, timestamp, digest string) {
	timestamp = timeutil.NowTashkent().Format(timestampLayout)
	sum := sha256.Sum256([]byte(timestamp + secret))
	digest = hex.EncodeToString(sum[:])
	header = principal + ":" + digest + ":" + timestamp
	return header, timestamp, digest
}
