package transfer

import (
	"fmt"
	"math/rand/v2"
)

// GenerateCode produces a short human-readable transfer reference,
// "TX" followed by four digits. Codes are for conversation display,
// not uniqueness; the UUID remains the primary key.
func GenerateCode() string {
	return fmt.Sprintf("TX%04d", rand.IntN(10000))
}
