package catalog

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	barcodePrefix  = "ACC-"
	barcodeBodyLen = 9
)

// GenerateBarcode returns "ACC-" followed by nine upper-case base-36
// characters. Uniqueness is probabilistic; nothing checks for collisions.
func GenerateBarcode() string {
	id := uuid.New()
	body := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(body) < barcodeBodyLen {
		body = strings.Repeat("0", barcodeBodyLen-len(body)) + body
	}
	return barcodePrefix + body[len(body)-barcodeBodyLen:]
}
