package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DedupHash identifies a transaction for duplicate detection. It hashes
// date, amount in cents and the lowercased trimmed description.
func DedupHash(date Date, amount decimal.Decimal, description string) string {
	var b strings.Builder
	b.WriteString(date.String())
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(ToCents(amount), 10))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(description)))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
