package relief

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimTokenPrefix prefixes tokens minted by the self-claim path
const ClaimTokenPrefix = "CLAIM-"

const nonceSize = 8

// TokenGenerator mints redemption tokens.
// Tokens are not guessable; uniqueness is enforced by the store.
type TokenGenerator interface {
	// IssueToken derives a token for an agency-issued voucher
	IssueToken(zoneID, beneficiaryID uuid.UUID, amount decimal.Decimal) (string, error)
	// ClaimToken mints a token for a self-claimed voucher
	ClaimToken() (string, error)
}

// CryptoTokenGenerator draws its entropy from crypto/rand
type CryptoTokenGenerator struct {
	entropy io.Reader
	now     func() time.Time
}

// NewCryptoTokenGenerator creates a generator backed by crypto/rand
func NewCryptoTokenGenerator() *CryptoTokenGenerator {
	return &CryptoTokenGenerator{
		entropy: rand.Reader,
		now:     time.Now,
	}
}

type tokenPayload struct {
	Zone        string `json:"z"`
	Beneficiary string `json:"b"`
	Amount      string `json:"a"`
	Nonce       string `json:"n"`
}

// IssueToken returns the hex SHA-256 of the voucher coordinates plus a random nonce
func (g *CryptoTokenGenerator) IssueToken(zoneID, beneficiaryID uuid.UUID, amount decimal.Decimal) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(g.entropy, nonce); err != nil {
		return "", fmt.Errorf("failed to read token nonce: %w", err)
	}

	payload, err := json.Marshal(tokenPayload{
		Zone:        zoneID.String(),
		Beneficiary: beneficiaryID.String(),
		Amount:      amount.String(),
		Nonce:       hex.EncodeToString(nonce),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token payload: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// ClaimToken returns CLAIM-<random base36>-<unix millis>
func (g *CryptoTokenGenerator) ClaimToken() (string, error) {
	buf := make([]byte, nonceSize)
	if _, err := io.ReadFull(g.entropy, buf); err != nil {
		return "", fmt.Errorf("failed to read token entropy: %w", err)
	}

	random := strings.ToUpper(strconv.FormatUint(binary.BigEndian.Uint64(buf), 36))
	return fmt.Sprintf("%s%s-%d", ClaimTokenPrefix, random, g.now().UnixMilli()), nil
}

var _ TokenGenerator = (*CryptoTokenGenerator)(nil)
