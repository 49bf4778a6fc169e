package receipt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"ms-backoffice/internal/apperr"

	"github.com/skip2/go-qrcode"
)

const (
	KindPayment = "payment"
	KindBill    = "bill"
)

// Payload is what a printed QR code carries.
type Payload struct {
	Kind      string `json:"kind"`
	ReceiptNo string `json:"receipt_no"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
}

// Codec seals payloads with AES-256-GCM under a key derived from the configured secret.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(secret string) (*Codec, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Seal returns base64url(nonce || ciphertext).
func (c *Codec) Seal(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Open(token string) (Payload, error) {
	invalid := apperr.Invalid("code", "receipt code is not valid")

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < c.aead.NonceSize() {
		return Payload{}, invalid
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	data, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Payload{}, invalid
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, invalid
	}
	return p, nil
}

// QRCode seals p and encodes the token as a 256px PNG.
func (c *Codec) QRCode(p Payload) ([]byte, error) {
	token, err := c.Seal(p)
	if err != nil {
		return nil, fmt.Errorf("seal receipt payload: %w", err)
	}
	return qrcode.Encode(token, qrcode.Medium, 256)
}
