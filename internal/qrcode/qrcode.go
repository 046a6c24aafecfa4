// Package qrcode renders registration confirmations as QR codes. The payload
// is sealed with AES-GCM so a code can be checked at the door without trusting
// its contents.
package qrcode

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"

	"ms-charity/internal/models"
)

var ErrInvalidCode = errors.New("invalid confirmation code")

// Confirmation is what a code carries.
type Confirmation struct {
	RegistrationID  int64  `json:"registrationId"`
	EventID         int64  `json:"eventId"`
	NumberOfTickets int    `json:"numberOfTickets"`
	ContactEmail    string `json:"contactEmail"`
}

type Generator struct {
	aead cipher.AEAD
	size int
}

func NewGenerator(secret string) (*Generator, error) {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	block, err := aes.NewCipher(hashed[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Generator{aead: aead, size: 256}, nil
}

// Code returns the sealed text a QR code for reg encodes.
func (g *Generator) Code(reg models.Registration) (string, error) {
	data, err := json.Marshal(Confirmation{
		RegistrationID:  reg.RegistrationID,
		EventID:         reg.EventID,
		NumberOfTickets: reg.NumberOfTickets,
		ContactEmail:    reg.ContactEmail,
	})
	if err != nil {
		return "", err
	}

	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := g.aead.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// PNG renders the confirmation QR code for reg.
func (g *Generator) PNG(reg models.Registration) ([]byte, error) {
	code, err := g.Code(reg)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(code, qrcode.Medium, g.size)
}

// Open reverses Code. Tampered or foreign codes fail with ErrInvalidCode.
func (g *Generator) Open(code string) (*Confirmation, error) {
	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil || len(raw) < g.aead.NonceSize() {
		return nil, ErrInvalidCode
	}
	nonce, sealed := raw[:g.aead.NonceSize()], raw[g.aead.NonceSize():]
	data, err := g.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrInvalidCode
	}

	var c Confirmation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return &c, nil
}
