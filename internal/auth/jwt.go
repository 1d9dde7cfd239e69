// Package auth issues and verifies the HS256 tokens handed out on login.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const maxTokenLen = 4 * 1024

var b64 = base64.RawURLEncoding

// Tokens signs and verifies compact HS256 JWTs carrying a user id subject.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

type claims struct {
	Sub string `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

func (t *Tokens) sign(signingInput string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(signingInput))
	return b64.EncodeToString(mac.Sum(nil))
}

// Issue creates a token for userID valid for ttl.
func (t *Tokens) Issue(userID string, ttl time.Duration) (string, error) {
	header := b64.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	now := t.now()
	body, err := json.Marshal(claims{Sub: userID, Iat: now.Unix(), Exp: now.Add(ttl).Unix()})
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	signingInput := header + "." + b64.EncodeToString(body)
	return signingInput + "." + t.sign(signingInput), nil
}

// Verify checks signature and expiry and returns the user id subject.
func (t *Tokens) Verify(token string) (string, error) {
	if len(token) > maxTokenLen {
		return "", ErrTokenInvalid
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrTokenInvalid
	}

	expected := t.sign(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return "", ErrTokenInvalid
	}

	var header struct {
		Alg string `json:"alg"`
	}
	hb, err := b64.DecodeString(parts[0])
	if err != nil || json.Unmarshal(hb, &header) != nil || header.Alg != "HS256" {
		return "", ErrTokenInvalid
	}

	var c claims
	pb, err := b64.DecodeString(parts[1])
	if err != nil || json.Unmarshal(pb, &c) != nil {
		return "", ErrTokenInvalid
	}
	if c.Sub == "" {
		return "", ErrTokenInvalid
	}
	if c.Exp != 0 && t.now().Unix() >= c.Exp {
		return "", ErrTokenExpired
	}
	return c.Sub, nil
}
