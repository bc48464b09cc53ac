package market

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

// Signer produces KuCoin API-key-version-2 request headers.
// Keys are held as []byte so they can be wiped from memory on shutdown.
type Signer struct {
	key        []byte
	secret     []byte
	passphrase []byte
}

func NewSigner(key, secret, passphrase string) *Signer {
	return &Signer{
		key:        []byte(key),
		secret:     []byte(secret),
		passphrase: []byte(passphrase),
	}
}

// Wipe clears the credentials from memory.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	wipe(s.key)
	wipe(s.secret)
	wipe(s.passphrase)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Headers signs one request. endpoint must include the query string,
// exactly as sent on the wire; KuCoin verifies the signature over
// timestamp + method + endpoint + body. Version 2 additionally requires
// the passphrase itself to be HMAC-signed.
func (s *Signer) Headers(method, endpoint, body string) map[string]string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	signature := s.sign(timestamp + method + endpoint + body)
	passphrase := s.sign(string(s.passphrase))

	return map[string]string{
		"KC-API-KEY":         string(s.key),
		"KC-API-SIGN":        signature,
		"KC-API-TIMESTAMP":   timestamp,
		"KC-API-PASSPHRASE":  passphrase,
		"KC-API-KEY-VERSION": "2",
		"Content-Type":       "application/json",
	}
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
