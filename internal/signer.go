package internal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"gitee.com/golang-module/dongle"
)

// Authcode computes the request/callback authentication code: HMAC-SHA256
// over the UTF-8 bytes of message, keyed with the merchant private key,
// rendered as 64 uppercase hex characters. Deterministic, no side effects;
// callers reject absent credentials before signing.
func Authcode(privateKey, message string) string {
	// dongle passes empty input through unhashed, so the empty message
	// is digested directly.
	if message == "" {
		mac := hmac.New(sha256.New, []byte(privateKey))
		return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
	}
	digest := dongle.Encrypt.FromString(message).ByHmacSha256(privateKey).ToHexString()
	return strings.ToUpper(digest)
}

// signingString joins canonical signing fields with the pipe separator.
// Field order is a protocol contract with the gateway and is fixed per
// operation; it is never configurable.
func signingString(parts ...string) string {
	return strings.Join(parts, "|")
}
