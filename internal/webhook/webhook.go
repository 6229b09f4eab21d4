// Package webhook verifies inbound order notifications from the commerce
// site. Verification is two gates run in order: a transport gate on the
// caller's IP and X-Source header, then an HMAC signature check over the
// raw request body. Only after both pass is the payload decoded.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ActionOrderCompleted is the only notification action that mutates tickets.
const ActionOrderCompleted = "woocommerce_order_status_completed"

// Notification is the decoded webhook payload. Arg carries the commerce
// order id for order-completed notifications.
type Notification struct {
	Action string `json:"action"`
	Arg    string `json:"arg"`
}

// UnmarshalJSON accepts arg as either a JSON string or a JSON number; the
// commerce site sends the order id as a bare number.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action string          `json:"action"`
		Arg    json.RawMessage `json:"arg"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Action = raw.Action
	n.Arg = ""
	if len(raw.Arg) == 0 || string(raw.Arg) == "null" {
		return nil
	}
	if raw.Arg[0] == '"' {
		return json.Unmarshal(raw.Arg, &n.Arg)
	}
	var num json.Number
	if err := json.Unmarshal(raw.Arg, &num); err != nil {
		return fmt.Errorf("arg is neither string nor number: %w", err)
	}
	n.Arg = num.String()
	return nil
}

// Verifier checks the transport gate and the body signature.
type Verifier struct {
	secret        []byte
	trustedIP     string
	trustedSource string
}

func NewVerifier(secret, trustedIP, trustedSource string) *Verifier {
	return &Verifier{
		secret:        []byte(secret),
		trustedIP:     trustedIP,
		trustedSource: trustedSource,
	}
}

// AllowOrigin reports whether the caller passes the transport gate. It is
// checked before the signature so untrusted callers learn nothing about
// signature validity.
func (v *Verifier) AllowOrigin(remoteIP, source string) bool {
	return remoteIP == v.trustedIP && source == v.trustedSource
}

// VerifySignature checks the base64 HMAC-SHA256 of the raw body against the
// presented signature in constant time.
func (v *Verifier) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// Decode parses a verified body into a Notification.
func Decode(body []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return Notification{}, fmt.Errorf("webhook: decode payload: %w", err)
	}
	return n, nil
}
