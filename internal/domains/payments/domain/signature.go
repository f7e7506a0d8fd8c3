package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature rejects a webhook whose signature header does not
// authenticate the payload. The endpoint is otherwise unauthenticated, so
// verification fails closed.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// DefaultTolerance bounds how stale a signed timestamp may be before the
// event is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// VerifySignature checks a provider signature header of the form
// "t=<unix>,v1=<hex hmac>" against the raw payload. The signed string is
// "<unix>.<payload>" keyed with the shared webhook secret. Multiple v1
// entries are accepted to allow secret rotation.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	issued := time.Unix(timestamp, 0)
	if now.Sub(issued) > tolerance || issued.Sub(now) > tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}
	expected := Sign(payload, secret, timestamp)
	for _, signature := range signatures {
		provided, err := hex.DecodeString(signature)
		if err != nil {
			continue
		}
		if hmac.Equal(provided, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the raw HMAC for a payload at a timestamp. Exposed for the
// provider client simulator and tests.
func Sign(payload []byte, secret string, timestamp int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeader renders the header a provider would send for payload.
func SignatureHeader(payload []byte, secret string, now time.Time) string {
	timestamp := now.Unix()
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(Sign(payload, secret, timestamp)))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		signatures []string
		seenTS     bool
	)
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
			}
			timestamp = parsed
			seenTS = true
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if !seenTS || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: missing timestamp or signature", ErrInvalidSignature)
	}
	return timestamp, signatures, nil
}
