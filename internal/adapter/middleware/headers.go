package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"p2p-lending/pkg/id"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	// HeaderActorID identifies the caller: borrower, lender, approver or a service account.
	HeaderActorID = "Ax-Actor-Id"
)

var reUUID = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)

func validRequestID(v string) bool {
	return reUUID.MatchString(v) || id.Valid(v)
}

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

// buildKey scopes a request id to the route and the caller, so two actors
// reusing the same request id never collide.
func buildKey(method, route, actor, requestID string) string {
	return "idemp:" + strings.ToLower(method) + ":" + route + ":" + actor + ":" + requestID
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with
// an explicit zone. Naive local timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}
