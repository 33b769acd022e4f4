// Package streamkey builds and checks the signed, time-scoped credentials DJs use
// to publish to the ingest server.
package streamkey

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// Prefix marks the signed key format.
	Prefix = "fwx"

	shortIDLen = 8
	hashLen    = 12
	sep        = "_"
)

var ErrEmptySecret = errors.New("stream key secret is empty")

// Generator signs stream keys with a fixed secret. The output depends only on
// its inputs, so a key can be regenerated or verified anywhere the secret is known.
type Generator struct {
	secret []byte
}

// NewGenerator returns a generator for secret.
func NewGenerator(secret string) (*Generator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Generator{secret: []byte(secret)}, nil
}

// Generate returns fwx_<dj8>_<slot8>_<start base36>_<hmac12>.
func (g *Generator) Generate(djID, slotID string, start, end time.Time) string {
	return strings.Join([]string{
		Prefix,
		shortID(djID),
		shortID(slotID),
		strconv.FormatInt(start.UnixMilli(), 36),
		g.sign(djID, slotID, start, end),
	}, sep)
}

// Verify reports whether key is exactly the key Generate would produce for the inputs.
func (g *Generator) Verify(key, djID, slotID string, start, end time.Time) bool {
	expected := g.Generate(djID, slotID, start, end)
	return hmac.Equal([]byte(key), []byte(expected))
}

func (g *Generator) sign(djID, slotID string, start, end time.Time) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(djID + "|" + slotID + "|" +
		strconv.FormatInt(start.UnixMilli(), 10) + "|" +
		strconv.FormatInt(end.UnixMilli(), 10)))
	return hex.EncodeToString(mac.Sum(nil))[:hashLen]
}

// shortID keeps the first shortIDLen ASCII letters and digits of id, so no
// separator from the id can leak into the key.
func shortID(id string) string {
	var b strings.Builder
	for i := 0; i < len(id) && b.Len() < shortIDLen; i++ {
		c := id[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsSigned reports whether key looks like a key from this package.
func IsSigned(key string) bool {
	parts := strings.Split(key, sep)
	return len(parts) == 5 && parts[0] == Prefix && len(parts[4]) == hashLen
}

// Window is the period around a booking during which its key may be used.
type Window struct {
	Reveal time.Duration // before start
	Grace  time.Duration // after end
}

// Opens returns the first instant the key is usable.
func (w Window) Opens(start time.Time) time.Time {
	return start.Add(-w.Reveal)
}

// Closes returns the last instant the key is usable.
func (w Window) Closes(end time.Time) time.Time {
	return end.Add(w.Grace)
}

// Contains reports whether now lies in [start-Reveal, end+Grace], bounds included.
func (w Window) Contains(now, start, end time.Time) bool {
	return !now.Before(w.Opens(start)) && !now.After(w.Closes(end))
}

// Valid is the full key validity rule: the key must be active and now inside the window.
func (w Window) Valid(keyActive bool, now, start, end time.Time) bool {
	return keyActive && w.Contains(now, start, end)
}
