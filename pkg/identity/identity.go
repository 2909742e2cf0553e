// Package identity provides email and organization-name normalization with
// SHA-256 hashing. Normalized identifiers are hashed so that semantically
// equivalent emails (e.g. Gmail +aliases and dots) map to the same hash,
// preventing duplicate accounts, and so that an NGO and its volunteers link
// on the same organization key regardless of casing or spacing.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeEmail returns a canonical form of an email address.
//
// For Gmail addresses (@gmail.com and @googlemail.com):
//   - Strips the "+suffix" from the local part (user+tag -> user)
//   - Removes all dots from the local part (u.s.e.r -> user)
//   - Normalizes @googlemail.com to @gmail.com
//
// For all addresses:
//   - Lowercases the entire address
//   - Trims whitespace
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email // malformed, return as-is
	}

	local := email[:at]
	domain := email[at+1:]

	if domain == "googlemail.com" {
		domain = "gmail.com"
	}

	if domain == "gmail.com" {
		if plus := strings.Index(local, "+"); plus >= 0 {
			local = local[:plus]
		}
		local = strings.ReplaceAll(local, ".", "")
	}

	return local + "@" + domain
}

// NormalizeOrg canonicalizes an organization name: lowercased, interior
// whitespace collapsed to single spaces, trimmed. "Food  Bank " and
// "food bank" produce the same form.
func NormalizeOrg(org string) string {
	return strings.Join(strings.Fields(strings.ToLower(org)), " ")
}

// HashIdentifier returns the hex-encoded SHA-256 hash of the given string.
// Use this on already-normalized values.
func HashIdentifier(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}

// EmailHash normalizes the email and returns its SHA-256 hash.
func EmailHash(email string) string {
	return HashIdentifier(NormalizeEmail(email))
}

// OrgKey normalizes the organization name and returns its SHA-256 hash.
// An empty organization yields an empty key (no linking).
func OrgKey(org string) string {
	n := NormalizeOrg(org)
	if n == "" {
		return ""
	}
	return HashIdentifier(n)
}
