package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDefinition = "postsys/definition/v1"
	DomainTrace      = "postsys/trace/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DefinitionHash computes a content hash of a definition.
// Two definitions with equal alphabets, rules (in order) and initial string
// hash identically regardless of how their sets were built.
func DefinitionHash(d *Definition) (string, error) {
	canonical, err := MarshalCanonical(d.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("DefinitionHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDefinition, canonical), nil
}

// TraceHash computes a content hash of an ordered trace.
// Equal hashes mean two runs applied the same rules to the same strings.
func TraceHash(records []TraceRecord) (string, error) {
	list := make([]any, len(records))
	for i, r := range records {
		list[i] = r.CanonicalMap()
	}
	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
