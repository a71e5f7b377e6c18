package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hasher computes a tamper-evidence checksum for a record.
type Hasher interface {
	Hash(record Record) string
}

type sha256Hasher struct{}

// NewSHA256Hasher hashes the identifying fields of a record with SHA-256.
func NewSHA256Hasher() Hasher {
	return sha256Hasher{}
}

func (sha256Hasher) Hash(r Record) string {
	data := fmt.Sprintf(
		"%s|%s|%d|%d|%d|%s|%s|%s|%s|%d",
		r.ID,
		r.Kind,
		r.PrincipalID,
		r.CurrentTenantID,
		r.AttemptedTenantID,
		r.Action,
		r.ResourceKind,
		r.ResourceID,
		r.Decision,
		r.CreatedAt.UnixMilli(),
	)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the record's checksum matches its content.
func Verify(h Hasher, r Record) bool {
	return r.Checksum != "" && h.Hash(r) == r.Checksum
}
