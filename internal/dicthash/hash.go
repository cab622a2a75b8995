// Package dicthash provides the two deterministic hashes the spec
// requires: the edge key of §4.2 and the change-report addressing hash
// of §4.5.4/§9.
//
// Grounded on the teacher's apoc/hashing package (which exposes MD5,
// SHA256, FNV and friends as general-purpose procedures) and on
// pkg/storage/schema.go's NewCompositeKey, which already hashes a
// delimited, typed join of values for composite constraint keys — the
// same shape of problem as hashing a (subject, predicate, object) triple.
package dicthash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EdgeKey computes the deterministic edge key for a (src, predicate, dst)
// triple: sha256(src ‖ 0x00 ‖ pred ‖ 0x00 ‖ dst), hex-encoded, per §4.2.
// The result is a pure function of the triple — required for concurrent
// callers to agree on the same key without coordination (§8.1 invariant 2).
func EdgeKey(src, predicate, dst string) string {
	buf := make([]byte, 0, len(src)+len(predicate)+len(dst)+2)
	buf = append(buf, src...)
	buf = append(buf, 0x00)
	buf = append(buf, predicate...)
	buf = append(buf, 0x00)
	buf = append(buf, dst...)
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// ChangePath builds the report-addressing path used as input to
// ChangeHash: field names and array indices joined by "/", per the
// design note in §9 ("path of field names and array indices joined by a
// separator, hashed for report keys").
func ChangePath(segments ...string) string {
	return strings.Join(segments, "/")
}

// ChangeHash hashes a change-report path so that the same concrete value
// occurring twice at different positions in a value tree produces
// different report keys (§4.5.4).
func ChangeHash(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])[:16]
}
