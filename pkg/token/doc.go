// Package token provides secret generation and digest utilities.
//
// Secrets are produced from crypto/rand and Base64 RawURL encoded for
// safe transport in headers and URLs. Stored digests are SHA-256; the
// secret itself carries enough entropy (32 bytes by default) that a
// fast digest is sufficient and keeps verification cheap on the hot
// path. Comparison against a stored digest is constant time.
package token
