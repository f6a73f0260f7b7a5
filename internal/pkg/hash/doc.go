// Package hash provides keyed digests for short secrets such as one-time PINs.
//
// Stored values are never the plaintext; callers keep the digest and compare
// candidates through Verify, which runs in constant time.
package hash
