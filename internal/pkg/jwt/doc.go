// Package jwt verifies identity sessions issued by the identity provider.
//
// It includes:
//   - Claims carrying the identity id (sub), email and app metadata (role).
//   - A symmetric HS512 implementation for minting and verifying sessions.
//   - Context helpers for storing and retrieving the authenticated session.
package jwt
