package hash

// Hash digests a secret and verifies candidates against a stored digest.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
