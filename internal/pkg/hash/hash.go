package hash

// Hash produces and verifies digests of sensitive strings.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
