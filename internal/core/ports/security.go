package ports

// SecretSealer seals secrets (trading passwords) before they are stored.
// Implementations must be able to tell sealed values from legacy plaintext.
type SecretSealer interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
	IsSealed(stored string) bool
}
