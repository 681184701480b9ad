package crypto

import "golang.org/x/crypto/bcrypt"

// DefaultCost is the bcrypt work factor used when no cost is configured.
// Kept as a named constant so the factor can be tuned without a format
// change: the cost is embedded in every hash alongside its salt.
const DefaultCost = bcrypt.DefaultCost

// HashPassword hashes plaintext using bcrypt with the given cost. Costs
// outside bcrypt's supported range fall back to DefaultCost.
func HashPassword(plain string, cost int) ([]byte, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(plain), cost)
}

// ComparePassword compares plaintext to a hashed secret. A malformed or
// foreign-format hash reports as a mismatch, never a panic.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}
