package auth

import "ridesg/internal/domain"

// JWTVerifier defines the interface for JWT token verification.
// The middleware stays agnostic of how tokens are actually verified,
// which also makes it easy to stub in handler tests.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*domain.SupabaseClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
