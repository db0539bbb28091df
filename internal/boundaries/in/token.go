package in

// TokenVerifier defines the contract for verifying inbound bearer
// tokens. Verify fails closed: any signature error, expiry, or missing
// required action yields false.
type TokenVerifier interface {
	Verify(tokenString, requiredAction string) bool
}
