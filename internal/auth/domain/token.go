package domain

// TokenPair is the result of a successful login: a short-lived access token
// and a longer-lived refresh token, both carrying the same identity.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string

	// ExpiresIn and RefreshExpiresIn are lifetimes in whole seconds.
	ExpiresIn        int64
	RefreshExpiresIn int64
}
