package domain

// Principal is the verified identity attached to an authenticated request.
// It carries only what handlers need for authorization and display; the
// full user record stays in the store.
type Principal struct {
	UserID      string
	Email       string
	Role        Role
	DisplayName string
}
