package domain

// Actor identifies the authenticated user performing a change. Tokens
// are issued by the external auth service; this is the claim subset
// the platform records.
type Actor struct {
	UserID     string
	Email      string
	Name       string
	Role       string
	SuperAdmin bool
}
