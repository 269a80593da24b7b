package domain

// Principal is the authenticated caller attached to a chat request.
type Principal struct {
	UserID   string
	Username string
}
