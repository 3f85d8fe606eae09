package auth

// SessionCookie is the name of the session cookie issued on login and
// cleared on logout.
const SessionCookie = "connect.sid"

// Session is a server-side login session, persisted so it survives
// restarts. Expired sessions are treated as absent on lookup.
type Session struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"` // Unix milliseconds
	ExpiresAt int64  `json:"expiresAt"` // Unix milliseconds
}
