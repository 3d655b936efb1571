package client

import "time"

// DefaultSessionHours caps a session that was not remembered.
const DefaultSessionHours = 10

// Session is the caller's stored credential. A zero Expiry means the session
// lives as long as the token itself.
type Session struct {
	Token       string
	Expiry      time.Time
	Role        Role
	Designation string
	UserID      string
}

// Valid reports whether the session still carries a usable token at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.Expiry.IsZero() || now.Before(s.Expiry)
}

// Clear discards the stored credential.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	*s = Session{}
}

func newSession(res *authResponse, remember bool, now time.Time, hours int) *Session {
	s := &Session{
		Token:       res.Token,
		Role:        res.User.Role,
		Designation: res.User.Designation,
		UserID:      res.User.ID,
	}
	if !remember {
		s.Expiry = now.Add(time.Duration(hours) * time.Hour)
	}
	return s
}
