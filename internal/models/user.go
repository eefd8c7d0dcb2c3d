package models

import "time"

// User is the stored document from the "users" collection. The schema
// carries duplicated name/email variants written by different client
// versions; resolution order is fixed by the accessors below.
type User struct {
	ID        string     `json:"id"`
	UserName  string     `json:"userName,omitempty"`
	FullName  string     `json:"fullName,omitempty"`
	Email     string     `json:"email,omitempty"`
	UserEmail string     `json:"userEmail,omitempty"`
	Number    string     `json:"number,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	DOB       *time.Time `json:"dob,omitempty"`
	Address   string     `json:"address,omitempty"`
}

// DisplayName prefers userName over fullName, falling back to "Guest".
func (u *User) DisplayName() string {
	if u == nil {
		return FallbackGuestName
	}
	if u.UserName != "" {
		return u.UserName
	}
	if u.FullName != "" {
		return u.FullName
	}
	return FallbackGuestName
}

// ContactEmail prefers email over userEmail.
func (u *User) ContactEmail() string {
	if u == nil {
		return ""
	}
	if u.Email != "" {
		return u.Email
	}
	return u.UserEmail
}

// Phone returns the stored number, empty when the user is unknown.
func (u *User) Phone() string {
	if u == nil {
		return ""
	}
	return u.Number
}
