package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// NormalizeRole maps anything but "admin" to "user".
func NormalizeRole(role string) string {
	if role == string(RoleAdmin) {
		return string(RoleAdmin)
	}
	return string(RoleUser)
}

type Account struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// Normalize trims the username and fills defaults. It reports false for
// entries without a username.
func (a *Account) Normalize() bool {
	a.Username = strings.TrimSpace(a.Username)
	if a.Username == "" {
		return false
	}
	if a.DisplayName == "" {
		a.DisplayName = a.Username
	}
	a.Role = NormalizeRole(a.Role)
	return true
}

func (a Account) Public() PublicUser {
	return PublicUser{
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Role:        a.Role,
	}
}

type PublicUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

func (u PublicUser) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// AccountChanges is a partial account update; nil fields are left alone.
type AccountChanges struct {
	Password    *string `json:"password,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	Role        *string `json:"role,omitempty"`
}

type Session struct {
	Token    string     `json:"token"`
	User     PublicUser `json:"user"`
	IssuedAt time.Time  `json:"issuedAt"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token,omitempty"`
}
