package authz

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// AuthUser is the identity carried by a verified session.
type AuthUser struct {
	ID    int64  `json:"-"`
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewAuthUser builds an AuthUser whose UID is the decimal user id.
func NewAuthUser(id int64, email, role string) *AuthUser {
	return &AuthUser{
		ID:    id,
		UID:   strconv.FormatInt(id, 10),
		Email: email,
		Role:  strings.ToLower(role),
	}
}

// Actor is the value recorded in createdBy/updatedBy audit columns.
func (u *AuthUser) Actor() string {
	if u == nil {
		return ""
	}
	if u.Email != "" {
		return u.Email
	}
	return u.UID
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

func IsAdmin(user *AuthUser) bool {
	return user != nil && user.Role == RoleAdmin
}

// RequireRole returns ErrUnauthenticated when ctx holds no user and
// ErrForbidden when the user's role is not one of roles.
func RequireRole(ctx context.Context, roles ...string) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	for _, role := range roles {
		if strings.EqualFold(user.Role, role) {
			return nil
		}
	}
	return ErrForbidden
}
