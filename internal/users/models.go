package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
)

type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// CanSell reports whether the role may list assets.
func (r Role) CanSell() bool { return r == RoleSeller || r == RoleAdmin }

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", errs.ErrInvalid, s)
	}
	return r, nil
}

type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Identity is what the identity provider hands us for a signed-in user.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
}

func (i Identity) Validate() error {
	if strings.TrimSpace(i.ExternalID) == "" {
		return fmt.Errorf("%w: identity subject is required", errs.ErrInvalid)
	}
	if strings.TrimSpace(i.Email) == "" {
		return fmt.Errorf("%w: identity email is required", errs.ErrInvalid)
	}
	return nil
}

var ErrUserNotFound = fmt.Errorf("user %w", errs.ErrNotFound)
