package clinic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const rolePrefix = "ROLE_"

// Column widths of users.username and roles.role; every backend's schema
// must allow at least this many characters.
const (
	MaxUsernameLength = 50
	MaxRoleLength     = 50
)

// SaveUser validates and stores u. Role names gain the ROLE_ prefix when it is
// missing and a plain-text password is replaced by its bcrypt hash. u is only
// updated with the stored roles and hash once the write has succeeded.
func (s *Service) SaveUser(ctx context.Context, u *User) error {
	if strings.TrimSpace(u.Username) == "" {
		return &ConstraintViolationError{Entity: "user", Reason: "username is required"}
	}
	if len(u.Username) > MaxUsernameLength {
		return &ConstraintViolationError{Entity: "user", Reason: fmt.Sprintf("username is longer than %d characters", MaxUsernameLength)}
	}
	roles := normalizeRoles(u.Roles)
	if len(roles) == 0 {
		return &ConstraintViolationError{Entity: "user", Reason: "user must have at least one role"}
	}
	for _, r := range roles {
		if len(r) > MaxRoleLength {
			return &ConstraintViolationError{Entity: "user", Reason: fmt.Sprintf("role %s is longer than %d characters", r, MaxRoleLength)}
		}
	}

	password := u.Password
	if !isPasswordHash(password) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		password = string(hash)
	}

	stored := &User{Username: u.Username, Password: password, Enabled: u.Enabled, Roles: roles}
	err := s.write(ctx, "SaveUser", func(ctx context.Context) error {
		return s.backend.Users().Save(ctx, stored)
	})
	if err != nil {
		return err
	}
	u.Password = stored.Password
	u.Roles = stored.Roles
	return nil
}

func (s *Service) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	return findOne(ctx, s, "FindUserByUsername", func(ctx context.Context) (*User, error) {
		return s.backend.Users().FindByUsername(ctx, username)
	})
}

// CheckPassword reports whether plain matches the user's stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !strings.HasPrefix(r, rolePrefix) {
			r = rolePrefix + r
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func isPasswordHash(p string) bool {
	if len(p) != 60 {
		return false
	}
	_, err := bcrypt.Cost([]byte(p))
	return err == nil
}
