// Package auth carries the typed identity handed over by the authentication
// service that sits in front of this API. Verification of credentials happens
// there; the core trusts the principal it is given.
package auth

import (
	"context"
	"errors"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

var ErrNoPrincipal = errors.New("no principal in context")

type Principal struct {
	Role Role
	ID   string
}

func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }
func (p Principal) IsSeller() bool   { return p.Role == RoleSeller }

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok {
		return Principal{}, ErrNoPrincipal
	}
	return p, nil
}
