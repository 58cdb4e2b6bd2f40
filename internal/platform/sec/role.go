// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # User Roles

// UserRole is the role string the remote directory reports for an account.
type UserRole string

const (
	// Site administration
	RoleAdmin UserRole = "admin"

	// Runs a storefront
	RoleVendor UserRole = "vendor"

	// Default role for shoppers
	RoleCustomer UserRole = "customer"
)

// ParseRole normalizes the directory's free-form role string.
//
// Unknown or empty values become [RoleCustomer], the least privileged role.
func ParseRole(raw string) UserRole {
	switch role := UserRole(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleAdmin, RoleVendor, RoleCustomer:
		return role
	default:
		return RoleCustomer
	}
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 30
	case RoleVendor:
		return 20
	case RoleCustomer:
		return 10
	default:
		return 0
	}
}
