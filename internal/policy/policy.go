// Package policy holds the per-role visibility and mutation rules.
package policy

import "water-delivery-backend/internal/model"

// CanCreate reports whether the principal may place orders. Admin
// accounts cannot: orders always belong to the customer placing them.
func CanCreate(p model.Principal) bool {
	return !p.IsAdmin()
}

// CanMutate reports whether the principal may update or delete the
// order: admins always, everyone else only their own.
func CanMutate(p model.Principal, o *model.Order) bool {
	return p.IsAdmin() || o.CustomerID == p.UserID
}

// ListTarget resolves whose orders a list request covers. An empty
// target means all customers (admin only). The second return value is
// false when the principal may not see the requested user's orders.
func ListTarget(p model.Principal, requested string) (string, bool) {
	if p.IsAdmin() {
		return requested, true
	}
	if requested == "" || requested == p.UserID {
		return p.UserID, true
	}
	return "", false
}
