package businessflow

import (
	"github.com/onsia-realty/onsia-crm/models"
)

// CanMutate is the single capability check consulted by every entry point
// into the ownership ledger. Admin-tier actors may reach into any state.
// Agents are limited to two moves on records they can legitimately touch:
// publishing a record they own, and claiming a public-pool record for
// themselves. Everything else (assigning to another agent, recalls, pool
// withdrawal) requires the admin tier or the transfer-request workflow.
func CanMutate(actor *models.User, customer *models.Customer, target models.OwnerState) bool {
	if actor == nil || customer == nil || !actor.IsActive() {
		return false
	}
	if actor.IsAdminTier() {
		return true
	}

	current := customer.OwnerState()
	switch {
	case current.IsAssigned() && customer.IsOwnedBy(actor.ID):
		// Owners may voluntarily publish their own records.
		return target.IsPublicPool()
	case current.IsPublicPool():
		// Anyone agent-tier may claim a public record for themselves only.
		id, ok := target.AssignedUserID()
		return ok && id == actor.ID && actor.IsAgentTier()
	}
	return false
}

// CanView reports whether the actor may read the record at all. Admin tier
// sees everything; agents see their own records and the public pool.
func CanView(actor *models.User, customer *models.Customer) bool {
	if actor == nil || customer == nil {
		return false
	}
	if actor.IsAdminTier() {
		return true
	}
	return customer.IsOwnedBy(actor.ID) || customer.OwnerStatus == models.OwnerStatusPublicPool
}
