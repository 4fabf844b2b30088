package constants

const (
	ViewQuota       = "view_quota"
	BookCottage     = "book_cottage"
	ManageBookings  = "manage_bookings"
	DecideBookings  = "decide_bookings"
	RevokeBookings  = "revoke_bookings"
	ManageOwners    = "manage_owners"
	AdjustQuotas    = "adjust_quotas"
	ResetQuotas     = "reset_quotas"
	ViewLedgerAudit = "view_ledger_audit"
	ViewInventory   = "view_inventory"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewQuota:       {Owner},
	BookCottage:     {Owner},
	ManageBookings:  {Owner},
	DecideBookings:  {Admin},
	RevokeBookings:  {Admin},
	ManageOwners:    {Admin},
	AdjustQuotas:    {Admin},
	ResetQuotas:     {Admin},
	ViewLedgerAudit: {Admin},
	ViewInventory:   {Admin},
}

func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
