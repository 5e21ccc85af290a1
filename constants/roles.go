package constants

// Portal roles carried in JWT claims. Each portal mints tokens with its own
// role; middleware guards routes by role.
const (
	RoleCustomer = "customer"
	RoleUsher    = "usher"
	RoleMerchant = "merchant"
)

// JWT claim keys shared between token minting and middleware.
const (
	ClaimSubjectID = "sub"
	ClaimRole      = "role"
	ClaimMobile    = "mobile"
	ClaimEventID   = "event_id"
)
