package types

// Role is the capability class carried by an API key. Ingestion endpoints
// accept agent and loader, assignment management and bundle generation
// require configurator, key management requires admin.
type Role string

const (
	RoleAgent        Role = "agent"
	RoleLoader       Role = "loader"
	RoleConfigurator Role = "configurator"
	RoleAdmin        Role = "admin"
	RoleInvalid      Role = "invalid"
)

func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAgent, RoleLoader, RoleConfigurator, RoleAdmin:
		return Role(s)
	default:
		return RoleInvalid
	}
}

// Satisfies reports whether the role grants one of the wanted roles.
// Admin satisfies everything.
func (r Role) Satisfies(wanted ...Role) bool {
	if r == RoleAdmin {
		return true
	}
	for _, w := range wanted {
		if r == w {
			return true
		}
	}
	return false
}

// StatusClass is the derived availability classification for an asset.
type StatusClass string

const (
	StatusUnknown     StatusClass = "unknown"
	StatusAvailable   StatusClass = "available"
	StatusWarning     StatusClass = "warning"
	StatusUnavailable StatusClass = "unavailable"
)

// MethodReachability is the check method whose latest result feeds the
// availability classification. Other methods are stored but do not
// contribute to it.
const MethodReachability = "reachability"

// RootAssetTypeID is the distinguished root of the asset type tree.
// It may never be deleted.
const RootAssetTypeID int64 = 0

// BatchStatus is the top-level outcome of a batch ingestion call.
type BatchStatus string

const (
	BatchSuccess      BatchStatus = "success"
	BatchPartialError BatchStatus = "partial_error"
	BatchError        BatchStatus = "error"
)
