package user

// Operation names a gated action of the API
type Operation string

const (
	OpLostCreate   Operation = "lost.create"
	OpLostReadOwn  Operation = "lost.read_own"
	OpLostUpdate   Operation = "lost.update"
	OpLostDelete   Operation = "lost.delete"
	OpFoundCreate  Operation = "found.create"
	OpFoundUpdate  Operation = "found.update"
	OpFoundDelete  Operation = "found.delete"
	OpFoundStorage Operation = "found.storage"
	OpFoundStatus  Operation = "found.status"

	OpMatchingRun Operation = "matching.run"

	OpHandoverCreate   Operation = "handover.create"
	OpHandoverAccept   Operation = "handover.accept"
	OpHandoverReject   Operation = "handover.reject"
	OpHandoverVerify   Operation = "handover.verify"
	OpHandoverApprove  Operation = "handover.approve"
	OpHandoverSchedule Operation = "handover.schedule"
	OpHandoverComplete Operation = "handover.complete"
	OpHandoverCancel   Operation = "handover.cancel"
	OpHandoverQueue    Operation = "handover.queue"

	OpReportCreate Operation = "report.create"
	OpAdmin        Operation = "admin"
)

var finders = []Role{RoleFinder, RoleOffice, RoleSecurity, RoleAdmin}

// RoleOperations is the role to operation matrix.
// Participant and ownership rules are checked by the services on top of it.
var RoleOperations = map[Operation][]Role{
	OpLostCreate:  {RoleLoser},
	OpLostReadOwn: {RoleLoser, RoleAdmin},
	OpLostUpdate:  {RoleLoser, RoleAdmin},
	OpLostDelete:  {RoleLoser, RoleAdmin},

	OpFoundCreate:  finders,
	OpFoundUpdate:  finders,
	OpFoundDelete:  finders,
	OpFoundStorage: {RoleOffice, RoleSecurity, RoleAdmin},
	OpFoundStatus:  {RoleOffice, RoleSecurity, RoleAdmin},

	OpMatchingRun: AllRoles,

	OpHandoverCreate:   {RoleLoser},
	OpHandoverAccept:   finders,
	OpHandoverReject:   finders,
	OpHandoverVerify:   {RoleSecurity},
	OpHandoverApprove:  {RoleOffice},
	OpHandoverSchedule: AllRoles,
	OpHandoverComplete: AllRoles,
	OpHandoverCancel:   AllRoles,
	OpHandoverQueue:    {RoleOffice, RoleSecurity, RoleCourier, RoleAdmin},

	OpReportCreate: AllRoles,
	OpAdmin:        {RoleAdmin},
}

// Allowed reports whether role may invoke op. Unknown operations are denied.
func Allowed(role Role, op Operation) bool {
	for _, r := range RoleOperations[op] {
		if r == role {
			return true
		}
	}
	return false
}
