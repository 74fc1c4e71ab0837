package workflow

// Ownership is the identity check an action requires on top of the role
// check.
type Ownership int

const (
	// OwnershipNone requires no identity match.
	OwnershipNone Ownership = iota
	// OwnershipAuthor requires the actor to be the article's author.
	OwnershipAuthor
	// OwnershipCurrentReviewer requires the actor to be the article's
	// current reviewer.
	OwnershipCurrentReviewer
)

// rolePolicy is the closed set of (action, role) pairs. Anything not
// listed is denied.
var rolePolicy = map[Action]map[Role]bool{
	ActionSubmitForReview: {
		RoleJournaliste: true,
	},
	ActionReview: {
		RoleSecretaireRedaction: true,
	},
	ActionApprove: {
		RoleSecretaireRedaction:  true,
		RoleDirecteurPublication: true,
	},
	ActionReject: {
		RoleSecretaireRedaction:  true,
		RoleDirecteurPublication: true,
	},
	ActionPublish: {
		RoleDirecteurPublication: true,
	},
}

// ownershipPolicy is the identity requirement per action.
var ownershipPolicy = map[Action]Ownership{
	ActionSubmitForReview: OwnershipAuthor,
	ActionReview:          OwnershipCurrentReviewer,
	ActionApprove:         OwnershipCurrentReviewer,
	ActionReject:          OwnershipCurrentReviewer,
	ActionPublish:         OwnershipNone,
}

// Allows reports whether the role may trigger the action. Unknown roles
// and actions are denied.
func Allows(role Role, action Action) bool {
	roles, ok := rolePolicy[action]
	if !ok {
		return false
	}
	return roles[role]
}

// OwnershipFor returns the identity check the action requires.
func OwnershipFor(action Action) Ownership {
	return ownershipPolicy[action]
}
