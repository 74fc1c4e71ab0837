package workflow

// reviewerRule says how the next reviewer is determined after a transition.
type reviewerRule int

const (
	// reviewerFromPayload takes the reviewer id supplied by the caller.
	reviewerFromPayload reviewerRule = iota
	// reviewerByRole looks up the first active user holding targetRole.
	reviewerByRole
	// reviewerCleared leaves the article without a reviewer.
	reviewerCleared
)

// transition is one entry of the state machine table.
type transition struct {
	next       State
	byRole     Role // restricts the entry to actors with this role; empty matches any allowed role
	rule       reviewerRule
	targetRole Role
	stamp      TimestampField
	stepAction StepAction
}

// Machine is the authoritative transition table: (current state, action)
// to (next state, reviewer resolution, timestamp, history action). The
// richer four-role chain is canonical; where rejection lands is the one
// configurable edge.
type Machine struct {
	transitions map[State]map[Action][]transition
}

// NewMachine builds the transition table. rejectTo is the state a rejected
// article lands in: StateDraft reopens it for the author immediately,
// StateRejected parks it until resubmission.
func NewMachine(rejectTo State) *Machine {
	if rejectTo != StateDraft && rejectTo != StateRejected {
		rejectTo = StateDraft
	}

	submit := transition{
		next:       StateSubmitted,
		rule:       reviewerFromPayload,
		stamp:      TimestampSubmitted,
		stepAction: StepSubmitted,
	}
	reject := transition{
		next:       rejectTo,
		rule:       reviewerCleared,
		stepAction: StepRejected,
	}

	return &Machine{
		transitions: map[State]map[Action][]transition{
			StateDraft: {
				ActionSubmitForReview: {submit},
			},
			// Resubmission after rejection opens a fresh review cycle.
			StateRejected: {
				ActionSubmitForReview: {submit},
			},
			StateSubmitted: {
				ActionReview: {{
					next:       StateInReview,
					rule:       reviewerByRole,
					targetRole: RoleDirecteurPublication,
					stamp:      TimestampReviewed,
					stepAction: StepReviewed,
				}},
				ActionReject: {reject},
			},
			StateInReview: {
				ActionApprove: {
					{
						next:       StateApprovedBySecretary,
						byRole:     RoleSecretaireRedaction,
						rule:       reviewerByRole,
						targetRole: RoleDirecteurPublication,
						stepAction: StepApproved,
					},
					{
						next:       StateReadyForSocial,
						byRole:     RoleDirecteurPublication,
						rule:       reviewerByRole,
						targetRole: RoleSocialMediaManager,
						stamp:      TimestampApproved,
						stepAction: StepApproved,
					},
				},
				ActionReject: {reject},
			},
			StateApprovedBySecretary: {
				ActionApprove: {{
					next:       StateReadyForSocial,
					byRole:     RoleDirecteurPublication,
					rule:       reviewerByRole,
					targetRole: RoleSocialMediaManager,
					stamp:      TimestampApproved,
					stepAction: StepApproved,
				}},
				ActionReject: {reject},
			},
			StateReadyForSocial: {
				ActionPublish: {{
					next:       StatePublished,
					rule:       reviewerCleared,
					stamp:      TimestampPublished,
					stepAction: StepPublished,
				}},
			},
		},
	}
}

// HasEntry reports whether the action has any table entry for the state,
// regardless of role.
func (m *Machine) HasEntry(state State, action Action) bool {
	entries, ok := m.transitions[state]
	if !ok {
		return false
	}
	_, ok = entries[action]
	return ok
}

// Lookup returns the transition for the state, action and actor role.
// The second return is false when no entry matches the role.
func (m *Machine) Lookup(state State, action Action, role Role) (transition, bool) {
	entries, ok := m.transitions[state]
	if !ok {
		return transition{}, false
	}
	for _, t := range entries[action] {
		if t.byRole == "" || t.byRole == role {
			return t, true
		}
	}
	return transition{}, false
}

// AllowedActions returns the actions with a table entry for the state.
func (m *Machine) AllowedActions(state State) []Action {
	entries, ok := m.transitions[state]
	if !ok {
		return nil
	}
	actions := make([]Action, 0, len(entries))
	for a := range entries {
		actions = append(actions, a)
	}
	return actions
}
