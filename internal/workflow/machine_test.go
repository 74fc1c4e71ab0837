package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachineCanonicalChain(t *testing.T) {
	m := NewMachine(StateDraft)

	tr, ok := m.Lookup(StateDraft, ActionSubmitForReview, RoleJournaliste)
	assert.True(t, ok)
	assert.Equal(t, StateSubmitted, tr.next)
	assert.Equal(t, TimestampSubmitted, tr.stamp)

	tr, ok = m.Lookup(StateSubmitted, ActionReview, RoleSecretaireRedaction)
	assert.True(t, ok)
	assert.Equal(t, StateInReview, tr.next)
	assert.Equal(t, RoleDirecteurPublication, tr.targetRole)

	tr, ok = m.Lookup(StateReadyForSocial, ActionPublish, RoleDirecteurPublication)
	assert.True(t, ok)
	assert.Equal(t, StatePublished, tr.next)
	assert.Equal(t, TimestampPublished, tr.stamp)
}

func TestMachineApproveBranchesByRole(t *testing.T) {
	m := NewMachine(StateDraft)

	tr, ok := m.Lookup(StateInReview, ActionApprove, RoleSecretaireRedaction)
	assert.True(t, ok)
	assert.Equal(t, StateApprovedBySecretary, tr.next)
	assert.Equal(t, RoleDirecteurPublication, tr.targetRole)
	assert.Equal(t, TimestampNone, tr.stamp)

	tr, ok = m.Lookup(StateInReview, ActionApprove, RoleDirecteurPublication)
	assert.True(t, ok)
	assert.Equal(t, StateReadyForSocial, tr.next)
	assert.Equal(t, RoleSocialMediaManager, tr.targetRole)
	assert.Equal(t, TimestampApproved, tr.stamp)

	tr, ok = m.Lookup(StateApprovedBySecretary, ActionApprove, RoleDirecteurPublication)
	assert.True(t, ok)
	assert.Equal(t, StateReadyForSocial, tr.next)

	// The secretary already signed off; there is no secretary branch left.
	_, ok = m.Lookup(StateApprovedBySecretary, ActionApprove, RoleSecretaireRedaction)
	assert.False(t, ok)
}

func TestMachineRejectDestination(t *testing.T) {
	toDraft := NewMachine(StateDraft)
	for _, state := range []State{StateSubmitted, StateInReview, StateApprovedBySecretary} {
		tr, ok := toDraft.Lookup(state, ActionReject, RoleDirecteurPublication)
		assert.True(t, ok, "reject should be allowed from %s", state)
		assert.Equal(t, StateDraft, tr.next)
	}

	toRejected := NewMachine(StateRejected)
	tr, ok := toRejected.Lookup(StateSubmitted, ActionReject, RoleSecretaireRedaction)
	assert.True(t, ok)
	assert.Equal(t, StateRejected, tr.next)

	// Anything else falls back to reopening the draft.
	fallback := NewMachine(StatePublished)
	tr, _ = fallback.Lookup(StateSubmitted, ActionReject, RoleSecretaireRedaction)
	assert.Equal(t, StateDraft, tr.next)
}

func TestMachineResubmissionAfterRejection(t *testing.T) {
	m := NewMachine(StateRejected)

	tr, ok := m.Lookup(StateRejected, ActionSubmitForReview, RoleJournaliste)
	assert.True(t, ok)
	assert.Equal(t, StateSubmitted, tr.next)
}

func TestMachineDeniesUnknownPairs(t *testing.T) {
	m := NewMachine(StateDraft)

	invalid := []struct {
		state  State
		action Action
	}{
		{StateDraft, ActionReview},
		{StateDraft, ActionApprove},
		{StateDraft, ActionReject},
		{StateDraft, ActionPublish},
		{StateSubmitted, ActionSubmitForReview},
		{StateSubmitted, ActionApprove},
		{StateSubmitted, ActionPublish},
		{StateInReview, ActionSubmitForReview},
		{StateInReview, ActionReview},
		{StateInReview, ActionPublish},
		{StateApprovedBySecretary, ActionReview},
		{StateApprovedBySecretary, ActionPublish},
		{StateReadyForSocial, ActionSubmitForReview},
		{StateReadyForSocial, ActionReview},
		{StateReadyForSocial, ActionApprove},
		{StateReadyForSocial, ActionReject},
		{StatePublished, ActionSubmitForReview},
		{StatePublished, ActionReview},
		{StatePublished, ActionApprove},
		{StatePublished, ActionReject},
		{StatePublished, ActionPublish},
		{StateRejected, ActionReview},
		{StateRejected, ActionApprove},
		{StateRejected, ActionPublish},
		{StateDraft, Action("archive")},
		{State("scheduled"), ActionPublish},
	}
	for _, tc := range invalid {
		assert.False(t, m.HasEntry(tc.state, tc.action), "(%s, %s) should have no entry", tc.state, tc.action)
	}
}

func TestMachineAllowedActions(t *testing.T) {
	m := NewMachine(StateDraft)

	assert.ElementsMatch(t, []Action{ActionSubmitForReview}, m.AllowedActions(StateDraft))
	assert.ElementsMatch(t, []Action{ActionReview, ActionReject}, m.AllowedActions(StateSubmitted))
	assert.ElementsMatch(t, []Action{ActionApprove, ActionReject}, m.AllowedActions(StateInReview))
	assert.ElementsMatch(t, []Action{ActionPublish}, m.AllowedActions(StateReadyForSocial))
	assert.Empty(t, m.AllowedActions(StatePublished))
}
