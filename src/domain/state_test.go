package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRobotStateTransitions(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		from    State
		to      State
		allowed bool
	}{
		"pick up a request":           {StateRequested, StateBuilding, true},
		"give up on a request":        {StateRequested, StateUnresourced, true},
		"finish building":             {StateBuilding, StateRunning, true},
		"retry from unresourced":      {StateUnresourced, StateRequested, true},
		"quiesce":                     {StateQuiesce, StateQuiescing, true},
		"quiesced after quiescing":    {StateQuiescing, StateQuiesced, true},
		"scrub straight away":         {StateScrub, StateScrubbing, true},
		"scrub via prep":              {StateScrub, StateScrubPrep, true},
		"close after scrubbing":       {StateScrubbing, StateClosed, true},
		"no-op":                       {StateRunning, StateRunning, true},
		"skip building":               {StateRequested, StateRunning, false},
		"resurrect closed":            {StateClosed, StateRunning, false},
		"users own the stable states": {StateRunning, StateQuiesce, false},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, try.allowed, try.from.CanTransition(try.to, RobotStateMap))
		})
	}
}

func TestUserStateTransitions(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		from    State
		to      State
		allowed bool
	}{
		"quiesce a running VM":     {StateRunning, StateQuiesce, true},
		"scrub a running VM":       {StateRunning, StateScrub, true},
		"resize a running VM":      {StateRunning, StateRunningUpdate, true},
		"restart a quiesced VM":    {StateQuiesced, StateRestart, true},
		"restore from scrub queue": {StateScrubQueue, StateRestart, true},
		"no-op":                    {StateQuiesced, StateQuiesced, true},
		"meddle while building":    {StateBuilding, StateRunning, false},
		"robot-only transition":    {StateRequested, StateBuilding, false},
		"reopen closed":            {StateClosed, StateRequested, false},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, try.allowed, try.from.CanTransition(try.to, UserStateMap))
		})
	}
}

func TestStableStates(t *testing.T) {
	t.Parallel()

	for _, state := range StableStates {
		assert.True(t, state.Stable(), "state %d", state)
	}
	for _, state := range []State{StateRequested, StateBuilding, StateQuiescing, StateScrubbing} {
		assert.False(t, state.Stable(), "state %d", state)
	}
}

func TestStateMapFor(t *testing.T) {
	t.Parallel()

	assert.True(t, StateRequested.CanTransition(StateBuilding, StateMapFor(true)))
	assert.False(t, StateRequested.CanTransition(StateBuilding, StateMapFor(false)))
	assert.True(t, StateRunning.CanTransition(StateQuiesce, StateMapFor(false)))
}
