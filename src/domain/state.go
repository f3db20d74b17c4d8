package domain

import "golang.org/x/exp/slices"

// State values shared by all robot-managed infrastructure
// (VMs, virtual routers, snapshots, backups, resources).
// The numeric values are part of the API contract.
type State int

const (
	StateInApi       State = -1
	StateIgnore      State = 0
	StateRequested   State = 1
	StateBuilding    State = 2
	StateUnresourced State = 3
	StateRunning     State = 4
	StateQuiesce     State = 5
	StateQuiesced    State = 6
	StateRestart     State = 7
	StateScrub       State = 8
	StateScrubQueue  State = 9

	StateRunningUpdate    State = 10
	StateRunningUpdating  State = 11
	StateQuiescing        State = 12
	StateRestarting       State = 13
	StateScrubPrep        State = 14
	StateQuiescedUpdate   State = 15
	StateQuiescedUpdating State = 16
	StateScrubbing        State = 17

	StateClosed State = 99
)

// RobotStateMap lists the transitions the region robot may perform as it
// works infrastructure through its lifecycle.
var RobotStateMap = map[State][]State{
	StateRequested:   {StateBuilding, StateUnresourced},
	StateBuilding:    {StateUnresourced, StateRunning},
	StateUnresourced: {StateRequested, StateQuiesce, StateRestart, StateScrub, StateRunningUpdate, StateQuiescedUpdate},
	StateQuiesce:     {StateQuiescing},
	StateRestart:     {StateRestarting},
	StateScrub:       {StateScrubPrep, StateScrubbing},

	StateRunningUpdate:    {StateRunningUpdating},
	StateRunningUpdating:  {StateUnresourced, StateRunning},
	StateQuiescedUpdate:   {StateQuiescedUpdating},
	StateQuiescedUpdating: {StateUnresourced, StateQuiesced},
	StateQuiescing:        {StateUnresourced, StateQuiesced},
	StateRestarting:       {StateUnresourced, StateRunning},
	StateScrubPrep:        {StateUnresourced, StateScrubQueue},
	StateScrubQueue:       {StateScrubbing},
	StateScrubbing:        {StateUnresourced, StateClosed},
}

// UserStateMap lists the transitions an end user may request.
var UserStateMap = map[State][]State{
	StateRunning:    {StateQuiesce, StateScrub, StateRunningUpdate},
	StateQuiesced:   {StateRestart, StateScrub, StateQuiescedUpdate},
	StateScrubQueue: {StateRestart},
}

// UserSnapshotStateMap lists the transitions an end user may request
// for snapshots and backups.
var UserSnapshotStateMap = map[State][]State{
	StateRunning: {StateRunningUpdate, StateScrub},
}

// StableStates are the states in which infrastructure rests between
// robot sweeps.
var StableStates = []State{
	StateRunning,
	StateQuiesced,
	StateScrubQueue,
	StateClosed,
}

// RobotProcessStates are the request states the robot picks up.
var RobotProcessStates = []State{
	StateRequested,
	StateQuiesce,
	StateQuiescedUpdate,
	StateRestart,
	StateRunningUpdate,
	StateScrub,
}

// ScrubStates are the states a VM can be restored from.
var ScrubStates = []State{
	StateScrub,
	StateScrubQueue,
	StateScrubPrep,
}

func (self State) Stable() bool {
	return slices.Contains(StableStates, self)
}

// CanTransition reports whether the transition is allowed by the given map.
// A no-op transition is always allowed.
func (self State) CanTransition(to State, stateMap map[State][]State) bool {
	if self == to {
		return true
	}
	targets, ok := stateMap[self]
	if !ok {
		return false
	}
	return slices.Contains(targets, to)
}

// StateMapFor returns the transition map that applies to the requester class.
func StateMapFor(robot bool) map[State][]State {
	if robot {
		return RobotStateMap
	}
	return UserStateMap
}
