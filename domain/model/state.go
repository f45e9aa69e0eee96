package model

type RoomState string

const (
	RoomStateInit    RoomState = "init"
	RoomStateWait    RoomState = "wait"
	RoomStateWork    RoomState = "work"
	RoomStateLeave   RoomState = "leave"
	RoomStateFinish  RoomState = "finish"
	RoomStateTimeout RoomState = "timeout"
)

// FillingStates are the states in which a room still accepts members.
var FillingStates = []RoomState{RoomStateInit, RoomStateWait}

// ActiveStates are the non-terminal states.
var ActiveStates = []RoomState{RoomStateInit, RoomStateWait, RoomStateWork}

// StateForMembers maps a member count to the state of a room that is still filling.
func StateForMembers(count int) RoomState {
	switch {
	case count <= 0:
		return RoomStateInit
	case count < MaxMembers:
		return RoomStateWait
	default:
		return RoomStateWork
	}
}

func (s RoomState) IsTerminal() bool {
	switch s {
	case RoomStateLeave, RoomStateFinish, RoomStateTimeout:
		return true
	}
	return false
}

func (s RoomState) IsFilling() bool {
	return s == RoomStateInit || s == RoomStateWait
}

func (s RoomState) String() string {
	return string(s)
}
