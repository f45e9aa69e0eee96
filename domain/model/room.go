package model

import (
	"slices"
	"time"
)

const MaxMembers = 3

type Room struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Owner        string    `json:"owner,omitempty" bson:"owner,omitempty"`
	Members      []string  `json:"members" bson:"members"`
	MembersLeave []string  `json:"membersLeave" bson:"members_leave"`
	ExpireAt     time.Time `json:"expireAt" bson:"expire_at"`
	State        RoomState `json:"state" bson:"state"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	Version      int64     `json:"version" bson:"version"`
}

// NewRoom builds a room seated with the given members. The state follows the
// member count and the room stays eligible for one grace window.
func NewRoom(id, title, owner string, members []string, now time.Time, grace time.Duration) (*Room, error) {
	seated := make([]string, 0, MaxMembers)
	for _, m := range members {
		if slices.Contains(seated, m) {
			continue
		}
		seated = append(seated, m)
	}
	if len(seated) > MaxMembers {
		return nil, ErrRoomFull
	}

	return &Room{
		ID:           id,
		Title:        title,
		Owner:        owner,
		Members:      seated,
		MembersLeave: []string{},
		ExpireAt:     now.Add(grace),
		State:        StateForMembers(len(seated)),
		CreatedAt:    now,
	}, nil
}

func (r Room) IsMember(userID string) bool {
	return slices.Contains(r.Members, userID)
}

func (r Room) IsFull() bool {
	return len(r.Members) >= MaxMembers
}

// SpareSeats is the number of members the room can still take.
func (r Room) SpareSeats() int {
	if !r.State.IsFilling() {
		return 0
	}
	return max(MaxMembers-len(r.Members), 0)
}

func (r Room) IsExpired(now time.Time) bool {
	return r.State.IsFilling() && r.ExpireAt.Before(now)
}

func (r Room) IsEligible(now time.Time) bool {
	return r.State.IsFilling() && r.ExpireAt.After(now)
}

// AddMember seats userID and reports whether the room just reached work.
func (r *Room) AddMember(userID string, now time.Time, grace time.Duration) (bool, error) {
	if r.IsMember(userID) {
		return false, ErrAlreadyMember
	}
	if r.State.IsTerminal() || r.IsExpired(now) {
		return false, ErrRoomClosed
	}
	if r.State == RoomStateWork || r.IsFull() {
		return false, ErrRoomFull
	}

	r.Members = append(r.Members, userID)
	r.State = StateForMembers(len(r.Members))
	if r.State != RoomStateWork {
		r.ExpireAt = now.Add(grace)
	}

	return r.State == RoomStateWork, nil
}

// RemoveMember drops userID and records the departure. It returns the state the
// room was in before the removal.
func (r *Room) RemoveMember(userID string) (RoomState, error) {
	prev := r.State
	if prev.IsTerminal() {
		return prev, ErrRoomClosed
	}

	idx := slices.Index(r.Members, userID)
	if idx < 0 {
		return prev, ErrNotMember
	}

	r.Members = slices.Delete(r.Members, idx, idx+1)
	if !slices.Contains(r.MembersLeave, userID) {
		r.MembersLeave = append(r.MembersLeave, userID)
	}

	remaining := len(r.Members)
	switch prev {
	case RoomStateWork:
		if remaining == 0 {
			r.State = RoomStateFinish
		}
	case RoomStateWait:
		switch remaining {
		case 1:
			r.State = RoomStateInit
		case 0:
			r.State = RoomStateLeave
		}
	case RoomStateInit:
		if remaining == 0 {
			r.State = RoomStateLeave
		}
	}

	return prev, nil
}

// Recipients lists everyone who should hear about the room ending: the
// current members followed by those who already left.
func (r Room) Recipients() []string {
	out := make([]string, 0, len(r.Members)+len(r.MembersLeave))
	out = append(out, r.Members...)
	for _, u := range r.MembersLeave {
		if !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}

func (r Room) Clone() *Room {
	c := r
	c.Members = slices.Clone(r.Members)
	c.MembersLeave = slices.Clone(r.MembersLeave)
	if c.Members == nil {
		c.Members = []string{}
	}
	if c.MembersLeave == nil {
		c.MembersLeave = []string{}
	}
	return &c
}
