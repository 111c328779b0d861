// Package roster projects the live subscriber list of a room from server
// messages. The projection is single-writer: only the connection's event
// loop mutates it, and readers get copied snapshots.
package roster

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/nheidner/typingsync/go/internal/room/protocol"
)

// Subscriber is one projected roster entry.
type Subscriber struct {
	UserID     uuid.UUID
	Username   string
	Status     protocol.SubscriberStatus
	GameStatus protocol.SubscriberGameStatus
	Cursor     int
}

// Projector maintains the roster. Entries are keyed by user id, at most one
// per user; a user_left only toggles presence so that a rejoin restores the
// prior identity. The local user is tracked but excluded from Sorted.
type Projector struct {
	selfID uuid.UUID
	subs   map[uuid.UUID]*Subscriber
	order  []uuid.UUID
}

// NewProjector returns an empty projection. selfID is the authenticated
// user, rendered separately by the caller.
func NewProjector(selfID uuid.UUID) *Projector {
	return &Projector{
		selfID: selfID,
		subs:   make(map[uuid.UUID]*Subscriber),
	}
}

// ReplaceAll rebuilds the roster from an initial_state snapshot, discarding
// everything previously known.
func (p *Projector) ReplaceAll(subscribers []protocol.RoomSubscriber) {
	p.subs = make(map[uuid.UUID]*Subscriber, len(subscribers))
	p.order = p.order[:0]
	for _, rs := range subscribers {
		if _, ok := p.subs[rs.UserID]; ok {
			continue
		}
		p.subs[rs.UserID] = &Subscriber{
			UserID:     rs.UserID,
			Username:   rs.Username,
			Status:     rs.Status,
			GameStatus: rs.GameStatus,
		}
		p.order = append(p.order, rs.UserID)
	}
}

// UserJoined marks a subscriber active. Reapplying it for an already-active
// subscriber changes nothing; an unknown id is ignored until the next
// snapshot reconciles it.
func (p *Projector) UserJoined(userID uuid.UUID) {
	if sub, ok := p.subs[userID]; ok {
		sub.Status = protocol.SubscriberActive
	}
}

// UserLeft marks a subscriber inactive. The entry is never removed.
func (p *Projector) UserLeft(userID uuid.UUID) {
	if sub, ok := p.subs[userID]; ok {
		sub.Status = protocol.SubscriberInactive
	}
}

// SetCursor records a subscriber's typing position.
func (p *Projector) SetCursor(userID uuid.UUID, position int) {
	if sub, ok := p.subs[userID]; ok {
		sub.Cursor = position
	}
}

// GameStarted flips every active subscriber into the started phase and
// resets their cursors for the new round.
func (p *Projector) GameStarted() {
	for _, sub := range p.subs {
		if sub.Status == protocol.SubscriberActive {
			sub.GameStatus = protocol.GameStatusStarted
			sub.Cursor = 0
		}
	}
}

// NewGame resets every subscriber's game phase for the upcoming round.
func (p *Projector) NewGame() {
	for _, sub := range p.subs {
		sub.GameStatus = protocol.GameStatusUnstarted
		sub.Cursor = 0
	}
}

// GameFinished flips the scored subscribers into the finished phase.
func (p *Projector) GameFinished(userIDs []uuid.UUID) {
	for _, id := range userIDs {
		if sub, ok := p.subs[id]; ok {
			sub.GameStatus = protocol.GameStatusFinished
		}
	}
}

// weight ranks a subscriber for display. Finished racers surface first,
// racers further along sort earlier, inactive subscribers always sort last.
func weight(sub *Subscriber) float64 {
	if sub.Status == protocol.SubscriberInactive {
		return 0
	}
	switch sub.GameStatus {
	case protocol.GameStatusStarted:
		return float64(2 + sub.Cursor)
	case protocol.GameStatusFinished:
		return math.Inf(1)
	default:
		return 1
	}
}

// Sorted returns the display ordering: descending weight, ties broken by
// insertion order so equal entries do not jitter, local user excluded.
func (p *Projector) Sorted() []Subscriber {
	result := make([]Subscriber, 0, len(p.order))
	for _, id := range p.order {
		if id == p.selfID {
			continue
		}
		result = append(result, *p.subs[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return weight(&result[i]) > weight(&result[j])
	})
	return result
}

// Len reports the number of tracked subscribers, the local user included.
func (p *Projector) Len() int {
	return len(p.subs)
}
