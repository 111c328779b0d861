package roster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nheidner/typingsync/go/internal/room/protocol"
)

func snapshotEntry(id uuid.UUID, username string, status protocol.SubscriberStatus, gameStatus protocol.SubscriberGameStatus) protocol.RoomSubscriber {
	return protocol.RoomSubscriber{
		UserID:     id,
		Username:   username,
		Status:     status,
		GameStatus: gameStatus,
	}
}

func TestReplaceAllDiscardsPriorState(t *testing.T) {
	self := uuid.New()
	old := uuid.New()
	fresh := uuid.New()

	p := NewProjector(self)
	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(old, "old", protocol.SubscriberActive, protocol.GameStatusUnstarted),
	})
	require.Equal(t, 1, p.Len())

	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(fresh, "fresh", protocol.SubscriberActive, protocol.GameStatusUnstarted),
	})

	sorted := p.Sorted()
	require.Len(t, sorted, 1)
	assert.Equal(t, fresh, sorted[0].UserID)
}

func TestReplaceAllDropsDuplicateIDs(t *testing.T) {
	self := uuid.New()
	dup := uuid.New()

	p := NewProjector(self)
	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(dup, "first", protocol.SubscriberActive, protocol.GameStatusUnstarted),
		snapshotEntry(dup, "second", protocol.SubscriberActive, protocol.GameStatusUnstarted),
	})

	sorted := p.Sorted()
	require.Len(t, sorted, 1)
	assert.Equal(t, "first", sorted[0].Username)
}

func TestUserJoinedIsIdempotent(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	p := NewProjector(self)
	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(other, "other", protocol.SubscriberActive, protocol.GameStatusStarted),
	})
	p.SetCursor(other, 17)

	before := p.Sorted()
	p.UserJoined(other)
	after := p.Sorted()

	assert.Equal(t, before, after)
}

func TestPresenceToggleKeepsIdentity(t *testing.T) {
	self := uuid.New()
	other := uuid.New()

	p := NewProjector(self)
	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(other, "other", protocol.SubscriberActive, protocol.GameStatusStarted),
	})
	p.SetCursor(other, 42)

	p.UserLeft(other)
	require.Equal(t, 1, p.Len())
	sorted := p.Sorted()
	require.Len(t, sorted, 1)
	assert.Equal(t, protocol.SubscriberInactive, sorted[0].Status)

	p.UserJoined(other)
	sorted = p.Sorted()
	assert.Equal(t, protocol.SubscriberActive, sorted[0].Status)
	assert.Equal(t, 42, sorted[0].Cursor)
	assert.Equal(t, "other", sorted[0].Username)
}

func TestUnknownUserEventsAreIgnored(t *testing.T) {
	p := NewProjector(uuid.New())
	p.UserJoined(uuid.New())
	p.UserLeft(uuid.New())
	p.SetCursor(uuid.New(), 3)
	assert.Equal(t, 0, p.Len())
}

func TestSortedOrdersByWeight(t *testing.T) {
	self := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	d := uuid.New()

	p := NewProjector(self)
	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(a, "a", protocol.SubscriberInactive, protocol.GameStatusStarted),
		snapshotEntry(b, "b", protocol.SubscriberActive, protocol.GameStatusStarted),
		snapshotEntry(c, "c", protocol.SubscriberActive, protocol.GameStatusStarted),
		snapshotEntry(d, "d", protocol.SubscriberActive, protocol.GameStatusFinished),
	})
	p.SetCursor(b, 10)
	p.SetCursor(c, 20)

	got := p.Sorted()
	require.Len(t, got, 4)
	assert.Equal(t, d, got[0].UserID)
	assert.Equal(t, c, got[1].UserID)
	assert.Equal(t, b, got[2].UserID)
	assert.Equal(t, a, got[3].UserID)
}

func TestSortedExcludesSelfAndKeepsInsertionOrderOnTies(t *testing.T) {
	self := uuid.New()
	first := uuid.New()
	second := uuid.New()

	p := NewProjector(self)
	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(self, "me", protocol.SubscriberActive, protocol.GameStatusUnstarted),
		snapshotEntry(first, "first", protocol.SubscriberActive, protocol.GameStatusUnstarted),
		snapshotEntry(second, "second", protocol.SubscriberActive, protocol.GameStatusUnstarted),
	})

	got := p.Sorted()
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].UserID)
	assert.Equal(t, second, got[1].UserID)
}

func TestGamePhaseProjection(t *testing.T) {
	self := uuid.New()
	racer := uuid.New()
	idle := uuid.New()

	p := NewProjector(self)
	p.ReplaceAll([]protocol.RoomSubscriber{
		snapshotEntry(racer, "racer", protocol.SubscriberActive, protocol.GameStatusUnstarted),
		snapshotEntry(idle, "idle", protocol.SubscriberInactive, protocol.GameStatusUnstarted),
	})
	p.SetCursor(racer, 8)

	p.GameStarted()
	byID := make(map[uuid.UUID]Subscriber)
	for _, sub := range p.Sorted() {
		byID[sub.UserID] = sub
	}
	assert.Equal(t, protocol.GameStatusStarted, byID[racer].GameStatus)
	assert.Equal(t, 0, byID[racer].Cursor)
	assert.Equal(t, protocol.GameStatusUnstarted, byID[idle].GameStatus)

	p.GameFinished([]uuid.UUID{racer})
	byID = make(map[uuid.UUID]Subscriber)
	for _, sub := range p.Sorted() {
		byID[sub.UserID] = sub
	}
	assert.Equal(t, protocol.GameStatusFinished, byID[racer].GameStatus)

	p.NewGame()
	for _, sub := range p.Sorted() {
		assert.Equal(t, protocol.GameStatusUnstarted, sub.GameStatus)
		assert.Equal(t, 0, sub.Cursor)
	}
}
