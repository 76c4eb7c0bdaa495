package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlist_JoinAssignsIncreasingPositions(t *testing.T) {
	env := setupTestEnv(t, at("2024-06-01 12:00"))
	slot := env.addSlot(t, at("2024-06-10 09:00"), 30*time.Minute, model.MeetingTypeEither)
	env.book(t, studentA, slot.ID)

	for i, id := range []int64{studentB, studentC, 4} {
		position, err := env.waitlist.Join(context.Background(), id, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, position)
	}
}

func TestWaitlist_JoinErrors(t *testing.T) {
	env := setupTestEnv(t, at("2024-06-01 12:00"))
	free := env.addSlot(t, at("2024-06-10 09:00"), 30*time.Minute, model.MeetingTypeEither)
	past := env.addSlot(t, at("2024-05-01 09:00"), 30*time.Minute, model.MeetingTypeEither)

	_, err := env.waitlist.Join(context.Background(), studentB, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.waitlist.Join(context.Background(), studentB, past.ID)
	assert.ErrorIs(t, err, ErrSlotInPast)

	_, err = env.waitlist.Join(context.Background(), studentB, free.ID)
	assert.ErrorIs(t, err, ErrSlotNotBooked)
}

func TestWaitlist_LeaveKeepsPositions(t *testing.T) {
	env := setupTestEnv(t, at("2024-06-01 12:00"))
	slot := env.addSlot(t, at("2024-06-10 09:00"), 30*time.Minute, model.MeetingTypeEither)
	env.book(t, studentA, slot.ID)

	for _, id := range []int64{studentB, studentC, 4} {
		_, err := env.waitlist.Join(context.Background(), id, slot.ID)
		require.NoError(t, err)
	}

	require.NoError(t, env.waitlist.Leave(context.Background(), studentC, slot.ID))

	entries, err := env.waitlist.ListForSlot(context.Background(), slot.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, 3, entries[1].Position)

	// Новое место выдаётся после максимума, дырка не заполняется
	position, err := env.waitlist.Join(context.Background(), studentC, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, position)

	err = env.waitlist.Leave(context.Background(), 77, slot.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWaitlist_DuplicateJoinIsNotRejected(t *testing.T) {
	env := setupTestEnv(t, at("2024-06-01 12:00"))
	slot := env.addSlot(t, at("2024-06-10 09:00"), 30*time.Minute, model.MeetingTypeEither)
	env.book(t, studentA, slot.ID)

	_, err := env.waitlist.Join(context.Background(), studentB, slot.ID)
	require.NoError(t, err)
	position, err := env.waitlist.Join(context.Background(), studentB, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, position)

	// Leave убирает все записи студента
	require.NoError(t, env.waitlist.Leave(context.Background(), studentB, slot.ID))
	entries, err := env.waitlist.ListForSlot(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWaitlist_PromoteNextNotifiesFirstJoined(t *testing.T) {
	env := setupTestEnv(t, at("2024-06-01 12:00"))
	slot := env.addSlot(t, at("2024-06-10 09:00"), 30*time.Minute, model.MeetingTypeEither)
	other := env.addSlot(t, at("2024-06-10 11:00"), 30*time.Minute, model.MeetingTypeEither)
	env.book(t, studentA, slot.ID)
	env.book(t, studentA, other.ID)

	// Очереди двух слотов перемешаны
	join := func(studentID, slotID int64) {
		_, err := env.waitlist.Join(context.Background(), studentID, slotID)
		require.NoError(t, err)
	}
	join(5, other.ID)
	join(studentB, slot.ID)
	join(6, other.ID)
	join(studentC, slot.ID)

	require.NoError(t, env.waitlist.PromoteNext(context.Background(), slot.ID))

	spots := env.notifier.byKind(model.NotificationSpotAvailable)
	require.Len(t, spots, 1)
	assert.Equal(t, studentB, spots[0].UserID)
	assert.Equal(t, "/slots/"+strconv.FormatInt(slot.ID, 10), spots[0].Link)
	assert.Contains(t, spots[0].Message, "Mon, 10 Jun 2024 09:00-09:30")

	entries, err := env.waitlist.ListForSlot(context.Background(), slot.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Notified)
	assert.False(t, entries[1].Notified)
}

func TestWaitlist_PromoteNextEmptyQueue(t *testing.T) {
	env := setupTestEnv(t, at("2024-06-01 12:00"))
	slot := env.addSlot(t, at("2024-06-10 09:00"), 30*time.Minute, model.MeetingTypeEither)

	require.NoError(t, env.waitlist.PromoteNext(context.Background(), slot.ID))
	assert.Empty(t, env.notifier.byKind(model.NotificationSpotAvailable))
}
