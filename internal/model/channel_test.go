package model_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tenant-chat/internal/model"
)

func TestParticipantsKeyOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	require.Equal(t,
		model.ParticipantsKey([]uuid.UUID{a, b, c}),
		model.ParticipantsKey([]uuid.UUID{c, a, b}),
	)
	require.NotEqual(t,
		model.ParticipantsKey([]uuid.UUID{a, b}),
		model.ParticipantsKey([]uuid.UUID{a, c}),
	)
}

func TestParticipantsKeyDeduplicates(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	key := model.ParticipantsKey([]uuid.UUID{a, b, a, b, a})
	require.Equal(t, model.ParticipantsKey([]uuid.UUID{a, b}), key)
	require.Equal(t, 2, len(strings.Split(key, ":")))
}

func TestNormalizeParticipantsSorted(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	first := model.NormalizeParticipants([]uuid.UUID{a, b})
	second := model.NormalizeParticipants([]uuid.UUID{b, a})
	require.Equal(t, first, second)
	require.Len(t, first, 2)
}

func TestChannelTypeValid(t *testing.T) {
	require.True(t, model.ChannelGeneral.Valid())
	require.True(t, model.ChannelCustom.Valid())
	require.False(t, model.ChannelType("direct").Valid())
	require.False(t, model.ChannelType("").Valid())
}

func TestMessageTypeValid(t *testing.T) {
	for _, typ := range []model.MessageType{model.MessageText, model.MessageImage, model.MessageFile, model.MessageSystem} {
		require.True(t, typ.Valid())
	}
	require.False(t, model.MessageType("video").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", model.NormalizeEmail("  Alice@Example.COM "))
}
