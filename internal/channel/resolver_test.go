package channel_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tenant-chat/internal/channel"
	"tenant-chat/internal/model"
	"tenant-chat/internal/storage/memory"
)

func seedCustomer(store *memory.Store, tenantID uuid.UUID, name string) uuid.UUID {
	id := uuid.New()
	store.AddCustomer(model.Customer{
		ID:        id,
		TenantID:  tenantID,
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: time.Now(),
	})
	return id
}

func newResolver(store *memory.Store) *channel.Resolver {
	return channel.NewResolver(store, store, channel.DefaultMaxParticipants)
}

func TestGeneralChannelUniquePerParticipantSet(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")

	first, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelGeneral,
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	require.True(t, first.Created)
	require.Equal(t, model.ChannelGeneral, first.Channel.Type)
	require.Equal(t, model.GeneralChannelName, first.Channel.Name)

	// Reordered participants must hit the same conflict.
	_, err = resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelGeneral,
		Participants: []uuid.UUID{bob, alice},
	})
	var conflict *channel.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, first.Channel.ID, conflict.ExistingID)
}

func TestGeneralChannelDuplicatedParticipantsNormalized(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")

	res, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelGeneral,
		Participants: []uuid.UUID{alice, bob, alice, bob},
	})
	require.NoError(t, err)
	require.Len(t, res.Channel.Participants, 2)
}

func TestCustomChannelDedupByNameKeepsFirstParticipants(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")
	carol := seedCustomer(store, tenant, "carol")

	first, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelCustom,
		Name:         "Project X",
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	require.True(t, first.Created)

	// Disjoint participant set, same name: same channel, first set wins.
	second, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelCustom,
		Name:         "Project X",
		Participants: []uuid.UUID{alice, carol},
	})
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.Channel.ID, second.Channel.ID)
	require.ElementsMatch(t, first.Channel.Participants, second.Channel.Participants)
}

func TestCustomChannelNameIsCaseSensitive(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")

	first, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelCustom,
		Name:         "support",
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelCustom,
		Name:         "Support",
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	require.True(t, second.Created)
	require.NotEqual(t, first.Channel.ID, second.Channel.ID)
}

func TestCustomChannelAutoProvisionsGeneral(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")

	res, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelCustom,
		Name:         "Project X",
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	require.True(t, res.GeneralProvisioned)

	key := model.ParticipantsKey([]uuid.UUID{bob, alice})
	general, err := store.GeneralChannelByKey(context.Background(), tenant, key)
	require.NoError(t, err)
	require.NotNil(t, general)
	require.ElementsMatch(t, []uuid.UUID{alice, bob}, general.Participants)
}

func TestCustomChannelReusesExistingGeneral(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")
	ctx := context.Background()

	general, err := resolver.Resolve(ctx, channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelGeneral,
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)

	custom, err := resolver.Resolve(ctx, channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelCustom,
		Name:         "Project X",
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	require.True(t, custom.Created)
	require.False(t, custom.GeneralProvisioned)

	key := model.ParticipantsKey([]uuid.UUID{alice, bob})
	found, err := store.GeneralChannelByKey(ctx, tenant, key)
	require.NoError(t, err)
	require.Equal(t, general.Channel.ID, found.ID)
}

func TestProvisioningIsIdempotentAcrossCustomChannels(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, channel.Request{
		TenantID: tenant, Type: model.ChannelCustom, Name: "one",
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	require.True(t, first.GeneralProvisioned)

	second, err := resolver.Resolve(ctx, channel.Request{
		TenantID: tenant, Type: model.ChannelCustom, Name: "two",
		Participants: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	require.True(t, second.Created)
	require.False(t, second.GeneralProvisioned, "second custom channel must reuse the general channel")
}

func TestCrossTenantParticipantsRejected(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenantA := uuid.New()
	tenantB := uuid.New()
	alice := seedCustomer(store, tenantA, "alice")
	eve := seedCustomer(store, tenantB, "eve")

	_, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenantA,
		Type:         model.ChannelGeneral,
		Participants: []uuid.UUID{alice, eve},
	})
	var validation *channel.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "participants", validation.Field)
	require.Equal(t, []uuid.UUID{eve}, validation.Identifiers)
}

func TestUnknownParticipantRejected(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	ghost := uuid.New()

	_, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelGeneral,
		Participants: []uuid.UUID{alice, ghost},
	})
	var validation *channel.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Identifiers, ghost)
}

func TestParticipantCountBounds(t *testing.T) {
	store := memory.NewStore()
	resolver := channel.NewResolver(store, store, 3)
	tenant := uuid.New()
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		ids = append(ids, seedCustomer(store, tenant, string(rune('a'+i))))
	}

	var validation *channel.ValidationError

	_, err := resolver.Resolve(ctx, channel.Request{
		TenantID: tenant, Type: model.ChannelGeneral,
		Participants: ids[:1],
	})
	require.ErrorAs(t, err, &validation)

	_, err = resolver.Resolve(ctx, channel.Request{
		TenantID: tenant, Type: model.ChannelGeneral,
		Participants: ids,
	})
	require.ErrorAs(t, err, &validation)

	_, err = resolver.Resolve(ctx, channel.Request{
		TenantID: tenant, Type: model.ChannelGeneral,
		Participants: ids[:3],
	})
	require.NoError(t, err)
}

func TestInvalidChannelType(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")

	_, err := resolver.Resolve(context.Background(), channel.Request{
		TenantID:     tenant,
		Type:         model.ChannelType("direct"),
		Participants: []uuid.UUID{alice, bob},
	})
	var validation *channel.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "type", validation.Field)
}

func TestCustomChannelNameValidation(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenant := uuid.New()
	alice := seedCustomer(store, tenant, "alice")
	bob := seedCustomer(store, tenant, "bob")
	ctx := context.Background()

	var validation *channel.ValidationError

	_, err := resolver.Resolve(ctx, channel.Request{
		TenantID: tenant, Type: model.ChannelCustom, Name: "   ",
		Participants: []uuid.UUID{alice, bob},
	})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "name", validation.Field)

	long := make([]byte, model.MaxChannelNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = resolver.Resolve(ctx, channel.Request{
		TenantID: tenant, Type: model.ChannelCustom, Name: string(long),
		Participants: []uuid.UUID{alice, bob},
	})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "name", validation.Field)

	// Validation failures must leave no partial state behind.
	_, err = store.CustomChannelByName(ctx, tenant, string(long))
	require.NoError(t, err)
	key := model.ParticipantsKey([]uuid.UUID{alice, bob})
	general, err := store.GeneralChannelByKey(ctx, tenant, key)
	require.NoError(t, err)
	require.Nil(t, general)
}

func TestSameParticipantsDifferentTenantsDoNotCollide(t *testing.T) {
	store := memory.NewStore()
	resolver := newResolver(store)
	tenantA := uuid.New()
	tenantB := uuid.New()
	ctx := context.Background()

	a1 := seedCustomer(store, tenantA, "a1")
	a2 := seedCustomer(store, tenantA, "a2")
	b1 := seedCustomer(store, tenantB, "b1")
	b2 := seedCustomer(store, tenantB, "b2")

	_, err := resolver.Resolve(ctx, channel.Request{
		TenantID: tenantA, Type: model.ChannelCustom, Name: "ops",
		Participants: []uuid.UUID{a1, a2},
	})
	require.NoError(t, err)

	// The same custom name in another tenant is a fresh channel.
	res, err := resolver.Resolve(ctx, channel.Request{
		TenantID: tenantB, Type: model.ChannelCustom, Name: "ops",
		Participants: []uuid.UUID{b1, b2},
	})
	require.NoError(t, err)
	require.True(t, res.Created)
}
