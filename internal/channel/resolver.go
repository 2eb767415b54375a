// internal/channel/resolver.go
package channel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tenant-chat/internal/model"
)

// DefaultMaxParticipants caps the participant set when no limit is configured.
const DefaultMaxParticipants = 9

// MinParticipants is the smallest participant set a channel can carry.
const MinParticipants = 2

// Request asks the resolver for a channel. Name is required iff Type is
// custom; for general channels it is ignored.
type Request struct {
	TenantID     uuid.UUID
	Type         model.ChannelType
	Name         string
	Participants []uuid.UUID
}

// Resolution reports the channel and whether any provisioning happened.
// Created is false when an existing custom channel was returned by name.
// GeneralProvisioned is true when resolving a custom channel implicitly
// created the backing general channel.
type Resolution struct {
	Channel            *model.Channel
	Created            bool
	GeneralProvisioned bool
}

// Resolver implements the channel dedup and auto-provisioning policy:
// general channels are unique per participant set and fail on duplicates,
// custom channels are unique per name and return the existing channel, and
// every custom channel is backed by a general channel for the same set.
type Resolver struct {
	directory Directory
	store     Store
	maxPeers  int
}

func NewResolver(directory Directory, store Store, maxParticipants int) *Resolver {
	if maxParticipants < MinParticipants {
		maxParticipants = DefaultMaxParticipants
	}
	return &Resolver{
		directory: directory,
		store:     store,
		maxPeers:  maxParticipants,
	}
}

// Resolve validates the request, then either finds or creates the channel.
// It never partially commits: a validation or invariant failure leaves no
// new channel, no membership rows and no activity-marker change.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	if !req.Type.Valid() {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("must be %q or %q", model.ChannelGeneral, model.ChannelCustom)}
	}

	participants, err := r.resolveParticipants(ctx, req.TenantID, req.Participants)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case model.ChannelGeneral:
		return r.resolveGeneral(ctx, req.TenantID, participants)
	default:
		name, err := validateName(req.Name)
		if err != nil {
			return nil, err
		}
		return r.resolveCustom(ctx, req.TenantID, name, participants)
	}
}

// resolveParticipants normalizes the requested set and checks that every
// identifier names a live customer of the requesting tenant. Partial success
// is not allowed: any unresolvable or foreign identifier fails the request
// and is named in the error.
func (r *Resolver) resolveParticipants(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	norm := model.NormalizeParticipants(ids)
	if len(norm) < MinParticipants || len(norm) > r.maxPeers {
		return nil, &ValidationError{
			Field:  "participants",
			Reason: fmt.Sprintf("count must be between %d and %d, got %d", MinParticipants, r.maxPeers, len(norm)),
		}
	}

	_, missing, err := r.directory.ResolveCustomers(ctx, tenantID, norm)
	if err != nil {
		return nil, fmt.Errorf("resolve customers: %w", err)
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Field:       "participants",
			Reason:      "unknown customer identifiers",
			Identifiers: missing,
		}
	}
	return norm, nil
}

// resolveGeneral creates the general channel for the participant set, or
// fails with *ConflictError naming the channel that already represents the
// conversation. General channels are idempotent-by-failure.
func (r *Resolver) resolveGeneral(ctx context.Context, tenantID uuid.UUID, participants []uuid.UUID) (*Resolution, error) {
	key := model.ParticipantsKey(participants)

	existing, err := r.store.GeneralChannelByKey(ctx, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("find general channel: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{ExistingID: existing.ID}
	}

	ch := newChannel(tenantID, model.ChannelGeneral, model.GeneralChannelName, key, participants)
	if err := r.store.CreateGeneralChannel(ctx, ch); err != nil {
		// A concurrent identical request may win the race between the lookup
		// above and the insert; the constraint violation arrives here already
		// translated and is surfaced exactly like the lookup hit.
		return nil, err
	}
	return &Resolution{Channel: ch, Created: true}, nil
}

// resolveCustom deduplicates by name only. When the name is new it ensures a
// general channel exists for the same participant set, reusing one if
// present, then creates the custom channel. Custom channels are
// idempotent-by-return: a name hit returns the existing channel unchanged,
// without touching its participant set.
func (r *Resolver) resolveCustom(ctx context.Context, tenantID uuid.UUID, name string, participants []uuid.UUID) (*Resolution, error) {
	existing, err := r.store.CustomChannelByName(ctx, tenantID, name)
	if err != nil {
		return nil, fmt.Errorf("find custom channel: %w", err)
	}
	if existing != nil {
		return &Resolution{Channel: existing}, nil
	}

	key := model.ParticipantsKey(participants)
	general, err := r.store.GeneralChannelByKey(ctx, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("find general channel: %w", err)
	}

	var provision *model.Channel
	if general == nil {
		provision = newChannel(tenantID, model.ChannelGeneral, model.GeneralChannelName, key, participants)
	}

	custom := newChannel(tenantID, model.ChannelCustom, name, key, participants)
	provisioned, err := r.store.CreateCustomChannel(ctx, custom, provision)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			// Lost the name race to a concurrent identical request; the
			// winner is the channel the caller asked for.
			winner, ferr := r.store.CustomChannelByName(ctx, tenantID, name)
			if ferr == nil && winner != nil {
				return &Resolution{Channel: winner}, nil
			}
		}
		return nil, err
	}
	return &Resolution{Channel: custom, Created: true, GeneralProvisioned: provisioned}, nil
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ValidationError{Field: "name", Reason: "required for custom channels"}
	}
	if len(trimmed) > model.MaxChannelNameLen {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", model.MaxChannelNameLen)}
	}
	return trimmed, nil
}

func newChannel(tenantID uuid.UUID, typ model.ChannelType, name, key string, participants []uuid.UUID) *model.Channel {
	now := time.Now().UTC()
	return &model.Channel{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Type:            typ,
		Name:            name,
		ParticipantsKey: key,
		Participants:    participants,
		LastActivityAt:  now,
		CreatedAt:       now,
	}
}
