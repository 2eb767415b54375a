// internal/storage/memory/store.go
//
// In-memory implementation of the channel and activity ports. It enforces
// the same uniqueness constraints as the Postgres schema so resolver and
// listing behavior can be exercised without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tenant-chat/internal/activity"
	"tenant-chat/internal/channel"
	"tenant-chat/internal/model"
)

type Store struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]model.Customer
	channels  map[uuid.UUID]model.Channel
}

func NewStore() *Store {
	return &Store{
		customers: make(map[uuid.UUID]model.Customer),
		channels:  make(map[uuid.UUID]model.Channel),
	}
}

// AddCustomer seeds a customer.
func (s *Store) AddCustomer(c model.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Email = model.NormalizeEmail(c.Email)
	s.customers[c.ID] = c
}

// ResolveCustomers implements channel.Directory.
func (s *Store) ResolveCustomers(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Customer, []uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []model.Customer
	var missing []uuid.UUID
	for _, id := range ids {
		c, ok := s.customers[id]
		if !ok || c.TenantID != tenantID || c.DeletedAt != nil {
			missing = append(missing, id)
			continue
		}
		found = append(found, c)
	}
	return found, missing, nil
}

func (s *Store) GeneralChannelByKey(_ context.Context, tenantID uuid.UUID, key string) (*model.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generalByKeyLocked(tenantID, key), nil
}

func (s *Store) CustomChannelByName(_ context.Context, tenantID uuid.UUID, name string) (*model.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customByNameLocked(tenantID, name), nil
}

func (s *Store) CreateGeneralChannel(_ context.Context, ch *model.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.generalByKeyLocked(ch.TenantID, ch.ParticipantsKey); existing != nil {
		return &channel.ConflictError{ExistingID: existing.ID}
	}
	s.channels[ch.ID] = *ch
	return nil
}

func (s *Store) CreateCustomChannel(_ context.Context, custom *model.Channel, general *model.Channel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.customByNameLocked(custom.TenantID, custom.Name); existing != nil {
		return false, &channel.ConflictError{ExistingID: existing.ID}
	}

	provisioned := false
	if general != nil && s.generalByKeyLocked(general.TenantID, general.ParticipantsKey) == nil {
		s.channels[general.ID] = *general
		provisioned = true
	}
	s.channels[custom.ID] = *custom
	return provisioned, nil
}

// GetChannel implements activity.Store.
func (s *Store) GetChannel(_ context.Context, tenantID, channelID uuid.UUID) (*model.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[channelID]
	if !ok || ch.TenantID != tenantID {
		return nil, nil
	}
	return &ch, nil
}

// ListChannels implements activity.Store with the same (marker, id)
// descending order and strict composite-key cursor as the SQL store.
func (s *Store) ListChannels(_ context.Context, tenantID uuid.UUID, scope activity.Scope, after *activity.Cursor, limit int) ([]model.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Channel
	for _, ch := range s.channels {
		if !s.inScopeLocked(ch, tenantID, scope) {
			continue
		}
		cur := activity.Cursor{LastActivityAt: ch.LastActivityAt, ID: ch.ID}
		if after != nil && !after.After(cur) {
			continue
		}
		out = append(out, ch)
	}

	sort.Slice(out, func(i, j int) bool {
		a := activity.Cursor{LastActivityAt: out[i].LastActivityAt, ID: out[i].ID}
		b := activity.Cursor{LastActivityAt: out[j].LastActivityAt, ID: out[j].ID}
		return a.After(b)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountChannels(_ context.Context, tenantID uuid.UUID, scope activity.Scope) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, ch := range s.channels {
		if s.inScopeLocked(ch, tenantID, scope) {
			n++
		}
	}
	return n, nil
}

// TouchChannel moves a channel's activity marker, standing in for the
// marker update a message append performs.
func (s *Store) TouchChannel(channelID uuid.UUID, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[channelID]; ok {
		ch.LastActivityAt = t
		s.channels[channelID] = ch
	}
}

func (s *Store) generalByKeyLocked(tenantID uuid.UUID, key string) *model.Channel {
	for _, ch := range s.channels {
		if ch.TenantID == tenantID && ch.Type == model.ChannelGeneral && ch.ParticipantsKey == key {
			found := ch
			return &found
		}
	}
	return nil
}

func (s *Store) customByNameLocked(tenantID uuid.UUID, name string) *model.Channel {
	for _, ch := range s.channels {
		if ch.TenantID == tenantID && ch.Type == model.ChannelCustom && ch.Name == name {
			found := ch
			return &found
		}
	}
	return nil
}

func (s *Store) inScopeLocked(ch model.Channel, tenantID uuid.UUID, scope activity.Scope) bool {
	if ch.TenantID != tenantID {
		return false
	}
	if scope.CustomerID == nil {
		return true
	}
	for _, p := range ch.Participants {
		if p == *scope.CustomerID {
			return true
		}
	}
	return false
}
