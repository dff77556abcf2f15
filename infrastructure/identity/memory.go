// Package identity provides in-memory account stores for local development
// and tests. Production deployments use the DynamoDB repositories instead.
package identity

import (
	"context"
	"sync"

	"devinsights-backend/domain/accounts"
)

// MemoryOrganizationStore keeps organizations in a map.
type MemoryOrganizationStore struct {
	mu    sync.RWMutex
	items map[string]accounts.Organization
}

// NewMemoryOrganizationStore creates a MemoryOrganizationStore.
func NewMemoryOrganizationStore() *MemoryOrganizationStore {
	return &MemoryOrganizationStore{items: make(map[string]accounts.Organization)}
}

func (s *MemoryOrganizationStore) Save(ctx context.Context, org *accounts.Organization) error {
	s.mu.Lock()
	s.items[org.ID] = *org
	s.mu.Unlock()
	return nil
}

func (s *MemoryOrganizationStore) FindByID(ctx context.Context, organizationID string) (*accounts.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.items[organizationID]
	if !ok {
		return nil, nil
	}
	return &org, nil
}

func (s *MemoryOrganizationStore) Delete(ctx context.Context, organizationID string) error {
	s.mu.Lock()
	delete(s.items, organizationID)
	s.mu.Unlock()
	return nil
}

// MemoryUserStore keeps users in a map keyed by email.
type MemoryUserStore struct {
	mu    sync.RWMutex
	items map[string]accounts.User
}

// NewMemoryUserStore creates a MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{items: make(map[string]accounts.User)}
}

func (s *MemoryUserStore) Save(ctx context.Context, user *accounts.User) error {
	s.mu.Lock()
	s.items[user.Email] = *user
	s.mu.Unlock()
	return nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*accounts.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.items[email]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *MemoryUserStore) ListByOrganization(ctx context.Context, organizationID string) ([]*accounts.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []*accounts.User
	for _, user := range s.items {
		if user.OrganizationID == organizationID {
			u := user
			users = append(users, &u)
		}
	}
	return users, nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	delete(s.items, email)
	s.mu.Unlock()
	return nil
}

// MemoryInvitationStore keeps invitations in a map keyed by invitation ID.
type MemoryInvitationStore struct {
	mu    sync.RWMutex
	items map[string]accounts.Invitation
}

// NewMemoryInvitationStore creates a MemoryInvitationStore.
func NewMemoryInvitationStore() *MemoryInvitationStore {
	return &MemoryInvitationStore{items: make(map[string]accounts.Invitation)}
}

func (s *MemoryInvitationStore) Save(ctx context.Context, inv *accounts.Invitation) error {
	s.mu.Lock()
	s.items[inv.InvitationID] = *inv
	s.mu.Unlock()
	return nil
}

func (s *MemoryInvitationStore) FindByID(ctx context.Context, organizationID, invitationID string) (*accounts.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.items[invitationID]
	if !ok || inv.OrganizationID != organizationID {
		return nil, nil
	}
	return &inv, nil
}

func (s *MemoryInvitationStore) FindByToken(ctx context.Context, token string) (*accounts.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.items {
		if inv.Token == token {
			i := inv
			return &i, nil
		}
	}
	return nil, nil
}

func (s *MemoryInvitationStore) ListByOrganization(ctx context.Context, organizationID string) ([]*accounts.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var invitations []*accounts.Invitation
	for _, inv := range s.items {
		if inv.OrganizationID == organizationID {
			i := inv
			invitations = append(invitations, &i)
		}
	}
	return invitations, nil
}

func (s *MemoryInvitationStore) Delete(ctx context.Context, organizationID, invitationID string) error {
	s.mu.Lock()
	delete(s.items, invitationID)
	s.mu.Unlock()
	return nil
}
