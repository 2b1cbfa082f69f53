package invitationinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/hireline/pkg/iam/invitation"
)

type MemoryInvitationRepository struct {
	mu    sync.RWMutex
	items map[string]invitation.Invitation
}

func NewMemoryInvitationRepository() *MemoryInvitationRepository {
	return &MemoryInvitationRepository{items: make(map[string]invitation.Invitation)}
}

var _ invitation.InvitationRepository = (*MemoryInvitationRepository)(nil)

func (r *MemoryInvitationRepository) FindByID(ctx context.Context, id string) (*invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.items[id]
	if !ok {
		return nil, invitation.ErrInvitationNotFound().WithDetail("invitation_id", id)
	}
	return &inv, nil
}

func (r *MemoryInvitationRepository) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	found := r.filter(func(inv invitation.Invitation) bool { return inv.Token == token })
	if len(found) == 0 {
		return nil, invitation.ErrInvitationNotFound()
	}
	return found[0], nil
}

func (r *MemoryInvitationRepository) FindAll(ctx context.Context) ([]*invitation.Invitation, error) {
	return r.filter(func(invitation.Invitation) bool { return true }), nil
}

func (r *MemoryInvitationRepository) FindPending(ctx context.Context) ([]*invitation.Invitation, error) {
	return r.filter(func(inv invitation.Invitation) bool { return inv.CanBeAccepted() }), nil
}

func (r *MemoryInvitationRepository) FindExpired(ctx context.Context) ([]*invitation.Invitation, error) {
	now := time.Now()
	return r.filter(func(inv invitation.Invitation) bool {
		return inv.Status == invitation.InvitationStatusPending && !now.Before(inv.ExpiresAt)
	}), nil
}

func (r *MemoryInvitationRepository) ExistsPendingForEmail(ctx context.Context, email string) (bool, error) {
	found := r.filter(func(inv invitation.Invitation) bool { return inv.Email == email && inv.CanBeAccepted() })
	return len(found) > 0, nil
}

func (r *MemoryInvitationRepository) Save(ctx context.Context, inv invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[inv.ID] = inv
	return nil
}

func (r *MemoryInvitationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return invitation.ErrInvitationNotFound().WithDetail("invitation_id", id)
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryInvitationRepository) filter(pred func(invitation.Invitation) bool) []*invitation.Invitation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*invitation.Invitation, 0)
	for _, inv := range r.items {
		if pred(inv) {
			found := inv
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
