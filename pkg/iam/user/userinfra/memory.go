package userinfra

import (
	"context"
	"sort"
	"sync"

	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/kernel"
)

// MemoryUserRepository keeps users in process for the in-memory run mode and tests
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[kernel.UserID]user.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[kernel.UserID]user.User)}
}

var _ user.UserRepository = (*MemoryUserRepository)(nil)

func (r *MemoryUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound().WithDetail("email", email)
}

func (r *MemoryUserRepository) FindAll(ctx context.Context) ([]*user.User, error) {
	return r.filter(func(user.User) bool { return true }), nil
}

func (r *MemoryUserRepository) FindByRole(ctx context.Context, role kernel.Role) ([]*user.User, error) {
	return r.filter(func(u user.User) bool { return u.Role == role }), nil
}

func (r *MemoryUserRepository) FindByTeamLead(ctx context.Context, leadID kernel.UserID) ([]*user.User, error) {
	return r.filter(func(u user.User) bool { return u.TeamLeadID == leadID.String() }), nil
}

func (r *MemoryUserRepository) Save(ctx context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.users {
		if id != u.ID && existing.Email == u.Email {
			return user.ErrUserAlreadyExists().WithDetail("email", u.Email)
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *MemoryUserRepository) filter(pred func(user.User) bool) []*user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*user.User, 0)
	for _, u := range r.users {
		if pred(u) {
			found := u
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
