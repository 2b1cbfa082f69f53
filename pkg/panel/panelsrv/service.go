package panelsrv

import (
	"context"
	"strings"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/Abraxas-365/hireline/pkg/panel"
)

// PanelService mantiene las listas de configuración del panel
type PanelService struct {
	roles     docstore.Repository[panel.JobRole]
	locations docstore.Repository[panel.Location]
	stores    docstore.Repository[panel.Store]
}

func NewPanelService(
	roles docstore.Repository[panel.JobRole],
	locations docstore.Repository[panel.Location],
	stores docstore.Repository[panel.Store],
) *PanelService {
	return &PanelService{
		roles:     roles,
		locations: locations,
		stores:    stores,
	}
}

// ============================================================================
// Roles
// ============================================================================

func (s *PanelService) ListRoles(ctx context.Context) ([]*panel.JobRole, error) {
	return s.roles.List(ctx)
}

func (s *PanelService) CreateRole(ctx context.Context, req panel.RoleRequest) (*panel.JobRole, error) {
	name := strings.TrimSpace(req.Name)
	if err := ensureUnique(ctx, s.roles, name, "", func(r *panel.JobRole) string { return r.Name }); err != nil {
		return nil, err
	}
	role := &panel.JobRole{Name: name, Description: req.Description}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *PanelService) UpdateRole(ctx context.Context, id string, req panel.RoleRequest) (*panel.JobRole, error) {
	role, err := get(ctx, s.roles, "role", id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := ensureUnique(ctx, s.roles, name, id, func(r *panel.JobRole) string { return r.Name }); err != nil {
		return nil, err
	}
	role.Name = name
	role.Description = req.Description
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *PanelService) DeleteRole(ctx context.Context, id string) error {
	if _, err := get(ctx, s.roles, "role", id); err != nil {
		return err
	}
	return s.roles.Delete(ctx, id)
}

// ============================================================================
// Locations
// ============================================================================

func (s *PanelService) ListLocations(ctx context.Context) ([]*panel.Location, error) {
	return s.locations.List(ctx)
}

func (s *PanelService) CreateLocation(ctx context.Context, req panel.LocationRequest) (*panel.Location, error) {
	name := strings.TrimSpace(req.Name)
	if err := ensureUnique(ctx, s.locations, name, "", func(l *panel.Location) string { return l.Name }); err != nil {
		return nil, err
	}
	loc := &panel.Location{Name: name, State: req.State}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *PanelService) UpdateLocation(ctx context.Context, id string, req panel.LocationRequest) (*panel.Location, error) {
	loc, err := get(ctx, s.locations, "location", id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := ensureUnique(ctx, s.locations, name, id, func(l *panel.Location) string { return l.Name }); err != nil {
		return nil, err
	}

	// renaming keeps stores pointing at it
	if !panel.SameName(loc.Name, name) {
		used, err := s.storesAt(ctx, loc.Name)
		if err != nil {
			return nil, err
		}
		for _, st := range used {
			st.Location = name
			if err := s.stores.Update(ctx, st); err != nil {
				return nil, err
			}
		}
	}

	loc.Name = name
	loc.State = req.State
	if err := s.locations.Update(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// DeleteLocation is rejected while a store still references the location
func (s *PanelService) DeleteLocation(ctx context.Context, id string) error {
	loc, err := get(ctx, s.locations, "location", id)
	if err != nil {
		return err
	}
	used, err := s.storesAt(ctx, loc.Name)
	if err != nil {
		return err
	}
	if len(used) > 0 {
		return panel.ErrLocationInUse(loc.Name, len(used))
	}
	return s.locations.Delete(ctx, id)
}

// ============================================================================
// Stores
// ============================================================================

func (s *PanelService) ListStores(ctx context.Context) ([]*panel.Store, error) {
	return s.stores.List(ctx)
}

func (s *PanelService) GetStore(ctx context.Context, id string) (*panel.Store, error) {
	st, err := s.stores.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, panel.ErrUnknownStore(id)
		}
		return nil, err
	}
	return st, nil
}

func (s *PanelService) CreateStore(ctx context.Context, req panel.StoreRequest) (*panel.Store, error) {
	name := strings.TrimSpace(req.Name)
	if err := ensureUnique(ctx, s.stores, name, "", func(st *panel.Store) string { return st.Name }); err != nil {
		return nil, err
	}
	loc, err := s.resolveLocation(ctx, req.Location)
	if err != nil {
		return nil, err
	}
	st := &panel.Store{Name: name, Location: loc, Address: req.Address, SupervisorID: req.SupervisorID}
	if err := s.stores.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *PanelService) UpdateStore(ctx context.Context, id string, req panel.StoreRequest) (*panel.Store, error) {
	st, err := get(ctx, s.stores, "store", id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := ensureUnique(ctx, s.stores, name, id, func(st *panel.Store) string { return st.Name }); err != nil {
		return nil, err
	}
	loc, err := s.resolveLocation(ctx, req.Location)
	if err != nil {
		return nil, err
	}
	st.Name = name
	st.Location = loc
	st.Address = req.Address
	st.SupervisorID = req.SupervisorID
	if err := s.stores.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *PanelService) DeleteStore(ctx context.Context, id string) error {
	if _, err := get(ctx, s.stores, "store", id); err != nil {
		return err
	}
	return s.stores.Delete(ctx, id)
}

// ============================================================================
// Validators used by other modules
// ============================================================================

// CanonicalRole returns the configured spelling of a role name
func (s *PanelService) CanonicalRole(ctx context.Context, name string) (string, error) {
	r, err := s.roles.First(ctx, func(r *panel.JobRole) bool { return panel.SameName(r.Name, name) })
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", panel.ErrUnknownRole(name)
	}
	return r.Name, nil
}

// CanonicalLocation returns the configured spelling of a location name
func (s *PanelService) CanonicalLocation(ctx context.Context, name string) (string, error) {
	return s.resolveLocation(ctx, name)
}

// ============================================================================
// Seed
// ============================================================================

// Seed inserts the items of file whose names are not configured yet
func (s *PanelService) Seed(ctx context.Context, file panel.SeedFile) (*panel.SeedResult, error) {
	result := &panel.SeedResult{}

	for _, r := range file.Roles {
		_, err := s.CreateRole(ctx, panel.RoleRequest{Name: r.Name, Description: r.Description})
		if skip, err := seedOutcome(err); err != nil {
			return result, err
		} else if skip {
			result.Skipped++
			continue
		}
		result.Roles++
	}

	for _, l := range file.Locations {
		_, err := s.CreateLocation(ctx, panel.LocationRequest{Name: l.Name, State: l.State})
		if skip, err := seedOutcome(err); err != nil {
			return result, err
		} else if skip {
			result.Skipped++
			continue
		}
		result.Locations++
	}

	for _, st := range file.Stores {
		_, err := s.CreateStore(ctx, panel.StoreRequest{
			Name:         st.Name,
			Location:     st.Location,
			Address:      st.Address,
			SupervisorID: st.SupervisorID,
		})
		if skip, err := seedOutcome(err); err != nil {
			return result, err
		} else if skip {
			result.Skipped++
			continue
		}
		result.Stores++
	}

	logx.WithFields(logx.Fields{
		"roles":     result.Roles,
		"locations": result.Locations,
		"stores":    result.Stores,
		"skipped":   result.Skipped,
	}).Info("panel seeded")
	return result, nil
}

func seedOutcome(err error) (skip bool, _ error) {
	if err == nil {
		return false, nil
	}
	if errx.IsCode(err, panel.CodeDuplicateName) {
		return true, nil
	}
	return false, err
}

// ============================================================================
// helpers
// ============================================================================

func (s *PanelService) storesAt(ctx context.Context, location string) ([]*panel.Store, error) {
	return s.stores.Filter(ctx, func(st *panel.Store) bool { return panel.SameName(st.Location, location) })
}

func (s *PanelService) resolveLocation(ctx context.Context, name string) (string, error) {
	loc, err := s.locations.First(ctx, func(l *panel.Location) bool { return panel.SameName(l.Name, name) })
	if err != nil {
		return "", err
	}
	if loc == nil {
		return "", panel.ErrUnknownLocation(name)
	}
	return loc.Name, nil
}

func get[T any](ctx context.Context, repo docstore.Repository[T], kind, id string) (*T, error) {
	v, err := repo.Get(ctx, id)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, panel.ErrItemNotFound(kind, id)
		}
		return nil, err
	}
	return v, nil
}

func ensureUnique[T any](ctx context.Context, repo docstore.Repository[T], name, exceptID string, nameOf func(*T) string) error {
	if name == "" {
		return panel.ErrNameRequired()
	}
	clash, err := repo.First(ctx, func(v *T) bool {
		return panel.SameName(nameOf(v), name) && docstore.IDOf(v) != exceptID
	})
	if err != nil {
		return err
	}
	if clash != nil {
		return panel.ErrDuplicateName(name)
	}
	return nil
}
