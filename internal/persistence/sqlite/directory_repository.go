package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/collection-scheduler/internal/persistence"
)

// DirectoryRepository reads the building and staff directory tables. The
// engine never writes them; they are maintained by the upstream directory
// service and only resolved here.
type DirectoryRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewDirectoryRepository creates a SQLite directory repository.
func NewDirectoryRepository(pool *ConnectionPool) *DirectoryRepository {
	return &DirectoryRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetBuilding resolves a building by id.
func (r *DirectoryRepository) GetBuilding(ctx context.Context, id string) (persistence.Building, error) {
	if id == "" {
		return persistence.Building{}, persistence.ErrNotFound
	}

	var building persistence.Building
	err := r.helper.QueryRow(ctx, "SELECT id, name, address FROM buildings WHERE id = ?", id).
		Scan(&building.ID, &building.Name, &building.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Building{}, persistence.ErrNotFound
		}
		return persistence.Building{}, r.mapper.MapError(err)
	}
	return building, nil
}

// GetStaffMember resolves a staff member by id.
func (r *DirectoryRepository) GetStaffMember(ctx context.Context, id string) (persistence.StaffMember, error) {
	if id == "" {
		return persistence.StaffMember{}, persistence.ErrNotFound
	}

	var staff persistence.StaffMember
	err := r.helper.QueryRow(ctx, "SELECT id, full_name, role FROM staff_members WHERE id = ?", id).
		Scan(&staff.ID, &staff.FullName, &staff.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.StaffMember{}, persistence.ErrNotFound
		}
		return persistence.StaffMember{}, r.mapper.MapError(err)
	}
	return staff, nil
}

// ListBuildings returns every building ordered by name.
func (r *DirectoryRepository) ListBuildings(ctx context.Context) ([]persistence.Building, error) {
	rows, err := r.helper.Query(ctx, "SELECT id, name, address FROM buildings ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var buildings []persistence.Building
	for rows.Next() {
		var building persistence.Building
		if err := rows.Scan(&building.ID, &building.Name, &building.Address); err != nil {
			return nil, r.mapper.MapError(err)
		}
		buildings = append(buildings, building)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return buildings, nil
}

// ListStaffMembers returns every staff member ordered by name.
func (r *DirectoryRepository) ListStaffMembers(ctx context.Context) ([]persistence.StaffMember, error) {
	rows, err := r.helper.Query(ctx, "SELECT id, full_name, role FROM staff_members ORDER BY full_name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []persistence.StaffMember
	for rows.Next() {
		var staff persistence.StaffMember
		if err := rows.Scan(&staff.ID, &staff.FullName, &staff.Role); err != nil {
			return nil, r.mapper.MapError(err)
		}
		members = append(members, staff)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return members, nil
}
