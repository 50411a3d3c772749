package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/ccnuzw/task-dispatch/internal/models"
	"github.com/ccnuzw/task-dispatch/internal/repository"
)

// Assignment is one resolved (assignee, optional point) pair. A zero
// CollectionPointID means the assignment carries no point binding.
type Assignment struct {
	AssigneeID        uint64
	CollectionPointID uint64
}

// Resolution is the concrete expansion of a template's assignment rule.
// UnassignedPoints lists in-scope points with no current owner; that is a
// signal for the operator, not an error.
type Resolution struct {
	Assignments      []Assignment
	UnassignedPoints []models.PointRef
}

// AssignmentService expands a template's assignment mode into concrete
// assignee/point pairs via read-only registry lookups. Results are never
// cached: preview and execute each resolve afresh, and registry state may
// legitimately drift between the two calls.
type AssignmentService struct {
	orgRepo   repository.OrganizationRepository
	pointRepo repository.CollectionPointRepository
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(orgRepo repository.OrganizationRepository, pointRepo repository.CollectionPointRepository) *AssignmentService {
	return &AssignmentService{orgRepo: orgRepo, pointRepo: pointRepo}
}

// Resolve expands the template's assignee specification
func (s *AssignmentService) Resolve(ctx context.Context, tpl *models.TaskTemplate) (*Resolution, error) {
	switch spec := tpl.AssigneeSpec().(type) {
	case models.ManualSpec:
		return s.resolveManual(spec), nil
	case models.ByPointSpec:
		return s.resolveByPoint(ctx, spec)
	case models.ByDepartmentSpec:
		users, err := s.orgRepo.ListActiveMembersByDepartments(ctx, spec.DepartmentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve department members: %w", err)
		}
		return resolutionFromUsers(users), nil
	case models.ByOrganizationSpec:
		users, err := s.orgRepo.ListActiveMembersByOrganizations(ctx, spec.OrganizationIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve organization members: %w", err)
		}
		return resolutionFromUsers(users), nil
	default:
		return nil, ErrUnknownAssigneeMode
	}
}

func (s *AssignmentService) resolveManual(spec models.ManualSpec) *Resolution {
	ids := uniqueUint64(spec.AssigneeIDs)
	assignments := make([]Assignment, 0, len(ids))
	for _, id := range ids {
		assignments = append(assignments, Assignment{AssigneeID: id})
	}
	return &Resolution{Assignments: assignments, UnassignedPoints: []models.PointRef{}}
}

func (s *AssignmentService) resolveByPoint(ctx context.Context, spec models.ByPointSpec) (*Resolution, error) {
	points, err := s.pointRepo.ListActivePoints(ctx, spec.PointTypes, spec.PointIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection points: %w", err)
	}

	res := &Resolution{Assignments: []Assignment{}, UnassignedPoints: []models.PointRef{}}
	for _, point := range points {
		owners, err := s.pointRepo.ListOwners(ctx, point.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list owners of point %d: %w", point.ID, err)
		}
		if len(owners) == 0 {
			res.UnassignedPoints = append(res.UnassignedPoints, point.Ref())
			continue
		}
		// Many-owner fan-out: every owner gets its own task for this point.
		for _, owner := range owners {
			res.Assignments = append(res.Assignments, Assignment{
				AssigneeID:        owner.ID,
				CollectionPointID: point.ID,
			})
		}
	}
	return res, nil
}

func resolutionFromUsers(users []models.User) *Resolution {
	ids := make([]uint64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	ids = uniqueUint64(ids)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	assignments := make([]Assignment, 0, len(ids))
	for _, id := range ids {
		assignments = append(assignments, Assignment{AssigneeID: id})
	}
	return &Resolution{Assignments: assignments, UnassignedPoints: []models.PointRef{}}
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
