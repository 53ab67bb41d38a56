package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rabill/internal/domain"
	"rabill/internal/matcher"
	"rabill/internal/port"
)

// BOQItemInput is one imported line of a project's Bill of Quantities.
type BOQItemInput struct {
	Description   string
	Unit          string
	AuthorizedQty decimal.Decimal
	Rate          decimal.Decimal
	TaxRate       decimal.Decimal
}

// CreateProjectInput is the DTO for creating a project with its catalog.
// The item list comes from the external BOQ import step; state codes come
// from the company and client records.
type CreateProjectInput struct {
	Name             string
	ClientName       string
	CompanyStateCode string
	ClientStateCode  string
	Items            []BOQItemInput
}

// ProjectService manages projects and their immutable BOQ catalogs.
type ProjectService interface {
	Create(ctx context.Context, input *CreateProjectInput) (*domain.Project, error)
	GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, offset, limit int) ([]domain.Project, int, error)
	ListItems(ctx context.Context, projectID uuid.UUID) ([]domain.BOQItem, error)
	GetItem(ctx context.Context, projectID, itemID uuid.UUID) (*domain.BOQItem, error)
}

type projectService struct {
	projectRepo port.ProjectRepository
	boqRepo     port.BOQItemRepository
}

// NewProjectService creates a new ProjectService implementation.
func NewProjectService(projectRepo port.ProjectRepository, boqRepo port.BOQItemRepository) ProjectService {
	return &projectService{projectRepo: projectRepo, boqRepo: boqRepo}
}

func (s *projectService) Create(ctx context.Context, input *CreateProjectInput) (*domain.Project, error) {
	if len(input.Items) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	project := &domain.Project{
		ID:               uuid.New(),
		Name:             input.Name,
		ClientName:       input.ClientName,
		CompanyStateCode: input.CompanyStateCode,
		ClientStateCode:  input.ClientStateCode,
		NextRA:           1,
	}

	items := make([]domain.BOQItem, 0, len(input.Items))
	for i, in := range input.Items {
		if in.AuthorizedQty.IsNegative() || in.Rate.IsNegative() {
			return nil, fmt.Errorf("boq item %d: authorized quantity and rate must be non-negative: %w",
				i, domain.ErrInvalidQuantity)
		}
		if in.TaxRate.IsNegative() {
			return nil, fmt.Errorf("boq item %d: %w", i, domain.ErrInvalidTaxRate)
		}
		items = append(items, domain.BOQItem{
			ID:             uuid.New(),
			ProjectID:      project.ID,
			Seq:            i + 1,
			Description:    in.Description,
			NormalizedDesc: matcher.Normalize(in.Description),
			Unit:           in.Unit,
			AuthorizedQty:  in.AuthorizedQty,
			Rate:           in.Rate,
			TaxRate:        in.TaxRate,
			BilledQty:      decimal.Zero,
			Version:        1,
		})
	}

	log.Printf("projectService.Create: creating project %s with %d boq items", project.ID, len(items))

	if err := s.projectRepo.Create(ctx, project, items); err != nil {
		log.Printf("projectService.Create: failed to create project: %v", err)
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return project, nil
}

func (s *projectService) GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return s.projectRepo.GetByID(ctx, projectID)
}

func (s *projectService) List(ctx context.Context, offset, limit int) ([]domain.Project, int, error) {
	return s.projectRepo.List(ctx, offset, limit)
}

func (s *projectService) ListItems(ctx context.Context, projectID uuid.UUID) ([]domain.BOQItem, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.boqRepo.ListByProject(ctx, projectID)
}

// GetItem returns one catalog item scoped to its project; an item id from
// another project resolves to domain.ErrItemNotFound.
func (s *projectService) GetItem(ctx context.Context, projectID, itemID uuid.UUID) (*domain.BOQItem, error) {
	return s.boqRepo.GetByID(ctx, projectID, itemID)
}
