package articles

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/amanah-org/amanah/internal/departments"
	"github.com/amanah-org/amanah/internal/roles"
	"github.com/amanah-org/amanah/internal/shared"
)

// RepositoryPort defines data access methods for articles and the
// authorized-department set.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Article, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]Article, error)
	Create(ctx context.Context, article Article) (Article, error)
	Update(ctx context.Context, article Article) (Article, error)
	Delete(ctx context.Context, id int64) error
	AuthorizedDepartmentIDs(ctx context.Context) ([]int64, error)
	ReplaceAuthorizedDepartments(ctx context.Context, departmentIDs []int64) error
}

// DepartmentPort validates department ids and resolves their names.
type DepartmentPort interface {
	Resolve(ctx context.Context, ids []int64) ([]departments.Department, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns article CRUD and the capability-set replace operation.
type Service struct {
	repo        RepositoryPort
	resolver    *Resolver
	departments DepartmentPort
	audit       AuditPort
	collator    *collate.Collator
}

// NewService builds Service instance. Department names in capability listings
// are sorted with Indonesian collation.
func NewService(repo RepositoryPort, resolver *Resolver, deps DepartmentPort, audit AuditPort) *Service {
	return &Service{
		repo:        repo,
		resolver:    resolver,
		departments: deps,
		audit:       audit,
		collator:    collate.New(language.Indonesian),
	}
}

// Get returns one article. Reading is open to any authenticated member.
func (s *Service) Get(ctx context.Context, id int64) (Article, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of articles with pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Article, shared.Pagination, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	meta := shared.NewPagination(page, perPage, total)
	list, err := s.repo.List(ctx, meta.PerPage, (meta.Page-1)*meta.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, meta, nil
}

// Create publishes a new article authored by the actor.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, input CreateInput) (Article, error) {
	if actor == nil {
		return Article{}, fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if err := validateInput(input); err != nil {
		return Article{}, err
	}
	allowed, err := s.resolver.CanManageArticle(ctx, actor)
	if err != nil {
		return Article{}, err
	}
	if !allowed {
		return Article{}, fmt.Errorf("%w: not allowed to manage articles", shared.ErrPermissionDenied)
	}
	return s.repo.Create(ctx, Article{
		Title:    input.Title,
		Content:  input.Content,
		AuthorID: actor.ID,
	})
}

// Update edits an existing article. Edit rights are re-evaluated against the
// current capability set on every call.
func (s *Service) Update(ctx context.Context, actor *shared.Actor, id int64, input UpdateInput) (Article, error) {
	if actor == nil {
		return Article{}, fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	if err := validateInput(input); err != nil {
		return Article{}, err
	}
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return Article{}, err
	}
	allowed, err := s.resolver.CanEditArticle(ctx, actor, article)
	if err != nil {
		return Article{}, err
	}
	if !allowed {
		return Article{}, fmt.Errorf("%w: not allowed to edit this article", shared.ErrPermissionDenied)
	}
	article.Title = input.Title
	article.Content = input.Content
	return s.repo.Update(ctx, article)
}

// Delete removes an article under the same rule as editing it.
func (s *Service) Delete(ctx context.Context, actor *shared.Actor, id int64) error {
	if actor == nil {
		return fmt.Errorf("%w: no verified actor", shared.ErrUnauthenticated)
	}
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	allowed, err := s.resolver.CanEditArticle(ctx, actor, article)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: not allowed to delete this article", shared.ErrPermissionDenied)
	}
	return s.repo.Delete(ctx, id)
}

// AuthorizedDepartments returns the current capability set with names,
// collated for display.
func (s *Service) AuthorizedDepartments(ctx context.Context) ([]departments.Department, error) {
	ids, err := s.repo.AuthorizedDepartmentIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []departments.Department{}, nil
	}
	deps, err := s.departments.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.sortByName(deps)
	return deps, nil
}

// ReplaceAuthorizedDepartments atomically swaps the whole capability set.
// The new set replaces the old one outright; it is never merged. Restricted
// to top-level officers.
func (s *Service) ReplaceAuthorizedDepartments(ctx context.Context, actor *shared.Actor, newSet []int64) ([]departments.Department, error) {
	if err := roles.RequireMinimumRole(actor, shared.RoleWakilKetua); err != nil {
		return nil, err
	}
	deps, err := s.departments.Resolve(ctx, newSet)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(deps))
	for i, dep := range deps {
		ids[i] = dep.ID
	}
	if err := s.repo.ReplaceAuthorizedDepartments(ctx, ids); err != nil {
		return nil, err
	}
	s.recordReplace(ctx, actor, ids)
	s.sortByName(deps)
	return deps, nil
}

func (s *Service) sortByName(deps []departments.Department) {
	sort.Slice(deps, func(i, j int) bool {
		return s.collator.CompareString(deps[i].Name, deps[j].Name) < 0
	})
}

func (s *Service) recordReplace(ctx context.Context, actor *shared.Actor, ids []int64) {
	if s.audit == nil {
		return
	}
	rendered := make([]string, len(ids))
	for i, id := range ids {
		rendered[i] = fmt.Sprintf("%d", id)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "articles.capability_replace",
		Entity:   "article_departments",
		EntityID: "singleton",
		Meta:     map[string]any{"department_ids": strings.Join(rendered, ",")},
	})
}

func validateInput(input CreateInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Content) == "" {
		return fmt.Errorf("%w: content is required", shared.ErrValidation)
	}
	return nil
}
