package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sort selects the ordering of a lead listing.
type Sort string

const (
	SortCreatedDesc Sort = "created_desc"
	SortNameAsc     Sort = "name_asc"
	SortNameDesc    Sort = "name_desc"
)

// ParseSort maps a query parameter to a Sort, defaulting to newest-first.
func ParseSort(raw string) Sort {
	switch Sort(raw) {
	case SortNameAsc, SortNameDesc, SortCreatedDesc:
		return Sort(raw)
	}
	return SortCreatedDesc
}

// StatusAll is the filter value that disables status filtering.
const StatusAll = "ALL"

// ListFilter narrows a listing. Search is a case-insensitive substring match
// over name, email, phone, service and notes.
type ListFilter struct {
	Search string
	Status string
	Sort   Sort
}

// Repository defines lead storage. Every method is scoped to the owning user;
// ids belonging to other users behave exactly like missing ids.
type Repository interface {
	List(ctx context.Context, userID string, filter ListFilter) ([]Lead, error)
	Get(ctx context.Context, userID, id string) (*Lead, error)
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	Update(ctx context.Context, userID, id string, req *UpdateLeadRequest) (*Lead, error)
	Delete(ctx context.Context, userID, id string) error
	Recent(ctx context.Context, userID string, limit int) ([]Lead, error)
}

// InMemoryRepository keeps leads in a mutex-guarded map. Used by tests and
// local development without a database.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{leads: make(map[string]*Lead)}
}

func (r *InMemoryRepository) List(ctx context.Context, userID string, filter ListFilter) ([]Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Lead{}
	for _, l := range r.leads {
		if l.UserID != userID {
			continue
		}
		if !matchesFilter(l, filter) {
			continue
		}
		out = append(out, *l)
	}
	sortLeads(out, filter.Sort)
	return out, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, userID, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leads[id]
	if !ok || l.UserID != userID {
		return nil, ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Service:    req.Service,
		Status:     req.Status,
		Source:     req.Source,
		Notes:      req.Notes,
		FollowUpOn: req.FollowUpOn,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	cp := *lead
	return &cp, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, userID, id string, req *UpdateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.empty() {
		return r.Get(ctx, userID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok || l.UserID != userID {
		return nil, ErrLeadNotFound
	}

	req.apply(l)
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	return &cp, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok || l.UserID != userID {
		return ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *InMemoryRepository) Recent(ctx context.Context, userID string, limit int) ([]Lead, error) {
	all, err := r.List(ctx, userID, ListFilter{Sort: SortCreatedDesc})
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func matchesFilter(l *Lead, filter ListFilter) bool {
	if filter.Status != "" && filter.Status != StatusAll && string(l.Status) != filter.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{l.Name, l.Email, l.Phone, l.Service, l.Notes} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortLeads(out []Lead, by Sort) {
	switch by {
	case SortNameAsc:
		sort.Slice(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortNameDesc:
		sort.Slice(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name)
		})
	default:
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
}
