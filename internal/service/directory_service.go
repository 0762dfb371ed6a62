package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/events"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/repository"
	"github.com/spec-kit/employee-directory/internal/seed"
	apperrors "github.com/spec-kit/employee-directory/pkg/util/errorutil"
)

// Messages shown to the user.
const (
	MessageMissingFields = "Name and department cannot be empty"
	MessageNoMatch       = "No match found."
	MessagePersistFailed = "changes could not be saved and are kept in memory only"
)

// DirectoryService is the single owner of the employee collection. Every
// mutation persists the collection before returning.
type DirectoryService struct {
	mu        sync.RWMutex
	employees []domain.Employee
	hydrated  bool
	source    domain.HydrationSource

	repo       repository.EmployeeRepository
	seed       seed.Source
	collator   *collate.Collator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	Repo       repository.EmployeeRepository
	Seed       seed.Source
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// SortLocale is a BCP 47 tag; unparseable values fall back to English.
	SortLocale string
}

// NewDirectoryService constructs the service with an empty collection.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	tag, err := language.Parse(deps.SortLocale)
	if err != nil {
		tag = language.English
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	src := deps.Seed
	if src == nil {
		src = seed.NewStaticSource(nil)
	}
	return &DirectoryService{
		employees:  []domain.Employee{},
		repo:       deps.Repo,
		seed:       src,
		collator:   collate.New(tag),
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Hydrate populates the collection once: from the persisted entry when it
// holds records, otherwise from the seed source. Failures are logged and leave
// the collection empty. Later calls return the first call's source.
func (s *DirectoryService) Hydrate(ctx context.Context) domain.HydrationSource {
	source, pending := s.hydrate(ctx)
	s.publish(ctx, pending)
	return source
}

func (s *DirectoryService) hydrate(ctx context.Context) (domain.HydrationSource, eventBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending eventBatch
	if s.hydrated {
		return s.source, pending
	}
	s.hydrated = true

	persisted, found, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("persisted collection unreadable, using seed", zap.Error(err))
	}
	if err == nil && found && len(persisted) > 0 {
		s.employees = persisted
		s.finishHydration(domain.HydratedFromPersisted, &pending)
		return s.source, pending
	}

	seeded, err := s.seed.Load(ctx)
	if err != nil {
		s.logger.Error("error loading employees", zap.String("seed", s.seed.Name()), zap.Error(err))
		s.finishHydration(domain.HydratedFromNone, &pending)
		return s.source, pending
	}
	s.employees = seeded
	s.finishHydration(domain.HydratedFromSeed, &pending)
	s.persistOrDegrade(ctx, "hydrate", &pending)
	return s.source, pending
}

func (s *DirectoryService) finishHydration(source domain.HydrationSource, pending *eventBatch) {
	s.source = source
	s.metrics.RecordOperation("hydrate", string(source))
	s.metrics.SetCollectionSize(len(s.employees))
	s.logger.Info("collection hydrated", zap.String("source", string(source)), zap.Int("count", len(s.employees)))
	pending.add(events.EventCollectionHydrated, events.CollectionHydratedPayload{
		Source: source,
		Count:  len(s.employees),
	})
}

// Persist writes the current collection. Mutations persist on their own; this
// is the explicit flush run at shutdown. An empty collection is never written.
func (s *DirectoryService) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.save(ctx); err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

// Add appends record after checking name and department are present.
func (s *DirectoryService) Add(ctx context.Context, record domain.Employee) (domain.MutationResult, error) {
	if record.Name == "" || record.Department == "" {
		s.metrics.RecordOperation("add", "invalid")
		return domain.MutationResult{}, apperrors.NewValidationError(MessageMissingFields, map[string]any{
			"name_missing":       record.Name == "",
			"department_missing": record.Department == "",
		})
	}

	result, pending := s.add(ctx, record)
	s.publish(ctx, pending)
	return result, nil
}

func (s *DirectoryService) add(ctx context.Context, record domain.Employee) (domain.MutationResult, eventBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending eventBatch
	s.employees = append(s.employees, record)
	s.metrics.RecordOperation("add", "ok")
	s.metrics.SetCollectionSize(len(s.employees))
	result := s.persistOrDegrade(ctx, "add", &pending)
	pending.add(events.EventEmployeeAdded, events.EmployeeAddedPayload{
		Employee: record,
		Count:    len(s.employees),
	})
	return result, pending
}

// Sort orders the collection by name using the configured collation. Equal
// names keep their relative order.
func (s *DirectoryService) Sort(ctx context.Context) domain.MutationResult {
	result, pending := s.sort(ctx)
	s.publish(ctx, pending)
	return result
}

func (s *DirectoryService) sort(ctx context.Context) (domain.MutationResult, eventBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending eventBatch
	sorted := clone(s.employees)
	slices.SortStableFunc(sorted, func(a, b domain.Employee) int {
		return s.collator.CompareString(a.Name, b.Name)
	})
	s.employees = sorted
	s.metrics.RecordOperation("sort", "ok")
	result := s.persistOrDegrade(ctx, "sort", &pending)
	pending.add(events.EventCollectionSorted, events.CollectionSortedPayload{Count: len(sorted)})
	return result, pending
}

// Search returns every record whose name equals term, ignoring case.
func (s *DirectoryService) Search(term string) domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := fold(term)
	var matches []domain.Employee
	for _, emp := range s.employees {
		if fold(emp.Name) == want {
			matches = append(matches, emp)
		}
	}
	result := domain.NewSearchResult(matches)
	s.metrics.RecordOperation("search", string(result.Kind))
	return result
}

// Filter returns records whose department contains department, ignoring case.
// An empty filter returns the whole collection.
func (s *DirectoryService) Filter(department string) []domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if department == "" {
		return clone(s.employees)
	}
	needle := fold(department)
	matches := make([]domain.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		if strings.Contains(fold(emp.Department), needle) {
			matches = append(matches, emp)
		}
	}
	return matches
}

// List returns a copy of the collection.
func (s *DirectoryService) List() []domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.employees)
}

// Refresh re-reads the persisted entry and adopts it when present, picking up
// writes made outside this process. When nothing is persisted the collection
// is kept as is.
func (s *DirectoryService) Refresh(ctx context.Context) ([]domain.Employee, error) {
	employees, pending, err := s.refresh(ctx)
	s.publish(ctx, pending)
	return employees, err
}

func (s *DirectoryService) refresh(ctx context.Context) ([]domain.Employee, eventBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending eventBatch
	persisted, found, err := s.repo.Load(ctx)
	if err != nil {
		s.metrics.RecordOperation("refresh", "failed")
		s.logger.Warn("refresh failed", zap.Error(err))
		return clone(s.employees), pending, apperrors.NewStorageUnavailable(err)
	}
	if found {
		s.employees = persisted
		s.metrics.SetCollectionSize(len(s.employees))
	}
	s.metrics.RecordOperation("refresh", "ok")
	pending.add(events.EventCollectionRefreshed, events.CollectionRefreshedPayload{
		Replaced: found,
		Count:    len(s.employees),
	})
	return clone(s.employees), pending, nil
}

// Ping checks the persistence backend.
func (s *DirectoryService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *DirectoryService) save(ctx context.Context) (bool, error) {
	if len(s.employees) == 0 {
		return false, nil
	}
	if err := s.repo.Save(ctx, s.employees); err != nil {
		return false, err
	}
	return true, nil
}

// persistOrDegrade keeps the in-memory change when the write fails and
// reports it through the result warning. Callers hold the write lock.
func (s *DirectoryService) persistOrDegrade(ctx context.Context, operation string, pending *eventBatch) domain.MutationResult {
	result := domain.MutationResult{Employees: clone(s.employees)}
	persisted, err := s.save(ctx)
	if err != nil {
		s.metrics.RecordOperation("persist", "failed")
		s.logger.Warn("persist failed, continuing in memory",
			zap.String("operation", operation),
			zap.Error(err))
		pending.add(events.EventPersistFailed, events.PersistFailedPayload{
			Operation: operation,
			Error:     err.Error(),
		})
		result.Warning = MessagePersistFailed
		return result
	}
	if persisted {
		s.metrics.RecordOperation("persist", "ok")
	}
	result.Persisted = persisted
	return result
}

// eventBatch collects events raised under the lock so they are dispatched
// after it is released.
type eventBatch []events.Event

func (b *eventBatch) add(eventType events.EventType, payload any) {
	*b = append(*b, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// publish must not be called with s.mu held: handlers may block on I/O.
func (s *DirectoryService) publish(ctx context.Context, pending eventBatch) {
	if s.dispatcher == nil || len(pending) == 0 {
		return
	}
	if err := events.PublishAll(ctx, s.dispatcher, pending...); err != nil {
		s.logger.Warn("event handler failed", zap.Int("events", len(pending)), zap.Error(err))
	}
}

// fold applies Unicode case folding; a Caser is stateful, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

func clone(employees []domain.Employee) []domain.Employee {
	return append(make([]domain.Employee, 0, len(employees)), employees...)
}
