package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/abtracker/internal/telemetry/metrics"
	"github.com/2beens/abtracker/internal/telemetry/tracing"
	"github.com/2beens/abtracker/internal/workout"
	"github.com/2beens/abtracker/internal/workout/catalog"
	"github.com/2beens/abtracker/internal/workout/history"
	"github.com/2beens/abtracker/internal/workout/logs"
	"github.com/2beens/abtracker/internal/workout/session"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=tracker_test

const (
	megabyte            = 1024 * 1024
	progressCacheExpire = 60 * 60 // seconds
)

var (
	ErrTemplateNotFound = errors.New("workout template not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrNoHistory        = errors.New("exercise has no logged sessions")
)

// RejectionError is returned when a submission does not pass validation.
// Nothing is logged in that case.
type RejectionError struct {
	TemplateID string
	Reason     session.Reason
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("session for template %s rejected: %s", e.TemplateID, e.Reason)
}

type logsRepo interface {
	Add(ctx context.Context, entry workout.LogEntry) (*workout.LogEntry, error)
	ListAll(ctx context.Context) ([]workout.LogEntry, error)
	Count(ctx context.Context) (int, error)
}

type preferencesStore interface {
	AllowPartial(ctx context.Context) (bool, error)
}

type Params struct {
	Catalog            *catalog.Catalog
	Repo               logsRepo
	Preferences        preferencesStore
	IDGenerator        *logs.IDGenerator
	Metrics            *metrics.Manager
	CacheSizeMegabytes int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	catalog     *catalog.Catalog
	repo        logsRepo
	preferences preferencesStore
	idGenerator *logs.IDGenerator
	metrics     *metrics.Manager
	cache       *freecache.Cache
	now         func() time.Time

	// serializes appends, so append order matches id order
	appendMutex sync.Mutex
}

func NewService(params Params) *Service {
	cacheSize := params.CacheSizeMegabytes * megabyte
	if cacheSize <= 0 {
		cacheSize = 8 * megabyte
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	idGenerator := params.IDGenerator
	if idGenerator == nil {
		idGenerator = logs.NewIDGenerator(0)
	}

	return &Service{
		catalog:     params.Catalog,
		repo:        params.Repo,
		preferences: params.Preferences,
		idGenerator: idGenerator,
		metrics:     params.Metrics,
		cache:       freecache.NewCache(cacheSize),
		now:         now,
	}
}

func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// LogSession validates the raw inputs against the template and, when
// accepted, appends a new log entry stamped with the current time.
func (s *Service) LogSession(
	ctx context.Context,
	templateID string,
	inputs map[string]session.RawInput,
) (_ *workout.LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.logSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	template, ok := s.catalog.Template(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	allowPartial, err := s.preferences.AllowPartial(ctx)
	if err != nil {
		return nil, fmt.Errorf("read allow partial preference: %w", err)
	}

	result := session.Validate(template, inputs, allowPartial)
	if !result.Accepted() {
		s.metrics.CounterSessionsRejected.WithLabelValues(templateID, result.Reason.String()).Inc()
		return nil, &RejectionError{
			TemplateID: templateID,
			Reason:     result.Reason,
		}
	}

	s.appendMutex.Lock()
	defer s.appendMutex.Unlock()

	now := s.now()
	entry := workout.LogEntry{
		ID:         s.idGenerator.Next(now),
		TemplateID: template.ID,
		Date:       now.Format(workout.DateLayout),
		Sets:       result.Entries,
	}

	added, err := s.repo.Add(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("add log entry: %w", err)
	}
	s.cache.Clear()

	partial := len(result.Entries) < len(template.ExerciseIDs)
	s.metrics.CounterSessionsLogged.WithLabelValues(templateID, strconv.FormatBool(partial)).Inc()
	s.metrics.CounterSetsLogged.Add(float64(len(result.Entries)))

	log.Debugf("tracker: logged session %d for template %s with %d sets", added.ID, templateID, len(added.Sets))

	return added, nil
}

func (s *Service) Sessions(ctx context.Context) (_ []workout.LogEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.sessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	return entries, nil
}

// Progress returns per exercise histories over the whole log. Results
// are cached per log size, the log being append only.
func (s *Service) Progress(ctx context.Context) (_ history.Histories, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	count, err := s.repo.Count(ctx)
	if err != nil {
		return history.Histories{}, fmt.Errorf("count log entries: %w", err)
	}

	cacheKey := []byte(fmt.Sprintf("progress::%d", count))
	if cached, err := s.cache.Get(cacheKey); err == nil {
		var list []history.ExerciseHistory
		if err := json.Unmarshal(cached, &list); err != nil {
			log.Errorf("tracker: unmarshal cached progress: %s", err)
		} else {
			s.metrics.CounterProgressCacheHits.Inc()
			return history.NewHistories(list), nil
		}
	}
	s.metrics.CounterProgressCacheMisses.Inc()

	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return history.Histories{}, fmt.Errorf("list log entries: %w", err)
	}

	histories := history.Aggregate(entries, s.catalog.Exercises())

	// the log may have grown between Count and ListAll
	cacheKey = []byte(fmt.Sprintf("progress::%d", len(entries)))
	if progressBytes, err := json.Marshal(histories.List()); err != nil {
		log.Errorf("tracker: marshal progress: %s", err)
	} else if err := s.cache.Set(cacheKey, progressBytes, progressCacheExpire); err != nil {
		log.Errorf("tracker: cache progress: %s", err)
	}

	return histories, nil
}

func (s *Service) ExerciseProgress(ctx context.Context, exerciseID string) (_ history.ExerciseHistory, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.exerciseProgress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, ok := s.catalog.Exercise(exerciseID); !ok {
		return history.ExerciseHistory{}, fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
	}

	histories, err := s.Progress(ctx)
	if err != nil {
		return history.ExerciseHistory{}, err
	}

	exHistory, ok := histories.Get(exerciseID)
	if !ok {
		return history.ExerciseHistory{}, fmt.Errorf("%w: %s", ErrNoHistory, exerciseID)
	}
	return exHistory, nil
}
