package core

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"bizcore/internal/blob"
	"bizcore/internal/diaglog"
	"bizcore/pkg/apperr"
)

// Service is the only layer permitted to enforce business rules: it wraps
// the dumb persistent store with validation, duplicate detection and
// instrumentation. One instance serves all entity families.
type Service struct {
	store   PersistentStore
	log     *diaglog.Logger
	metrics MetricsRecorder
	tracer  Tracer
	blobs   blob.Store
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithLogger injects the diagnostic logger. Without it the service creates
// its own instance.
func WithLogger(l *diaglog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsRecorder injects a metrics sink for operation outcomes.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithTracer injects a tracer producing one span per service operation.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// WithBlobStore enables document-content archival onto the given backend.
func WithBlobStore(b blob.Store) ServiceOption {
	return func(s *Service) { s.blobs = b }
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = diaglog.New()
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the default rules engine.
func NewInMemoryService(opts ...ServiceOption) *Service {
	store, err := OpenPersistentStore(StorageConfig{Driver: StorageMemory}, NewDefaultRulesEngine())
	if err != nil {
		// memory driver cannot fail to open
		panic(err)
	}
	return NewService(store, opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Log returns the diagnostic logger used by this service.
func (s *Service) Log() *diaglog.Logger { return s.log }

// begin starts instrumentation for one operation; call the returned finish
// with the operation error.
func (s *Service) begin(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	return ctx, func(err error) {
		if span != nil {
			span.End(err)
		}
		if s.metrics != nil {
			s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
		}
	}
}

// commit runs fn transactionally, wraps non-taxonomy failures as storage
// errors, and logs any advisory rule violations raised by the commit.
func (s *Service) commit(ctx context.Context, operation string, fn func(Transaction) error) error {
	res, err := s.store.RunInTransaction(ctx, fn)
	if err != nil {
		var taxonomy *apperr.Error
		if errors.As(err, &taxonomy) {
			return taxonomy
		}
		var blocked RuleViolationError
		if errors.As(err, &blocked) {
			e := apperr.Normalize(err)
			e.Code = apperr.CodeRuleViolation
			e.Severity = apperr.SeverityMedium
			return e.WithDetail("violations", blocked.Result.Violations)
		}
		return apperr.NewStorage(operation, err)
	}
	for _, v := range res.Warnings() {
		payload := diaglog.Unstructured(map[string]any{"rule": v.Rule, "entity_id": v.EntityID})
		if v.Severity == SeverityLog {
			s.log.Info(string(v.Entity), operation, v.Message, payload)
		} else {
			s.log.Warn(string(v.Entity), operation, v.Message, payload)
		}
	}
	return nil
}

// Matches the address shape accepted on intake forms; deliberately loose.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool { return emailPattern.MatchString(email) }

func equalFold(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
