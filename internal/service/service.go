// Package service implements the database facade used by every front end.
// It adds the business rules of the local food store on top of the raw
// repository: ownership stamping, merge-on-add for inventory, category
// bootstrapping from locale defaults, icon validation, export and import,
// automatic backups and the two-phase guest-to-account migration.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/atinyakov/foodsai/internal/models"
)

var (
	// ErrNotFound is returned when an operation targets a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidSVG is returned for icon markup that is not a well-formed SVG document.
	ErrInvalidSVG = errors.New("invalid svg")
	// ErrBuiltinIcon is returned when deleting an icon shipped with the application.
	ErrBuiltinIcon = errors.New("builtin icons cannot be deleted")
	// ErrNoSession is returned when no guest or authenticated session is active.
	ErrNoSession = errors.New("no active session")
	// ErrMigrationPending is returned while a staged migration blocks the operation.
	ErrMigrationPending = errors.New("migration pending")
)

// anonymous is stamped as owner when no session is active.
const anonymous = "guest"

// SessionProvider resolves the identity that owns new records.
type SessionProvider interface {
	// CurrentUserID returns the active guest or account id, or ErrNoSession.
	CurrentUserID(ctx context.Context) (string, error)
}

// RemoteSync hands a staged migration to the remote account service.
type RemoteSync interface {
	PushMigration(ctx context.Context, m models.PendingMigration) (models.MigrationAck, error)
}

// Service is the database facade. It is safe for concurrent use.
type Service struct {
	store   Store
	remote  RemoteSync
	log     *zap.Logger
	session SessionProvider

	// addMu serializes the lookup and write of merge-on-add.
	addMu sync.Mutex
	// migrateMu serializes migration attempts.
	migrateMu sync.Mutex
	// dataMu is read-locked by writes to local data and write-locked while
	// a migration exports, pushes and clears it.
	dataMu sync.RWMutex
	seed      singleflight.Group
	// iconsSeeded is set once the builtin icon set was stored.
	iconsSeeded atomic.Bool

	now func() time.Time
}

// NewDatabaseService constructs the facade over store. remote may be nil,
// in which case migrations can be staged but never pushed.
func NewDatabaseService(store Store, remote RemoteSync, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		remote: remote,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetSessionProvider sets the identity source used for ownership stamping.
// It must be called before the service is shared between goroutines.
func (s *Service) SetSessionProvider(p SessionProvider) {
	s.session = p
}

// actor returns the id stamped into createdBy/updatedBy fields.
func (s *Service) actor(ctx context.Context) string {
	if s.session == nil {
		return anonymous
	}
	id, err := s.session.CurrentUserID(ctx)
	if err != nil || id == "" {
		return anonymous
	}
	return id
}

// beginWrite reserves local data for one write. It fails with
// ErrMigrationPending while a migration push is in flight.
func (s *Service) beginWrite() (func(), error) {
	if !s.dataMu.TryRLock() {
		return nil, fmt.Errorf("%w: handoff in progress", ErrMigrationPending)
	}
	return s.dataMu.RUnlock, nil
}

func validate(v any) error {
	if err := models.Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// notFound maps the repository's not-found error onto ErrNotFound.
func notFound(err error) error {
	if isStoreNotFound(err) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
