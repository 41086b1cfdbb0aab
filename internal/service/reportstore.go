package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/trip-tracker/internal/domain"
	"github.com/pkordes/trip-tracker/internal/notify"
	"github.com/pkordes/trip-tracker/internal/repo"
)

// ReportsKey is the blob key the report list is persisted under.
const ReportsKey = "ContactReports"

// ReportInput is the raw contact form. Submit normalises it before validating.
type ReportInput struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Surname     string    `json:"surname" validate:"required,max=100"`
	Email       string    `json:"email" validate:"required,email"`
	Phone       string    `json:"phone" validate:"omitempty,max=32"`
	ReportDate  time.Time `json:"reportDate"`
	Description string    `json:"description" validate:"required,max=2000"`
}

// ReportStore keeps the contact reports in memory and writes the whole list
// back to the blob store after every change. The list is read once, at
// construction; later external writes to the blob are not picked up.
type ReportStore struct {
	blobs    repo.BlobStore
	badge    notify.BadgeNotifier
	log      *slog.Logger
	validate *validator.Validate

	mu      sync.Mutex
	reports []domain.ContactReport
	version uint64

	// notifyMu orders badge deliveries; delivered is the version last sent.
	notifyMu  sync.Mutex
	delivered uint64
}

// NewReportStore loads the persisted list from blobs and sets the badge to its
// length. A missing or unreadable blob starts the store empty; the problem is
// logged, not returned.
func NewReportStore(ctx context.Context, blobs repo.BlobStore, badge notify.BadgeNotifier, logger *slog.Logger) *ReportStore {
	if logger == nil {
		logger = slog.Default()
	}
	if badge == nil {
		badge = notify.NewLogNotifier(logger)
	}

	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	s := &ReportStore{
		blobs:    blobs,
		badge:    badge,
		log:      logger,
		validate: v,
		reports:  []domain.ContactReport{},
	}
	s.mu.Lock()
	s.load(ctx)
	n, version := s.bump()
	s.mu.Unlock()

	s.notify(ctx, n, version)
	return s
}

// load must be called with mu held.
func (s *ReportStore) load(ctx context.Context) {
	data, err := s.blobs.Get(ctx, ReportsKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Info("no persisted contact reports, starting empty")
		} else {
			s.log.Warn("could not read contact reports, starting empty", "error", err)
		}
		return
	}

	var reports []domain.ContactReport
	if err := json.Unmarshal(data, &reports); err != nil {
		s.log.Warn("persisted contact reports are unreadable, starting empty", "error", err)
		return
	}
	if reports != nil {
		s.reports = reports
	}
	s.log.Info("loaded contact reports", "count", len(s.reports))
}

// Save appends report and persists the list.
func (s *ReportStore) Save(ctx context.Context, report domain.ContactReport) error {
	s.mu.Lock()
	s.reports = append(s.reports, report)
	n, err := s.persist(ctx)
	v := s.version
	s.mu.Unlock()

	s.notify(ctx, n, v)
	if err != nil {
		return fmt.Errorf("service.ReportStore.Save: %w", err)
	}
	return nil
}

// Delete removes the report at index. A negative or out-of-range index is a
// no-op: nothing is persisted and no badge update is sent.
func (s *ReportStore) Delete(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.reports) {
		s.mu.Unlock()
		return nil
	}
	s.reports = append(s.reports[:index:index], s.reports[index+1:]...)
	n, err := s.persist(ctx)
	v := s.version
	s.mu.Unlock()

	s.notify(ctx, n, v)
	if err != nil {
		return fmt.Errorf("service.ReportStore.Delete: %w", err)
	}
	return nil
}

// DeleteMany removes every valid position in indices in a single pass and
// persists once. Duplicates and out-of-range positions are ignored; when no
// position is valid nothing happens.
func (s *ReportStore) DeleteMany(ctx context.Context, indices []int) error {
	s.mu.Lock()
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(s.reports) {
			drop[i] = struct{}{}
		}
	}
	if len(drop) == 0 {
		s.mu.Unlock()
		return nil
	}

	kept := make([]domain.ContactReport, 0, len(s.reports)-len(drop))
	for i, r := range s.reports {
		if _, ok := drop[i]; !ok {
			kept = append(kept, r)
		}
	}
	s.reports = kept
	n, err := s.persist(ctx)
	v := s.version
	s.mu.Unlock()

	s.notify(ctx, n, v)
	if err != nil {
		return fmt.Errorf("service.ReportStore.DeleteMany: %w", err)
	}
	return nil
}

// Submit normalises and validates a contact form, then saves it as a new
// report. Fields are trimmed, the email is lower-cased, a blank phone becomes
// nil and a zero ReportDate becomes now. Invalid input returns an error
// wrapping domain.ErrValidation.
func (s *ReportStore) Submit(ctx context.Context, in ReportInput) (domain.ContactReport, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Description = strings.TrimSpace(in.Description)

	if err := s.validate.Struct(in); err != nil {
		return domain.ContactReport{}, fmt.Errorf("service.ReportStore.Submit: %w: %s", domain.ErrValidation, describe(err))
	}

	var phone *string
	if in.Phone != "" {
		phone = &in.Phone
	}
	date := in.ReportDate
	if date.IsZero() {
		date = time.Now()
	}

	report := domain.NewContactReport(in.Name, in.Surname, in.Email, phone, date, in.Description)
	if err := s.Save(ctx, report); err != nil {
		return report, fmt.Errorf("service.ReportStore.Submit: %w", err)
	}
	return report, nil
}

// Reports returns a copy of the current list.
func (s *ReportStore) Reports() []domain.ContactReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ContactReport{}, s.reports...)
}

func (s *ReportStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// bump records a change to the list and returns its length and new version.
// Must hold mu.
func (s *ReportStore) bump() (int, uint64) {
	s.version++
	return len(s.reports), s.version
}

// persist bumps the version and writes the whole list, returning its length.
// Must hold mu.
func (s *ReportStore) persist(ctx context.Context) (int, error) {
	n, _ := s.bump()
	data, err := json.Marshal(s.reports)
	if err != nil {
		return n, fmt.Errorf("encode reports: %w", err)
	}
	if err := s.blobs.Set(ctx, ReportsKey, data); err != nil {
		return n, err
	}
	return n, nil
}

// notify pushes the badge count for version v. Deliveries are serialised and a
// count older than the last one delivered is dropped, so the badge always ends
// on the latest list length. Failures are logged and swallowed.
func (s *ReportStore) notify(ctx context.Context, n int, v uint64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if v <= s.delivered {
		s.log.Debug("skipping stale badge count", "count", n, "version", v)
		return
	}
	s.delivered = v
	if err := s.badge.SetBadgeCount(ctx, n); err != nil {
		s.log.Warn("badge update failed", "count", n, "error", err)
	}
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}
