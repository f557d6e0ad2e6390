package services

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// EventPublisher announces durably appended records.
type EventPublisher interface {
	PublishRecordAppended(ctx context.Context, owner string, rec core.Record) error
}

// LedgerService loads ledgers for authenticated identities, appends records
// and computes the summary views. Every append persists the whole ledger
// before the in-memory ledger changes.
type LedgerService struct {
	store     storage.LedgerStore
	publisher EventPublisher
	now       func() time.Time
	logger    *log.Logger
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithPublisher publishes a RecordAppended event after each append.
func WithPublisher(p EventPublisher) LedgerOption {
	return func(s *LedgerService) { s.publisher = p }
}

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) LedgerOption {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(store storage.LedgerStore, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:  store,
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	return s
}

// Load returns the persisted ledger of id, creating an empty one if none
// exists. Calling it repeatedly never duplicates or overwrites rows.
func (s *LedgerService) Load(ctx context.Context, id Identity) (*core.Ledger, error) {
	if id.IsZero() {
		return nil, core.ErrEmptyIdentifier
	}
	owner := id.String()

	records, found, err := s.store.LoadLedger(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if !found {
		if err := s.store.CreateLedger(ctx, owner); err != nil {
			return nil, fmt.Errorf("create ledger: %w", err)
		}
		s.logger.InfoContext(ctx, "Created empty ledger", log.FieldOwner, owner)
	}

	ledger := core.NewLedger(owner)
	ledger.Records = append(ledger.Records, records...)
	s.logger.DebugContext(ctx, "Ledger loaded",
		log.FieldOwner, owner,
		log.FieldRecords, ledger.Len(),
		log.FieldOperation, log.OpLoad)
	return ledger, nil
}

// Append validates in, persists the ledger with the new record at its end
// and only then adds the record to ledger. On any error ledger and storage
// are unchanged.
func (s *LedgerService) Append(ctx context.Context, ledger *core.Ledger, in core.RecordInput) (*core.Ledger, error) {
	if ledger == nil || ledger.Owner == "" {
		return nil, core.ErrEmptyIdentifier
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, in.Amount)
	}

	date := in.Date
	if date.IsZero() {
		date = core.DateOf(s.now())
	} else if !date.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidDate, date.String())
	}

	rec := core.Record{
		Date:     date,
		Category: core.NormalizeLineBreaks(in.Category),
		Amount:   amount,
		Note:     core.NormalizeLineBreaks(in.Note),
	}

	records := append(storage.CloneRecords(ledger.Records), rec)
	if err := s.store.SaveLedger(ctx, ledger.Owner, records); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist ledger",
			log.NewFields().
				WithOperation(log.OpAppend).
				WithRecord(ledger.Owner, rec.Date.String(), rec.Category, core.FormatAmount(rec.Amount)).
				WithError(err, log.ErrorTypeStorage).
				ToSlice()...)
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	ledger.Records = records

	s.logger.InfoContext(ctx, "Record appended",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithRecord(ledger.Owner, rec.Date.String(), rec.Category, core.FormatAmount(rec.Amount)).
			With(log.FieldRecords, len(records)).
			ToSlice()...)

	s.publish(ctx, ledger.Owner, rec)
	return ledger, nil
}

// publish never fails the append: the record is already durable.
func (s *LedgerService) publish(ctx context.Context, owner string, rec core.Record) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordAppended(ctx, owner, rec); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish record appended event",
			log.FieldOwner, owner,
			log.FieldOperation, log.OpPublish,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
	}
}

// ListAll returns the records in stored order. An empty result means the
// ledger has no data.
func (s *LedgerService) ListAll(ledger *core.Ledger) []core.Record {
	if ledger.IsEmpty() {
		return []core.Record{}
	}
	return storage.CloneRecords(ledger.Records)
}

func (s *LedgerService) SummarizeByCategory(ledger *core.Ledger) core.CategoryTotals {
	return core.SummarizeByCategory(recordsOf(ledger))
}

func (s *LedgerService) SummarizeByMonth(ledger *core.Ledger) (core.MonthTotals, error) {
	return core.SummarizeByMonth(recordsOf(ledger))
}

// SummarizeLastNDays returns the records dated on or after now minus n days.
func (s *LedgerService) SummarizeLastNDays(ledger *core.Ledger, now time.Time, n int) (core.Window, error) {
	return core.SummarizeLastNDays(recordsOf(ledger), now, n)
}

// Now returns the service clock's current time.
func (s *LedgerService) Now() time.Time {
	return s.now()
}

func recordsOf(ledger *core.Ledger) []core.Record {
	if ledger == nil {
		return nil
	}
	return ledger.Records
}
