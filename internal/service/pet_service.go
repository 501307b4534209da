package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/islandlife/internal/domain"
)

var (
	ErrLastEntity        = errors.New("cannot delete the last entity")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrVoucherNotFound   = errors.New("voucher not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// snapshotWriter is the subset of snapshot.Adapter that PetService requires.
type snapshotWriter interface {
	SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// pushScheduler is the subset of remotesync.Engine that PetService requires.
type pushScheduler interface {
	SchedulePush()
}

// leadingNumber matches the decimal number at the start of a weight entry,
// so "28.5kg" reads as 28.5.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// PetService owns the in-memory store. Every successful mutation is written
// through to local storage and then schedules a remote push. Local write
// failures are logged and never undo the mutation.
type PetService struct {
	writer    snapshotWriter
	scheduler pushScheduler
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	snap *domain.Snapshot
}

// NewPetService starts from initial, or from the seeded example store when
// initial is nil or empty.
func NewPetService(initial *domain.Snapshot, writer snapshotWriter, scheduler pushScheduler, logger *slog.Logger) *PetService {
	var snap *domain.Snapshot
	if initial == nil || len(initial.Bundles) == 0 {
		snap = domain.SeedSnapshot(time.Now())
	} else {
		snap = initial.Clone()
		snap.EnsureActive()
	}
	return &PetService{
		writer:    writer,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
		snap:      snap,
	}
}

// Snapshot returns a deep copy of the whole store.
func (s *PetService) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

func (s *PetService) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.ActiveID
}

// Active returns a copy of the active bundle.
func (s *PetService) Active() *domain.EntityBundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Active().Clone()
}

// Entities lists every entity profile in id order.
func (s *PetService) Entities() []domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Entity, 0, len(s.snap.Bundles))
	for _, id := range s.snap.IDs() {
		e := s.snap.Bundles[id].Entity
		e.Tags = slices.Clone(e.Tags)
		out = append(out, e)
	}
	return out
}

// ReplaceAll swaps in a complete store, typically one pulled from the remote.
// It is written through locally but does not schedule a push.
func (s *PetService) ReplaceAll(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || len(snap.Bundles) == 0 {
		return fmt.Errorf("%w: empty snapshot", ErrInvalidInput)
	}
	next := snap.Clone()
	next.EnsureActive()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = next
	s.persistLocked(ctx)
	s.logger.Info("store replaced", "entities", len(next.Bundles), "active_id", next.ActiveID)
	return nil
}

// CreateEntity adds a seeded bundle and makes it active.
func (s *PetService) CreateEntity(ctx context.Context, name string) domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := domain.NewBundle(strings.TrimSpace(name), s.now())
	s.snap.Bundles[b.Entity.ID] = b
	s.snap.ActiveID = b.Entity.ID
	s.commitLocked(ctx)

	s.logger.Info("entity created", "id", b.Entity.ID, "name", b.Entity.Name)
	return b.Clone().Entity
}

// DeleteEntity removes a bundle. The last remaining bundle cannot be deleted.
func (s *PetService) DeleteEntity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snap.Bundles[id]; !ok {
		return ErrEntityNotFound
	}
	if len(s.snap.Bundles) <= 1 {
		return ErrLastEntity
	}
	delete(s.snap.Bundles, id)
	s.snap.EnsureActive()
	s.commitLocked(ctx)

	s.logger.Info("entity deleted", "id", id, "active_id", s.snap.ActiveID)
	return nil
}

func (s *PetService) SwitchActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snap.Bundles[id]; !ok {
		return ErrEntityNotFound
	}
	if s.snap.ActiveID == id {
		return nil
	}
	s.snap.ActiveID = id
	s.commitLocked(ctx)
	return nil
}

// UpdateProfile merges the non-nil fields of u into the active entity.
func (s *PetService) UpdateProfile(ctx context.Context, u domain.ProfileUpdate) domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	u.Apply(&b.Entity)
	s.commitLocked(ctx)
	return b.Clone().Entity
}

// UpdateWeight records the number raw starts with as this month's weight,
// keyed by the UTC calendar month. Input that does not start with a finite
// decimal number is ignored and false is returned.
func (s *PetService) UpdateWeight(ctx context.Context, raw string) bool {
	value, ok := parseWeight(raw)
	if !ok {
		s.logger.Debug("ignoring invalid weight", "value", raw)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	key := s.now().UTC().Format(domain.MonthKeyLayout)
	if i := slices.IndexFunc(b.WeightSamples, func(w domain.WeightSample) bool { return w.MonthKey == key }); i >= 0 {
		b.WeightSamples[i].Value = value
	} else {
		b.WeightSamples = append(b.WeightSamples, domain.WeightSample{MonthKey: key, Value: value})
	}
	slices.SortStableFunc(b.WeightSamples, func(a, c domain.WeightSample) int {
		return strings.Compare(a.MonthKey, c.MonthKey)
	})
	b.Entity.Weight = raw
	s.commitLocked(ctx)
	return true
}

func parseWeight(raw string) (float64, bool) {
	num := leadingNumber.FindString(strings.TrimSpace(raw))
	if num == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// AddServiceRecord prepends rec so the list stays most-recent-first.
func (s *PetService) AddServiceRecord(ctx context.Context, rec domain.ServiceRecord) domain.ServiceRecord {
	if rec.ID == "" {
		rec.ID = domain.NewID()
	}
	rec.PhotoRefs = slices.Clone(rec.PhotoRefs)
	rec.CategoryTags = slices.Clone(rec.CategoryTags)

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	b.ServiceRecords = slices.Insert(b.ServiceRecords, 0, rec)
	s.commitLocked(ctx)
	return rec
}

// AddDiaryEntry prepends entry. An empty mood is stored as normal.
func (s *PetService) AddDiaryEntry(ctx context.Context, entry domain.DiaryEntry) (domain.DiaryEntry, error) {
	if entry.Mood == "" {
		entry.Mood = domain.MoodNormal
	}
	if !entry.Mood.Valid() {
		return domain.DiaryEntry{}, fmt.Errorf("%w: unknown mood %q", ErrInvalidInput, entry.Mood)
	}
	if entry.ID == "" {
		entry.ID = domain.NewID()
	}
	entry.PhotoRefs = slices.Clone(entry.PhotoRefs)

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	b.DiaryEntries = slices.Insert(b.DiaryEntries, 0, entry)
	s.commitLocked(ctx)
	return entry, nil
}

// AddMilestone appends m to the milestone timeline.
func (s *PetService) AddMilestone(ctx context.Context, m domain.Milestone) (domain.Milestone, error) {
	if !m.Type.Valid() {
		return domain.Milestone{}, fmt.Errorf("%w: unknown milestone type %q", ErrInvalidInput, m.Type)
	}
	if m.ID == "" {
		m.ID = domain.NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	b.Milestones = append(b.Milestones, m)
	s.commitLocked(ctx)
	return m, nil
}

func (s *PetService) DeleteMilestone(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	i := slices.IndexFunc(b.Milestones, func(m domain.Milestone) bool { return m.ID == id })
	if i < 0 {
		return ErrMilestoneNotFound
	}
	b.Milestones = slices.Delete(b.Milestones, i, i+1)
	s.commitLocked(ctx)
	return nil
}

func (s *PetService) ToggleMilestone(ctx context.Context, id string) (domain.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	i := slices.IndexFunc(b.Milestones, func(m domain.Milestone) bool { return m.ID == id })
	if i < 0 {
		return domain.Milestone{}, ErrMilestoneNotFound
	}
	b.Milestones[i].Completed = !b.Milestones[i].Completed
	s.commitLocked(ctx)
	return b.Milestones[i], nil
}

// AddVoucher prepends v. An empty status is stored as active.
func (s *PetService) AddVoucher(ctx context.Context, v domain.Voucher) (domain.Voucher, error) {
	if v.Status == "" {
		v.Status = domain.VoucherActive
	}
	if !v.Status.Valid() {
		return domain.Voucher{}, fmt.Errorf("%w: unknown voucher status %q", ErrInvalidInput, v.Status)
	}
	if v.ID == "" {
		v.ID = domain.NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	b.Vouchers = slices.Insert(b.Vouchers, 0, v)
	s.commitLocked(ctx)
	return v, nil
}

// RedeemVoucher marks a voucher used. Redeeming a used voucher is a no-op.
func (s *PetService) RedeemVoucher(ctx context.Context, id string) (domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.snap.Active()
	i := slices.IndexFunc(b.Vouchers, func(v domain.Voucher) bool { return v.ID == id })
	if i < 0 {
		return domain.Voucher{}, ErrVoucherNotFound
	}
	if b.Vouchers[i].Status == domain.VoucherUsed {
		return b.Vouchers[i], nil
	}
	b.Vouchers[i].Status = domain.VoucherUsed
	s.commitLocked(ctx)

	s.logger.Info("voucher redeemed", "id", id, "code", b.Vouchers[i].Code)
	return b.Vouchers[i], nil
}

// commitLocked writes the store through and then schedules a push, in that
// order. Callers hold s.mu.
func (s *PetService) commitLocked(ctx context.Context) {
	s.persistLocked(ctx)
	s.scheduler.SchedulePush()
}

func (s *PetService) persistLocked(ctx context.Context) {
	if err := s.writer.SaveSnapshot(ctx, s.snap); err != nil {
		s.logger.Warn("failed to save snapshot locally, keeping in-memory state", "error", err)
	}
}
