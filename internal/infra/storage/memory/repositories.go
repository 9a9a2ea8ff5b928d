package memory

import (
	"context"
	"sort"
	"sync"

	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
	"rentme-pricing/internal/domain/settlement"
)

// ListingRepository keeps listings in memory. Callers always receive copies so
// that an unsaved edit never leaks into the store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing.Clone(), nil
}

// Save stores the listing if nobody saved it since it was read.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stored int64
	if cur, ok := r.items[listing.ID]; ok {
		stored = cur.Version
	}
	if stored != listing.Version {
		return domainlistings.ErrVersionConflict
	}
	listing.Version++
	r.items[listing.ID] = listing.Clone()
	return nil
}

// IDs lists stored listing ids in order.
func (r *ListingRepository) IDs() []domainlistings.ListingID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainlistings.ListingID, 0, len(r.items))
	for id := range r.items {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type periodState struct {
	version int64
	periods []domainperiods.Period
}

// PeriodRepository stores each listing's period set with a version counter.
type PeriodRepository struct {
	mu   sync.RWMutex
	sets map[string]periodState
}

func NewPeriodRepository() *PeriodRepository {
	return &PeriodRepository{sets: make(map[string]periodState)}
}

func (r *PeriodRepository) Load(ctx context.Context, listingID string) (*domainperiods.Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state := r.sets[listingID]
	return domainperiods.NewSet(listingID, state.version, clonePeriods(state.periods)), nil
}

func (r *PeriodRepository) Apply(ctx context.Context, listingID string, expectedVersion int64, plan domainperiods.Plan) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.sets[listingID]
	if state.version != expectedVersion {
		return 0, domainperiods.ErrConcurrentUpdate
	}
	next := periodState{version: state.version + 1, periods: plan.Apply(state.periods)}
	r.sets[listingID] = next
	return next.version, nil
}

func clonePeriods(in []domainperiods.Period) []domainperiods.Period {
	out := make([]domainperiods.Period, 0, len(in))
	for _, p := range in {
		out = append(out, p.Clone())
	}
	return out
}

// SettingsStore holds broker settings for local runs and tests.
type SettingsStore struct {
	mu    sync.RWMutex
	items map[string]settlement.BrokerSettings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{items: make(map[string]settlement.BrokerSettings)}
}

func (s *SettingsStore) Get(ctx context.Context, brokerID string) (settlement.BrokerSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.items[brokerID]
	if !ok {
		return settlement.BrokerSettings{}, settlement.ErrSettingsNotFound
	}
	return settings, nil
}

func (s *SettingsStore) Put(ctx context.Context, settings settlement.BrokerSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[settings.BrokerID] = settings
	return nil
}

var (
	_ domainlistings.ListingRepository = (*ListingRepository)(nil)
	_ domainperiods.Repository         = (*PeriodRepository)(nil)
	_ settlement.SettingsStore         = (*SettingsStore)(nil)
)
