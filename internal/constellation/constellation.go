// Package constellation manages a set of satellites and runs batch
// propagation and close-approach screening over it on a worker pool.
package constellation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nate-enders/keplemon/internal/conjunction"
	"github.com/nate-enders/keplemon/internal/earth"
	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/metrics"
	"github.com/nate-enders/keplemon/internal/propagation"
	"github.com/nate-enders/keplemon/internal/satellite"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/tle"
)

type options struct {
	workers int
	gravity earth.Model
	step    timesys.TimeSpan
}

// Option configures a Constellation.
type Option func(*options)

// WithWorkers sets the batch pool size. Values below one use
// propagation.ThreadCount.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithGravity selects the Earth model used when building satellites.
func WithGravity(m earth.Model) Option {
	return func(o *options) { o.gravity = m }
}

// WithStep sets the coarse step of close-approach searches.
func WithStep(step timesys.TimeSpan) Option {
	return func(o *options) { o.step = step }
}

// Constellation holds satellites keyed by id in insertion order.
type Constellation struct {
	mu      sync.RWMutex
	name    string
	order   []int
	byID    map[int]*satellite.Satellite
	skipped int

	opts   options
	pool   *propagation.WorkerPool
	logger *slog.Logger
}

// New creates an empty constellation.
func New(name string, logger *slog.Logger, opts ...Option) *Constellation {
	o := options{step: conjunction.DefaultStep}
	for _, fn := range opts {
		fn(&o)
	}
	return &Constellation{
		name:   name,
		byID:   make(map[int]*satellite.Satellite),
		opts:   o,
		pool:   propagation.NewWorkerPool(o.workers, logger),
		logger: logger,
	}
}

// FromCatalog builds one satellite per element set in catalog order.
// Element sets whose propagator cannot be initialised are logged and
// counted in Skipped.
func FromCatalog(cat *tle.Catalog, logger *slog.Logger, opts ...Option) *Constellation {
	c := New(cat.Name(), logger, opts...)
	for _, t := range cat.All() {
		sat, err := satellite.FromTLE(t, c.propagationOptions())
		if err != nil {
			c.skipped++
			logger.Warn("skipping satellite",
				"satellite_id", t.SatelliteID,
				"name", t.Name,
				"error", err,
			)
			continue
		}
		c.Add(sat)
	}
	logger.Info("constellation built",
		"name", c.name,
		"satellites", c.Count(),
		"skipped", c.skipped,
	)
	return c
}

func (c *Constellation) propagationOptions() propagation.Options {
	return propagation.Options{Gravity: c.opts.gravity}
}

// Name is the constellation's provenance.
func (c *Constellation) Name() string { return c.name }

// Skipped is the number of element sets FromCatalog could not build.
func (c *Constellation) Skipped() int { return c.skipped }

// Workers is the batch pool size.
func (c *Constellation) Workers() int { return c.pool.Workers() }

// Count returns the number of satellites.
func (c *Constellation) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// IDs returns satellite ids in insertion order.
func (c *Constellation) IDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Get returns the satellite with id.
func (c *Constellation) Get(id int) (*satellite.Satellite, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.byID[id]
	return s, ok
}

// Add inserts s, replacing any satellite with the same id in place.
func (c *Constellation) Add(s *satellite.Satellite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[s.ID()]; !ok {
		c.order = append(c.order, s.ID())
	}
	c.byID[s.ID()] = s
}

// Remove deletes id and reports whether it was present.
func (c *Constellation) Remove(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	c.order = slices.DeleteFunc(c.order, func(v int) bool { return v == id })
	return true
}

// Clear removes every satellite.
func (c *Constellation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.byID = make(map[int]*satellite.Satellite)
}

// snapshot returns the satellites in order so batch work does not hold the
// lock.
func (c *Constellation) snapshot() []*satellite.Satellite {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*satellite.Satellite, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id]
	}
	return out
}

// StateResult is one satellite's outcome in a batch propagation.
type StateResult struct {
	State elements.CartesianState
	Err   error
}

// StatesAt propagates every satellite to e.
func (c *Constellation) StatesAt(ctx context.Context, e timesys.Epoch) (map[int]StateResult, error) {
	defer metrics.ObserveBatch("states", time.Now())
	sats := c.snapshot()
	states := make([]elements.CartesianState, len(sats))

	errs, err := c.pool.Run(ctx, len(sats), func(i int) error {
		st, err := sats[i].StateAt(e)
		states[i] = st
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make(map[int]StateResult, len(sats))
	for i, s := range sats {
		out[s.ID()] = StateResult{State: states[i], Err: errs[i]}
	}
	return out, nil
}

// Ephemerides samples every satellite over [start, end]. Satellites that
// fail are logged and left out of the result.
func (c *Constellation) Ephemerides(ctx context.Context, start, end timesys.Epoch, step timesys.TimeSpan) (map[int]*satellite.Ephemeris, error) {
	defer metrics.ObserveBatch("ephemerides", time.Now())
	sats := c.snapshot()
	ephs, err := c.ephemerides(ctx, sats, start, end, step)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*satellite.Ephemeris, len(sats))
	for i, s := range sats {
		if ephs[i] != nil {
			out[s.ID()] = ephs[i]
		}
	}
	return out, nil
}

// ephemerides samples sats on the pool. A failed satellite is logged and
// its slot left nil.
func (c *Constellation) ephemerides(ctx context.Context, sats []*satellite.Satellite, start, end timesys.Epoch, step timesys.TimeSpan) ([]*satellite.Ephemeris, error) {
	ephs := make([]*satellite.Ephemeris, len(sats))
	errs, err := c.pool.Run(ctx, len(sats), func(i int) error {
		eph, err := sats[i].Ephemeris(start, end, step)
		ephs[i] = eph
		return err
	})
	if err != nil {
		return nil, err
	}
	for i, s := range sats {
		if errs[i] != nil {
			c.logger.Warn("ephemeris failed", "satellite_id", s.ID(), "error", errs[i])
			ephs[i] = nil
		}
	}
	return ephs, nil
}

// sampled answers epochs on the screening grid from a precomputed
// ephemeris and propagates everything else.
type sampled struct {
	sat *satellite.Satellite
	eph *satellite.Ephemeris
}

func (s sampled) ID() int { return s.sat.ID() }

func (s sampled) StateAt(e timesys.Epoch) (elements.CartesianState, error) {
	if st, ok := s.eph.Sample(e); ok {
		return st, nil
	}
	return s.sat.StateAt(e)
}

// sources samples sats over the window and drops those that fail.
func (c *Constellation) sources(ctx context.Context, sats []*satellite.Satellite, start, end timesys.Epoch) ([]sampled, int, error) {
	ephs, err := c.ephemerides(ctx, sats, start, end, c.opts.step)
	if err != nil {
		return nil, 0, err
	}
	out := make([]sampled, 0, len(sats))
	for i, s := range sats {
		if ephs[i] != nil {
			out = append(out, sampled{sat: s, eph: ephs[i]})
		}
	}
	return out, len(sats) - len(out), nil
}

// ReportVsOne screens sat against every satellite in the constellation
// other than itself.
func (c *Constellation) ReportVsOne(ctx context.Context, sat *satellite.Satellite, start, end timesys.Epoch, thresholdKm float64) (*conjunction.Report, error) {
	defer metrics.ObserveBatch("screen_one", time.Now())
	end, err := screeningWindow(start, end)
	if err != nil {
		return nil, err
	}
	sats := []*satellite.Satellite{sat}
	for _, s := range c.snapshot() {
		if s.ID() != sat.ID() {
			sats = append(sats, s)
		}
	}
	srcs, unusable, err := c.sources(ctx, sats, start, end)
	if err != nil {
		return nil, err
	}
	if len(srcs) == 0 || srcs[0].sat != sat {
		return nil, fmt.Errorf("screening satellite %d: %w", sat.ID(), propagation.ErrPropagation)
	}
	primary, others := srcs[0], srcs[1:]
	return c.screen(ctx, "screen_one", start, end, thresholdKm, unusable, len(others), func(i int) (sampled, []sampled) {
		return primary, others[i : i+1]
	})
}

// ReportVsMany screens every unordered pair in the constellation once. Each
// satellite is sampled once; rows are screened in parallel and row i visits
// only the satellites after it.
func (c *Constellation) ReportVsMany(ctx context.Context, start, end timesys.Epoch, thresholdKm float64) (*conjunction.Report, error) {
	defer metrics.ObserveBatch("screen_many", time.Now())
	end, err := screeningWindow(start, end)
	if err != nil {
		return nil, err
	}
	srcs, unusable, err := c.sources(ctx, c.snapshot(), start, end)
	if err != nil {
		return nil, err
	}
	return c.screen(ctx, "screen_many", start, end, thresholdKm, unusable, len(srcs), func(i int) (sampled, []sampled) {
		return srcs[i], srcs[i+1:]
	})
}

func screeningWindow(start, end timesys.Epoch) (timesys.Epoch, error) {
	end, err := end.ToSystem(start.System)
	if err != nil {
		return timesys.Epoch{}, fmt.Errorf("screening window: %w", err)
	}
	if end.Before(start) {
		return timesys.Epoch{}, fmt.Errorf("screening end %s before start %s: %w", end, start, elements.ErrValidation)
	}
	return end, nil
}

// rowResult is what one pool job found for its row.
type rowResult struct {
	found       []conjunction.CloseApproach
	screened    int
	prefiltered int
	failed      int
}

// screen runs one pool job per row. row returns the primary and the
// secondaries it is paired with; pairs are built as the row is walked.
func (c *Constellation) screen(ctx context.Context, operation string, start, end timesys.Epoch, thresholdKm float64, unusable, rows int, row func(i int) (sampled, []sampled)) (*conjunction.Report, error) {
	results := make([]rowResult, rows)
	_, err := c.pool.Run(ctx, rows, func(i int) error {
		a, others := row(i)
		res := &results[i]
		for _, b := range others {
			// Pairs whose radial shells never come within the threshold cannot meet.
			if !conjunction.Overlaps(a.sat.Band(), b.sat.Band(), thresholdKm) {
				res.prefiltered++
				continue
			}
			res.screened++
			ca, err := conjunction.Find(a, b, start, end, thresholdKm, conjunction.WithStep(c.opts.step))
			if err != nil {
				res.failed++
				c.logger.Warn("screening pair failed",
					"primary_id", a.ID(),
					"secondary_id", b.ID(),
					"error", err,
				)
				continue
			}
			if ca != nil {
				res.found = append(res.found, *ca)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := conjunction.NewReport(start, end, thresholdKm)
	var screened, prefiltered, failed int
	for _, r := range results {
		for _, ca := range r.found {
			report.Add(ca)
		}
		screened += r.screened
		prefiltered += r.prefiltered
		failed += r.failed
	}
	report.Sort()
	metrics.RecordScreening(screened, prefiltered, report.Count())

	c.logger.Info("screening complete",
		"report_id", report.ID,
		"operation", operation,
		"pairs", screened,
		"prefiltered", prefiltered,
		"failed", failed,
		"unusable", unusable,
		"approaches", report.Count(),
	)
	return report, nil
}
