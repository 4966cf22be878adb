package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	"github.com/couchcryptid/cold-temp-correction/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

// ReportFetcher returns the raw report feed text.
type ReportFetcher interface {
	FetchReports(ctx context.Context) (string, error)
}

// TableSource supplies the precomputed tables of every airport.
type TableSource interface {
	Airports() []domain.AirportTables
	Airport(identifier string) (domain.AirportTables, bool)
}

// ViewPublisher receives the composed views after every refresh.
type ViewPublisher interface {
	PublishViews(ctx context.Context, views []domain.AirportView) error
}

// Observations is one immutable refresh result. When the feed could not be
// fetched Available is false and Temperatures is nil.
type Observations struct {
	Temperatures map[string]domain.Temperature
	Available    bool
	FetchedAt    time.Time
	Err          error
}

// Temperature returns the station's temperature, unknown when the feed is
// unavailable or the station did not report one.
func (o *Observations) Temperature(station string) domain.Temperature {
	if o == nil || !o.Available {
		return domain.UnknownTemperature
	}
	return o.Temperatures[station]
}

var unavailable = &Observations{}

const initialBackoff = 5 * time.Second

// Refresher periodically fetches the report feed and holds the latest
// observations. Views are composed from them on every read.
type Refresher struct {
	fetcher   ReportFetcher
	tables    TableSource
	publisher ViewPublisher
	clock     clockwork.Clock
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics

	current atomic.Pointer[Observations]
	ready   atomic.Bool
}

// New creates a Refresher. publisher may be nil.
func New(fetcher ReportFetcher, tables TableSource, publisher ViewPublisher, clock clockwork.Clock, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	r := &Refresher{
		fetcher:   fetcher,
		tables:    tables,
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
	r.current.Store(unavailable)
	return r
}

// CheckReadiness returns nil once the first refresh attempt has completed,
// whether or not the feed was reachable.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("report feed has not been fetched yet")
	}
	return nil
}

// Observations returns the latest snapshot.
func (r *Refresher) Observations() *Observations {
	return r.current.Load()
}

// Run refreshes immediately and then every interval until the context is
// cancelled. After a failed fetch the next attempt comes sooner, backing off
// up to the regular interval.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.interval)
	r.metrics.RefresherRunning.Set(1)
	defer r.metrics.RefresherRunning.Set(0)

	backoff := min(initialBackoff, r.interval)
	for {
		wait := r.interval
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			wait = backoff
			backoff = retry.NextBackoff(backoff, r.interval)
		} else {
			backoff = min(initialBackoff, r.interval)
		}

		if !r.sleepWithContext(ctx, wait) {
			break
		}
	}
	r.logger.Info("refresher stopping", "reason", ctx.Err())
	return nil
}

// Refresh performs one fetch and stores the resulting snapshot. A fetch
// failure stores the unavailable snapshot and is returned; publish failures
// are only logged.
func (r *Refresher) Refresh(ctx context.Context) error {
	defer r.ready.Store(true)

	payload, err := r.fetcher.FetchReports(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		r.logger.Error("report feed fetch failed", "error", err)
		r.current.Store(&Observations{FetchedAt: r.clock.Now(), Err: err})
		r.updateGauges(nil)
		r.publish(ctx)
		return err
	}

	temps := domain.ParseReportTemperatures(payload)
	obs := &Observations{Temperatures: temps, Available: true, FetchedAt: r.clock.Now()}
	r.current.Store(obs)
	unknown := r.updateGauges(temps)
	r.logger.Info("report feed refreshed", "stations", len(temps), "unknown", unknown)

	r.publish(ctx)
	return nil
}

func (r *Refresher) updateGauges(temps map[string]domain.Temperature) int {
	unknown := 0
	for _, at := range r.tables.Airports() {
		if !temps[at.Airport.Identifier].Known {
			unknown++
		}
	}
	r.metrics.StationsReporting.Set(float64(len(temps)))
	r.metrics.StationsUnknown.Set(float64(unknown))
	return unknown
}

func (r *Refresher) publish(ctx context.Context) {
	if r.publisher == nil {
		return
	}
	views := r.Views()
	if err := r.publisher.PublishViews(ctx, views); err != nil {
		r.logger.Error("publish views failed", "error", err, "views", len(views))
		r.metrics.PublishErrors.Inc()
		return
	}
	r.metrics.ViewsPublished.Add(float64(len(views)))
}

// Views composes the view of every airport against the latest observations.
func (r *Refresher) Views() []domain.AirportView {
	obs := r.current.Load()
	airports := r.tables.Airports()
	views := make([]domain.AirportView, len(airports))
	for i, at := range airports {
		views[i] = composeView(at, obs)
	}
	return views
}

// View composes the view of one airport.
func (r *Refresher) View(identifier string) (domain.AirportView, bool) {
	at, ok := r.tables.Airport(identifier)
	if !ok {
		return domain.AirportView{}, false
	}
	return composeView(at, r.current.Load()), true
}

func composeView(at domain.AirportTables, obs *Observations) domain.AirportView {
	view := domain.ComposeView(at, obs.Temperature(at.Airport.Identifier))
	view.FeedAvailable = obs.Available
	if obs.Available {
		view.ObservedAt = obs.FetchedAt
	}
	return view
}

// sleepWithContext is retry.SleepWithContext on the injected clock.
func (r *Refresher) sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := r.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
