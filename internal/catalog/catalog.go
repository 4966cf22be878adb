// Package catalog holds the correction tables of every reference airport and
// computes ad-hoc tables on demand.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	"github.com/couchcryptid/cold-temp-correction/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// TableKey identifies the inputs of a band table.
type TableKey struct {
	PublishedFt         int
	ElevationFt         int
	ObstacleClearanceFt int
}

// Catalog is built once at startup and is safe for concurrent use. Tables it
// returns are shared and must not be modified.
type Catalog struct {
	airports []domain.AirportTables
	index    map[string]int
	cache    *lru.Cache[TableKey, domain.BandTable]
	metrics  *observability.Metrics
}

// Build computes the table of every (airport, correction point) pair in
// parallel. Any invalid reference entry fails the whole build.
func Build(ctx context.Context, airports []domain.AirportRef, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) (*Catalog, error) {
	cache, err := lru.New[TableKey, domain.BandTable](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create table cache: %w", err)
	}

	index := make(map[string]int, len(airports))
	for i, a := range airports {
		if _, dup := index[a.Identifier]; dup {
			return nil, fmt.Errorf("duplicate airport %s", a.Identifier)
		}
		index[a.Identifier] = i
	}

	start := time.Now()
	results := make([]domain.AirportTables, len(airports))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	total := 0
	for i, a := range airports {
		results[i] = domain.AirportTables{Airport: a, Tables: make([]domain.BandTable, len(a.CorrectionPoints))}

		for j, p := range a.CorrectionPoints {
			total++
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				table, err := domain.BuildBandTable(p.PublishedAltitudeFt, a.ElevationFt, p.Clearance())
				if err != nil {
					return fmt.Errorf("%s %s: %w", a.Identifier, p.Name, err)
				}
				results[i].Tables[j] = table
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	c := &Catalog{airports: results, index: index, cache: cache, metrics: metrics}
	for _, at := range results {
		for j, p := range at.Airport.CorrectionPoints {
			cache.Add(TableKey{p.PublishedAltitudeFt, at.Airport.ElevationFt, p.Clearance()}, at.Tables[j])
		}
	}
	metrics.TablesBuilt.Add(float64(total))

	logger.Info("correction tables built",
		"airports", len(results),
		"tables", total,
		"duration", time.Since(start),
	)
	return c, nil
}

// Airports returns every airport with its tables, in reference order.
func (c *Catalog) Airports() []domain.AirportTables {
	return slices.Clone(c.airports)
}

// Airport returns the tables of one airport.
func (c *Catalog) Airport(identifier string) (domain.AirportTables, bool) {
	i, ok := c.index[identifier]
	if !ok {
		return domain.AirportTables{}, false
	}
	return c.airports[i], true
}

// Table returns the band table for arbitrary inputs, computing it on a cache miss.
func (c *Catalog) Table(publishedFt, elevationFt, obstacleClearanceFt int) (domain.BandTable, error) {
	if obstacleClearanceFt == 0 {
		obstacleClearanceFt = domain.DefaultObstacleClearanceFt
	}
	key := TableKey{publishedFt, elevationFt, obstacleClearanceFt}
	if table, ok := c.cache.Get(key); ok {
		c.metrics.TableCache.WithLabelValues("hit").Inc()
		return table, nil
	}
	c.metrics.TableCache.WithLabelValues("miss").Inc()

	table, err := domain.BuildBandTable(publishedFt, elevationFt, obstacleClearanceFt)
	if err != nil {
		return nil, err
	}
	c.metrics.TablesBuilt.Inc()
	c.cache.Add(key, table)
	return table, nil
}
