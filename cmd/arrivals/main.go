// Command arrivals pulls the day's arrivals from every hotel's PMS and logs
// a per-hotel summary. Hotels are processed concurrently, SYNC_WORKERS at a time.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_connect/internal/adapters/observability"
	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/app"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
	mysqlrepo "hotel_connect/internal/storage/mysql"
)

func main() {
	date := flag.String("date", time.Now().UTC().Format(time.DateOnly), "arrival date (YYYY-MM-DD)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().Str("date", *date).Int("workers", cfg.Workers).Msg("arrivals sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	configs := app.NewConfigService(mysqlrepo.New(db), nil, 0)
	factories := app.NewFactories(configs, transport.WithRateLimit(cfg.OutboundRPS))

	hotels, err := configs.ListHotels(ctx, domain.DomainPMS)
	if err != nil {
		log.Fatal().Err(err).Msg("list hotels")
	}

	var (
		sem    = semaphore.NewWeighted(int64(max(cfg.Workers, 1)))
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	for _, id := range hotels {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("stopping early")
			break
		}
		wg.Add(1)
		go func(hotelID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := syncHotel(ctx, factories, hotelID, *date); err != nil {
				failed.Add(1)
				log.Warn().Int64("hotel_id", hotelID).Err(err).Msg("arrivals failed")
			}
		}(id)
	}

	wg.Wait()
	log.Info().Int("hotels", len(hotels)).Int64("failed", failed.Load()).Msg("arrivals sync completed")
}

func syncHotel(ctx context.Context, f *app.Factories, hotelID int64, date string) error {
	c, err := f.PMS(ctx, hotelID)
	if err != nil {
		return err
	}
	res, err := c.GetArrivals(ctx, date)
	if err != nil {
		return err
	}
	var adults, children int
	for _, r := range res {
		adults += r.Adults
		children += r.Children
	}
	log.Info().Int64("hotel_id", hotelID).Str("provider", c.Provider()).
		Int("reservations", len(res)).Int("adults", adults).Int("children", children).
		Msg("arrivals")
	return nil
}
