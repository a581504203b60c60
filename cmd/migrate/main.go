package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_connect/internal/adapters/observability"
	"hotel_connect/internal/shared"
	mysqlrepo "hotel_connect/internal/storage/mysql"
)

const defaultTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dsn     = flag.String("database", "", "MySQL DSN; defaults to MYSQL_DSN")
		timeout = flag.Duration("timeout", defaultTimeout, "Maximum time to wait for database connectivity")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		return errors.New("command required (up|down)")
	}

	cfg, err := shared.Load()
	if err != nil {
		return err
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if *dsn == "" {
		*dsn = cfg.MySQLDSN
	}

	conn, err := sql.Open("mysql", *dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	switch args[0] {
	case "up":
		return mysqlrepo.Migrate(conn)
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid down steps %q: %w", args[1], err)
			}
			steps = n
		}
		return mysqlrepo.Rollback(conn, steps)
	default:
		return fmt.Errorf("unknown command %q (expected up or down)", args[0])
	}
}
