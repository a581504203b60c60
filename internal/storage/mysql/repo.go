package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"hotel_connect/internal/domain"
)

// Repo stores one provider_configs row per hotel and domain. Timestamps are
// kept with microsecond precision so they can serve as a version.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func encodeConfig(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(b), nil
}

func stamp(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

func (r *Repo) Insert(ctx context.Context, c domain.ProviderConfig) error {
	cfg, err := encodeConfig(c.Config)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertConfigSQL, c.HotelID, string(c.Domain), c.Provider, cfg, stamp(c.UpdatedAt))
	return err
}

func (r *Repo) CompareAndSwap(ctx context.Context, c domain.ProviderConfig, prev time.Time) (bool, error) {
	cfg, err := encodeConfig(c.Config)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, casConfigSQL,
		c.Provider,
		cfg,
		stamp(c.UpdatedAt),
		c.HotelID,
		string(c.Domain),
		stamp(prev),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repo) Get(ctx context.Context, hotelID int64, d domain.Domain) (domain.ProviderConfig, error) {
	var (
		provider string
		raw      []byte
		updated  time.Time
	)
	err := r.db.QueryRowContext(ctx, getConfigSQL, hotelID, string(d)).Scan(&provider, &raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ProviderConfig{}, err
	}
	cfg := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return domain.ProviderConfig{}, fmt.Errorf("decode config of hotel %d/%s: %w", hotelID, d, err)
		}
	}
	return domain.ProviderConfig{
		HotelID:   hotelID,
		Domain:    d,
		Provider:  provider,
		Config:    cfg,
		UpdatedAt: updated.UTC(),
	}, nil
}

func (r *Repo) ListHotels(ctx context.Context, d domain.Domain) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL, string(d))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
