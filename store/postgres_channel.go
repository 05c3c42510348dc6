package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netresearch/watchdogd/core"
)

// PostgresChannelStore is the Postgres-backed ChannelStore. Channel
// identity is its name; Channel.ID carries that same value.
type PostgresChannelStore struct {
	pool *pgxpool.Pool
}

var _ ChannelStore = (*PostgresChannelStore)(nil)

// NewPostgresChannelStore builds a ChannelStore over pool.
func NewPostgresChannelStore(pool *pgxpool.Pool) *PostgresChannelStore {
	return &PostgresChannelStore{pool: pool}
}

const channelColumns = `name, provider_type, configuration, created_at, updated_at`

func (s *PostgresChannelStore) GetByID(ctx context.Context, id string) (*core.Channel, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE name = $1`, id)
	ch, err := scanChannel(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel %q: %w", id, err)
	}
	return &ch, nil
}

func (s *PostgresChannelStore) GetAll(ctx context.Context) ([]core.Channel, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []core.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *PostgresChannelStore) Insert(ctx context.Context, ch core.Channel) (core.Channel, error) {
	existing, err := s.GetByID(ctx, ch.Name)
	if err != nil {
		return core.Channel{}, err
	}
	if existing != nil {
		return core.Channel{}, core.NewConflict("channel %q already exists", ch.Name)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO channels (name, provider_type, configuration)
		VALUES ($1, $2, $3)`,
		ch.Name, string(ch.ProviderType), ch.Configuration,
	)
	if err != nil {
		return core.Channel{}, fmt.Errorf("insert channel %q: %w", ch.Name, err)
	}

	saved, err := s.GetByID(ctx, ch.Name)
	if err != nil {
		return core.Channel{}, err
	}
	return *saved, nil
}

func (s *PostgresChannelStore) Save(ctx context.Context, ch core.Channel) (core.Channel, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE channels
		SET provider_type = $2, configuration = $3, updated_at = now()
		WHERE name = $1`,
		ch.Name, string(ch.ProviderType), ch.Configuration,
	)
	if err != nil {
		return core.Channel{}, fmt.Errorf("save channel %q: %w", ch.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return core.Channel{}, core.NewNotFound("channel %q not found", ch.Name)
	}

	saved, err := s.GetByID(ctx, ch.Name)
	if err != nil {
		return core.Channel{}, err
	}
	return *saved, nil
}

func scanChannel(row rowScanner) (core.Channel, error) {
	var (
		ch           core.Channel
		providerType string
	)

	if err := row.Scan(&ch.Name, &providerType, &ch.Configuration, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		return core.Channel{}, err
	}

	ch.ID = ch.Name
	ch.ProviderType = core.ProviderType(providerType)
	return ch, nil
}
