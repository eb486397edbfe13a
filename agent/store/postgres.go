// Package store persists users, transactions and one-time codes in Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/mfigueroa/gastobot/agent/contract"
	"github.com/mfigueroa/gastobot/agent/schema"
)

// Config is read from the environment under the GASTOBOT_DB prefix.
type Config struct {
	DSN          string        `required:"true"`
	QueryTimeout time.Duration `split_words:"true" default:"5s"`
	MaxOpenConns int           `split_words:"true" default:"10"`
}

type Option func(*Postgres)

func WithQueryTimeout(d time.Duration) Option {
	return func(p *Postgres) {
		if d > 0 {
			p.queryTimeout = d
		}
	}
}

// Postgres implements contract.Storage on top of bun. All failures surface as
// contract.ErrUnavailable wrapped with the operation that failed.
type Postgres struct {
	db           *bun.DB
	queryTimeout time.Duration
}

func New(cfg Config, opts ...Option) (*Postgres, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("database dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	p := &Postgres{
		db:           bun.NewDB(sqldb, pgdialect.New()),
		queryTimeout: 5 * time.Second,
	}
	if cfg.QueryTimeout > 0 {
		p.queryTimeout = cfg.QueryTimeout
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID             int64          `bun:"id,pk,autoincrement"`
	WhatsappNumber string         `bun:"whatsapp_number,notnull"`
	Name           sql.NullString `bun:"name"`
	Email          sql.NullString `bun:"email"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,default:now()"`
}

type transactionRow struct {
	bun.BaseModel `bun:"table:transactions"`

	ID          string          `bun:"id,pk"`
	UserID      int64           `bun:"user_id,notnull"`
	Type        string          `bun:"type,notnull"`
	Amount      decimal.Decimal `bun:"amount,notnull"`
	Currency    string          `bun:"currency,notnull"`
	Category    string          `bun:"category,notnull"`
	Description string          `bun:"description"`
	OccurredAt  time.Time       `bun:"occurred_at,notnull"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,default:now()"`
}

type otpRow struct {
	bun.BaseModel `bun:"table:otp_codes"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull"`
	Code      string    `bun:"code,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:now()"`
}

func (p *Postgres) FindOrCreateUser(ctx context.Context, identifier string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	row := &userRow{WhatsappNumber: identifier}
	err := p.db.NewSelect().Model(row).
		Where("whatsapp_number = ?", identifier).
		Scan(ctx)
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: find user: %v", contract.ErrUnavailable, err)
	}

	if _, err := p.db.NewInsert().Model(row).
		On("CONFLICT (whatsapp_number) DO UPDATE SET whatsapp_number = EXCLUDED.whatsapp_number").
		Returning("id").
		Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: create user: %v", contract.ErrUnavailable, err)
	}
	return row.ID, nil
}

func (p *Postgres) GetUserProfile(ctx context.Context, identifier string) (*contract.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	row := new(userRow)
	err := p.db.NewSelect().Model(row).
		Where("whatsapp_number = ?", identifier).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get profile: %v", contract.ErrUnavailable, err)
	}
	return &contract.Profile{
		Identifier: identifier,
		Name:       row.Name.String,
		Contact:    row.Email.String,
	}, nil
}

func (p *Postgres) UpdateUserProfile(ctx context.Context, identifier, name, contactAddr string) error {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	row := &userRow{
		WhatsappNumber: identifier,
		Name:           sql.NullString{String: name, Valid: name != ""},
		Email:          sql.NullString{String: contactAddr, Valid: contactAddr != ""},
	}
	if _, err := p.db.NewInsert().Model(row).
		On("CONFLICT (whatsapp_number) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("email = EXCLUDED.email").
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: update profile: %v", contract.ErrUnavailable, err)
	}
	return nil
}

func (p *Postgres) InsertTransaction(ctx context.Context, userID int64, tx contract.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	row := &transactionRow{
		ID:          tx.ID,
		UserID:      userID,
		Type:        string(tx.Kind),
		Amount:      tx.Amount,
		Currency:    string(tx.Currency),
		Category:    string(tx.Category),
		Description: tx.Description,
		OccurredAt:  tx.OccurredAt,
	}
	if _, err := p.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert transaction: %v", contract.ErrUnavailable, err)
	}
	return nil
}

func (p *Postgres) QueryAggregates(ctx context.Context, userID int64, rng contract.Range) ([]contract.AggregateRow, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	var raw []struct {
		Type     string          `bun:"type"`
		Category string          `bun:"category"`
		Total    decimal.Decimal `bun:"total"`
	}
	err := p.db.NewSelect().Model((*transactionRow)(nil)).
		ColumnExpr("type, category, SUM(amount) AS total").
		Where("user_id = ?", userID).
		Where("occurred_at >= ?", rng.From).
		Where("occurred_at < ?", rng.To).
		GroupExpr("type, category").
		Scan(ctx, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: query aggregates: %v", contract.ErrUnavailable, err)
	}

	rows := make([]contract.AggregateRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, contract.AggregateRow{
			Kind:     schema.ParseKind(r.Type),
			Category: schema.Category(r.Category),
			Total:    r.Total,
		})
	}
	return rows, nil
}

func (p *Postgres) CountRecentCredentials(ctx context.Context, userID int64, window time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	count, err := p.db.NewSelect().Model((*otpRow)(nil)).
		Where("user_id = ?", userID).
		Where("created_at > ?", time.Now().Add(-window)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count credentials: %v", contract.ErrUnavailable, err)
	}
	return count, nil
}

// ReplaceActiveCredential expires every outstanding code for the user and
// stores the new one in the same transaction, so at most one code is live.
// Expired rows are kept; CountRecentCredentials needs them for the rolling
// rate limit.
func (p *Postgres) ReplaceActiveCredential(ctx context.Context, userID int64, code string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	err := p.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model((*otpRow)(nil)).
			Set("expires_at = ?", time.Now()).
			Where("user_id = ?", userID).
			Where("expires_at > ?", time.Now()).
			Exec(ctx); err != nil {
			return err
		}
		row := &otpRow{
			UserID:    userID,
			Code:      code,
			ExpiresAt: time.Now().Add(ttl),
		}
		_, err := tx.NewInsert().Model(row).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: replace credential: %v", contract.ErrUnavailable, err)
	}
	return nil
}

var _ contract.Storage = (*Postgres)(nil)
