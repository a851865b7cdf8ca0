package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	authservice "github.com/gensosanso/financecorner/internal/application/auth"
	"github.com/gensosanso/financecorner/pkg/config"
	"github.com/gensosanso/financecorner/pkg/db"
	"github.com/gensosanso/financecorner/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id         UUID PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	full_name  TEXT NOT NULL DEFAULT '',
	is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS wallets (
	id            UUID PRIMARY KEY,
	user_id       UUID NOT NULL UNIQUE REFERENCES profiles(id),
	balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transactions (
	id              UUID PRIMARY KEY,
	kind            TEXT NOT NULL CHECK (kind IN ('deposit', 'withdrawal', 'transfer')),
	user_id         UUID NOT NULL REFERENCES profiles(id),
	counterparty_id UUID REFERENCES profiles(id),
	amount_cents    BIGINT NOT NULL CHECK (amount_cents > 0),
	method          TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'rejected')),
	metadata        JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status, created_at);

CREATE TABLE IF NOT EXISTS lending_offers (
	id            UUID PRIMARY KEY,
	lender_id     UUID NOT NULL REFERENCES profiles(id),
	amount_cents  BIGINT NOT NULL CHECK (amount_cents > 0),
	interest_rate DOUBLE PRECISION NOT NULL CHECK (interest_rate >= 0),
	duration_days INTEGER NOT NULL CHECK (duration_days > 0),
	status        TEXT NOT NULL CHECK (status IN ('active', 'taken', 'cancelled')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lending_offers_status ON lending_offers(status, created_at DESC);

CREATE TABLE IF NOT EXISTS lending_contracts (
	id            UUID PRIMARY KEY,
	offer_id      UUID NOT NULL UNIQUE REFERENCES lending_offers(id),
	lender_id     UUID NOT NULL REFERENCES profiles(id),
	borrower_id   UUID NOT NULL REFERENCES profiles(id),
	amount_cents  BIGINT NOT NULL CHECK (amount_cents > 0),
	interest_rate DOUBLE PRECISION NOT NULL CHECK (interest_rate >= 0),
	duration_days INTEGER NOT NULL CHECK (duration_days > 0),
	status        TEXT NOT NULL CHECK (status IN ('active', 'repaid', 'defaulted')),
	start_date    TIMESTAMPTZ NOT NULL,
	end_date      TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lending_contracts_borrower ON lending_contracts(borrower_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_lending_contracts_lender ON lending_contracts(lender_id, created_at DESC);
`

type demoUser struct {
	email        string
	fullName     string
	isAdmin      bool
	balanceCents int64
}

var demoUsers = []demoUser{
	{email: "admin@financecorner.dev", fullName: "Site Admin", isAdmin: true, balanceCents: 0},
	{email: "alice@financecorner.dev", fullName: "Alice Lender", balanceCents: 250_000},
	{email: "bob@financecorner.dev", fullName: "Bob Borrower", balanceCents: 40_000},
	{email: "carol@financecorner.dev", fullName: "Carol Saver", balanceCents: 120_000},
}

func main() {
	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	dsn := os.Getenv("DB_SOURCE")
	if dsn == "" {
		dsn = db.GetDBDSN(&cfg.Database)
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer conn.Close()

	ctx := context.Background()
	if err := conn.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Database unreachable")
	}

	logger.Info().Msg("Applying schema")
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply schema")
	}

	var count int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		logger.Fatal().Err(err).Msg("Failed to count profiles")
	}
	if count > 0 {
		logger.Info().Int("profiles", count).Msg("Database already seeded, skipping demo data")
		return
	}

	authSvc := authservice.NewAuthService(cfg, logger)

	for _, u := range demoUsers {
		userID := uuid.New()
		now := time.Now()

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO profiles (id, email, full_name, is_admin, created_at) VALUES ($1, $2, $3, $4, $5)`,
			userID, u.email, u.fullName, u.isAdmin, now,
		); err != nil {
			logger.Fatal().Err(err).Str("email", u.email).Msg("Failed to insert profile")
		}

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO wallets (id, user_id, balance_cents, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			uuid.New(), userID, u.balanceCents, now,
		); err != nil {
			logger.Fatal().Err(err).Str("email", u.email).Msg("Failed to insert wallet")
		}

		token, err := authSvc.GenerateToken(ctx, userID, u.isAdmin)
		if err != nil {
			logger.Fatal().Err(err).Str("email", u.email).Msg("Failed to mint demo token")
		}

		fmt.Printf("%-32s %s\n", u.email, token)
	}

	logger.Info().Int("users", len(demoUsers)).Msg("Demo data seeded")
}
