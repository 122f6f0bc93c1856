package db

import (
	"context"
	"fmt"
)

// sqliteSchema mirrors the goose migrations for local SQLite runs and tests.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		full_name TEXT,
		avatar_url TEXT,
		bio TEXT,
		location TEXT,
		phone TEXT,
		website TEXT,
		is_verified BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		amount_eloits NUMERIC NOT NULL DEFAULT 0 CHECK (amount_eloits >= 0),
		description TEXT,
		source_id TEXT,
		source_type TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_daily_stats (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		stat_date DATE NOT NULL,
		activity_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		UNIQUE (user_id, stat_date)
	)`,
	`CREATE TABLE IF NOT EXISTS spam_detection (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		reason TEXT,
		is_resolved BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS referral_tracking (
		id TEXT PRIMARY KEY,
		referrer_id TEXT NOT NULL,
		referred_user_id TEXT NOT NULL,
		referral_code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL CHECK (status IN ('pending', 'verified', 'active', 'inactive')),
		referral_date DATETIME NOT NULL,
		verification_date DATETIME,
		first_purchase_date DATETIME,
		earnings_total NUMERIC NOT NULL DEFAULT 0 CHECK (earnings_total >= 0),
		earnings_this_month NUMERIC NOT NULL DEFAULT 0 CHECK (earnings_this_month >= 0),
		earnings_last_month NUMERIC NOT NULL DEFAULT 0 CHECK (earnings_last_month >= 0),
		earnings_month TEXT NOT NULL,
		tier TEXT NOT NULL CHECK (tier IN ('bronze', 'silver', 'gold', 'platinum')),
		commission_percentage NUMERIC NOT NULL,
		auto_share_total NUMERIC NOT NULL DEFAULT 0,
		auto_share_percentage NUMERIC NOT NULL CHECK (auto_share_percentage >= 0 AND auto_share_percentage <= 1),
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (referrer_id, referred_user_id),
		CHECK (earnings_this_month <= earnings_total)
	)`,
	`CREATE TABLE IF NOT EXISTS user_rewards_summary (
		user_id TEXT PRIMARY KEY,
		trust_score INTEGER NOT NULL DEFAULT 0 CHECK (trust_score >= 0 AND trust_score <= 100),
		total_earned NUMERIC NOT NULL DEFAULT 0,
		available_balance NUMERIC NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS trust_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		old_score INTEGER NOT NULL,
		new_score INTEGER NOT NULL,
		change_amount INTEGER NOT NULL,
		change_percentage NUMERIC NOT NULL DEFAULT 0,
		change_reason TEXT NOT NULL,
		factor_type TEXT NOT NULL,
		metadata TEXT,
		idempotency_key TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	)`,
}

// ApplySQLiteSchema creates the engine tables on a SQLite connection.
func (c *Client) ApplySQLiteSchema(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("db client not initialized")
	}
	for _, stmt := range sqliteSchema {
		if err := c.conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
