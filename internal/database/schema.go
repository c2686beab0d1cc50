package database

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates all tables needed by the service.
// Safe to call multiple times - uses IF NOT EXISTS.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range schemaFor(db.Dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return createIndexes(ctx, db)
}

// Column types differ per dialect; the statements share one layout.
var columnTypes = map[Dialect]*strings.Replacer{
	MySQL: strings.NewReplacer(
		"{key}", "VARCHAR(191)",
		"{text}", "MEDIUMTEXT",
		"{short}", "VARCHAR(255)",
		"{time}", "DATETIME(3)",
		"{engine}", " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	),
	Postgres: strings.NewReplacer(
		"{key}", "TEXT",
		"{text}", "TEXT",
		"{short}", "TEXT",
		"{time}", "TIMESTAMPTZ",
		"{engine}", "",
	),
	SQLite: strings.NewReplacer(
		"{key}", "TEXT",
		"{text}", "TEXT",
		"{short}", "TEXT",
		"{time}", "DATETIME",
		"{engine}", "",
	),
}

var tables = []string{
	// Users
	`CREATE TABLE IF NOT EXISTS users (
		id {key} PRIMARY KEY,
		email {key} NOT NULL UNIQUE,
		password_hash {short} NOT NULL,
		full_name {short} NOT NULL DEFAULT '',
		created_at {time} NOT NULL,
		updated_at {time} NOT NULL
	){engine}`,

	// Briefs. questions and style hold JSON text.
	`CREATE TABLE IF NOT EXISTS briefs (
		id {key} PRIMARY KEY,
		owner_id {key} NOT NULL,
		title {short} NOT NULL DEFAULT '',
		description {text} NOT NULL,
		questions {text} NOT NULL,
		style {text} NOT NULL,
		created_at {time} NOT NULL,
		updated_at {time} NOT NULL
	){engine}`,

	// Responses. answers holds the JSON object including _clientInfo.
	`CREATE TABLE IF NOT EXISTS responses (
		id {key} PRIMARY KEY,
		brief_id {key} NOT NULL,
		respondent_email {short},
		answers {text} NOT NULL,
		submitted_at {time} NOT NULL
	){engine}`,

	// One subscription record per user.
	`CREATE TABLE IF NOT EXISTS user_subscriptions (
		user_id {key} PRIMARY KEY,
		subscription_id {key} NOT NULL,
		plan_id {short} NOT NULL DEFAULT '',
		status {short} NOT NULL,
		plan_name {short} NOT NULL DEFAULT '',
		billing_interval {short} NOT NULL DEFAULT '',
		next_billing_time {time} NULL,
		last_event_at {time} NULL,
		created_at {time} NOT NULL,
		updated_at {time} NOT NULL
	){engine}`,

	// PayPal plan memo, keyed by catalog name.
	`CREATE TABLE IF NOT EXISTS subscription_plans (
		name {key} PRIMARY KEY,
		description {text} NOT NULL,
		price {short} NOT NULL,
		currency {short} NOT NULL,
		billing_interval {short} NOT NULL,
		external_plan_id {short} NOT NULL,
		external_product_id {short} NOT NULL,
		features {text} NOT NULL,
		created_at {time} NOT NULL,
		updated_at {time} NOT NULL
	){engine}`,
}

type index struct {
	name, table, column string
}

var indexes = []index{
	{"idx_briefs_owner_id", "briefs", "owner_id"},
	{"idx_responses_brief_id", "responses", "brief_id"},
	{"idx_user_subscriptions_subscription_id", "user_subscriptions", "subscription_id"},
}

func schemaFor(d Dialect) []string {
	r := columnTypes[d]
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, r.Replace(t))
	}
	return out
}

// createIndexes adds the secondary indexes. MySQL has no CREATE INDEX IF NOT
// EXISTS, so existing indexes are looked up first.
func createIndexes(ctx context.Context, db *DB) error {
	for _, idx := range indexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.name, idx.table, idx.column)
		if db.Dialect == MySQL {
			var n int
			err := db.queryRow(ctx, `
				SELECT COUNT(*) FROM information_schema.statistics
				WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`,
				idx.table, idx.name).Scan(&n)
			if err != nil {
				return fmt.Errorf("failed to inspect index %s: %w", idx.name, err)
			}
			if n > 0 {
				continue
			}
			stmt = fmt.Sprintf("CREATE INDEX %s ON %s(%s)", idx.name, idx.table, idx.column)
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
