package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Open connects to the SQLite database at path. Foreign keys and a busy
// timeout are set per connection through the DSN.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one connection also serialises transactions.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users(
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profiles(
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			company TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			skills TEXT NOT NULL DEFAULT '',
			github_username TEXT NOT NULL DEFAULT '',
			youtube TEXT NOT NULL DEFAULT '',
			twitter TEXT NOT NULL DEFAULT '',
			facebook TEXT NOT NULL DEFAULT '',
			instagram TEXT NOT NULL DEFAULT '',
			linkedin TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS experience(
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			company TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			from_date TEXT NOT NULL,
			to_date TEXT NOT NULL DEFAULT '',
			current INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS education(
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			school TEXT NOT NULL,
			degree TEXT NOT NULL,
			field_of_study TEXT NOT NULL,
			from_date TEXT NOT NULL,
			to_date TEXT NOT NULL DEFAULT '',
			current INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS posts(
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS post_likes(
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(post_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS comments(
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);`,
		`CREATE INDEX IF NOT EXISTS idx_likes_post ON post_likes(post_id);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
