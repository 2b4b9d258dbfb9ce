package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS description_cache (
	tool_name        TEXT NOT NULL,
	provider_model   TEXT NOT NULL,
	description      TEXT NOT NULL,
	generation_cost  REAL NOT NULL DEFAULT 0,
	usage_count      INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL,
	last_used_at     DATETIME NOT NULL,
	PRIMARY KEY (tool_name, provider_model)
);
`

// SQLiteCache is the "persistent" cacheProvider option, backed by the
// same pure-Go sqlite driver as internal/store, through its own connection
// and table rather than reaching into the task-store schema.
type SQLiteCache struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteCache opens (creating if necessary) the sqlite database at
// dbPath and ensures the description_cache table exists.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close releases the underlying database connection.
func (c *SQLiteCache) Close() error { return c.db.Close() }

func (c *SQLiteCache) Get(key Key) (Entry, bool) {
	row := c.db.QueryRow(`SELECT description, generation_cost, usage_count, created_at, last_used_at
		FROM description_cache WHERE tool_name = ? AND provider_model = ?`, key.ToolName, key.ProviderModel)

	var e Entry
	err := row.Scan(&e.Description, &e.GenerationCost, &e.UsageCount, &e.CreatedAt, &e.LastUsedAt)
	if err != nil {
		return Entry{}, false
	}
	return e, true
}

func (c *SQLiteCache) Put(key Key, description string, generationCost float64) {
	now := time.Now()
	_, err := c.db.Exec(`
		INSERT INTO description_cache (tool_name, provider_model, description, generation_cost, usage_count, created_at, last_used_at)
		VALUES (?,?,?,?,0,?,?)
		ON CONFLICT(tool_name, provider_model) DO UPDATE SET
			description=excluded.description, generation_cost=excluded.generation_cost, last_used_at=excluded.last_used_at
	`, key.ToolName, key.ProviderModel, description, generationCost, now, now)
	if err != nil {
		return
	}
}

func (c *SQLiteCache) IncrementUsage(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.db.Exec(`UPDATE description_cache SET usage_count = usage_count + 1, last_used_at = ?
		WHERE tool_name = ? AND provider_model = ?`, time.Now(), key.ToolName, key.ProviderModel)
}

func (c *SQLiteCache) Statistics() Stats {
	stats := Stats{ByProvider: make(map[string]int)}

	rows, err := c.db.Query(`SELECT provider_model, usage_count FROM description_cache`)
	if err != nil {
		return stats
	}
	defer rows.Close()

	for rows.Next() {
		var providerModel string
		var usage int
		if err := rows.Scan(&providerModel, &usage); err != nil {
			continue
		}
		stats.EntryCount++
		stats.TotalUsage += usage
		stats.ByProvider[providerModel]++
	}
	return stats
}

func (c *SQLiteCache) Clear(providerModel string) {
	if providerModel == "" {
		_, _ = c.db.Exec(`DELETE FROM description_cache`)
		return
	}
	_, _ = c.db.Exec(`DELETE FROM description_cache WHERE provider_model = ?`, providerModel)
}
