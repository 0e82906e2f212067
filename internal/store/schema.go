package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
    key                  TEXT PRIMARY KEY,
    value                TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rate_cache (
    cache_key            TEXT PRIMARY KEY,
    payload              TEXT NOT NULL,
    fetched_at_ms        INTEGER NOT NULL,
    stored_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tax_cache (
    zip                  TEXT PRIMARY KEY,
    zip_name             TEXT NOT NULL,
    home_value           REAL NOT NULL,
    annual_tax           REAL NOT NULL,
    rate                 REAL NOT NULL,
    fetched_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rate_cache_fetched ON rate_cache(fetched_at_ms);
`
