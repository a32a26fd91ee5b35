package store

// schemaSQL is the DDL of the parse cache.
const schemaSQL = `
-- Dependency parses keyed by engine, language and text hash
CREATE TABLE IF NOT EXISTS parses (
    key TEXT PRIMARY KEY,
    engine TEXT NOT NULL,
    lang TEXT NOT NULL,
    conllu TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    hits INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_parses_created ON parses(created_at);
`
