package store

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    url          TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    source       TEXT NOT NULL,
    published_at DATETIME NOT NULL,
    collected_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
CREATE INDEX IF NOT EXISTS idx_articles_collected_at ON articles(collected_at);
CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);

CREATE TABLE IF NOT EXISTS clustered_articles (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    cluster_id   INTEGER NOT NULL,
    url          TEXT NOT NULL,
    title        TEXT NOT NULL,
    source       TEXT NOT NULL,
    published_at DATETIME NOT NULL,
    clean_title  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clustered_cluster ON clustered_articles(cluster_id);

CREATE TABLE IF NOT EXISTS hotness (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    cluster_id           INTEGER NOT NULL,
    score                REAL NOT NULL,
    representative_title TEXT NOT NULL,
    size_component       REAL NOT NULL DEFAULT 0,
    authority_component  REAL NOT NULL DEFAULT 0,
    surprise_component   REAL NOT NULL DEFAULT 0,
    diversity_component  REAL NOT NULL DEFAULT 0,
    position             INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hotness_position ON hotness(position);
`
