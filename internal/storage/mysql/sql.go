package mysql

const createAnalysesSQL = `
CREATE TABLE IF NOT EXISTS analyses (
  id          CHAR(36)      NOT NULL,
  url         VARCHAR(2048) NOT NULL,
  category_id VARCHAR(32)   NOT NULL,
  doc         JSON          NOT NULL,
  analyzed_at DATETIME(6)   NOT NULL,
  created_at  TIMESTAMP(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  KEY idx_analyses_category (category_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

// id is derived from url, so the primary key doubles as the url key.
const upsertAnalysisSQL = `
INSERT INTO analyses
  (id, url, category_id, doc, analyzed_at)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  url         = VALUES(url),
  category_id = VALUES(category_id),
  doc         = VALUES(doc),
  analyzed_at = VALUES(analyzed_at),
  updated_at  = CURRENT_TIMESTAMP
`

// Insertion order, matching the file backend.
const listAnalysesSQL = `SELECT doc FROM analyses ORDER BY created_at, id`

const listAnalysesByCategorySQL = `SELECT doc FROM analyses WHERE category_id = ? ORDER BY created_at, id`

const getAnalysisSQL = `SELECT doc FROM analyses WHERE id = ?`

const deleteAnalysisSQL = `DELETE FROM analyses WHERE id = ?`

const clearAnalysesSQL = `DELETE FROM analyses`
