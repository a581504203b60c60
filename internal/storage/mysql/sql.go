package mysql

// insertConfigSQL leaves an existing row untouched.
const insertConfigSQL = `
INSERT INTO provider_configs
  (hotel_id, domain, provider, config, updated_at)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  hotel_id = hotel_id
`

const casConfigSQL = `
UPDATE provider_configs
SET provider   = ?,
    config     = ?,
    updated_at = ?
WHERE hotel_id = ? AND domain = ? AND updated_at = ?
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getConfigSQL = `
SELECT provider, config, updated_at
FROM provider_configs
WHERE hotel_id = ? AND domain = ?
`

const listHotelsSQL = `
SELECT hotel_id
FROM provider_configs
WHERE domain = ?
ORDER BY hotel_id
`
