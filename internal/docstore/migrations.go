package docstore

import "database/sql"

// schema sets up the single documents table. Each row is one top-level
// record (a wedding, a user profile, an invite) stored as JSON; field-level
// writes rewrite the containing row.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    key TEXT NOT NULL,
    body TEXT NOT NULL,
    PRIMARY KEY (collection, key)
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
