// Package fixture loads host object models from YAML or TOML files.
//
// A fixture lists native records with their connectors, an optional
// fitting catalog and an optional batch. It seeds any store that accepts
// records, such as the in-memory or SQLite native stores.
package fixture
