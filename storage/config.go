package storage

// Config selects which storage adapter to use at runtime.
type Config struct {
	// Backend: "jsonfile" (default) or "sqlite".
	Backend string `json:"backend" yaml:"backend"`

	// Dir is the data directory for the jsonfile backend.
	Dir string `json:"dir" yaml:"dir"`

	// DSN is the database path for the sqlite backend.
	DSN string `json:"dsn" yaml:"dsn"`
}
