package sqlite

import "github.com/felixgeelhaar/etltrainer/internal/trainer"

// Ensure SQLite stores implement the trainer interfaces.
var (
	_ trainer.LogStore     = (*LogStore)(nil)
	_ trainer.SessionStore = (*SessionStore)(nil)
)
