package ledger

import (
	"database/sql"
	"log/slog"
)

func NewLedger(db *sql.DB, logger *slog.Logger) *Ledger {
	return &Ledger{db: db, m: &model{}, logger: logger}
}
