package relay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	insertEntrySQL = `INSERT INTO relay_journal (operator_message_id, requester_id, kind, lead_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (operator_message_id) DO NOTHING`

	lookupEntrySQL = `SELECT requester_id FROM relay_journal WHERE operator_message_id = $1`
)

// PostgresJournal stores entries in the relay_journal table.
type PostgresJournal struct {
	db *sqlx.DB
}

// NewPostgresJournal wraps an open connection; the schema comes from the
// migrations directory.
func NewPostgresJournal(db *sqlx.DB) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// Record inserts e, ignoring duplicates.
func (j *PostgresJournal) Record(ctx context.Context, e Entry) error {
	var leadID sql.NullString
	if e.LeadID != "" {
		leadID = sql.NullString{String: e.LeadID, Valid: true}
	}
	if _, err := j.db.ExecContext(ctx, insertEntrySQL, e.OperatorMessageID, e.RequesterID, e.Kind, leadID); err != nil {
		return fmt.Errorf("relay journal: insert: %w", err)
	}
	return nil
}

// Lookup returns the requester of operatorMessageID.
func (j *PostgresJournal) Lookup(ctx context.Context, operatorMessageID int) (int64, bool, error) {
	var requesterID int64
	err := j.db.GetContext(ctx, &requesterID, lookupEntrySQL, operatorMessageID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("relay journal: lookup: %w", err)
	}
	return requesterID, true, nil
}
