package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Decision is one recorded warn or block verdict.
type Decision struct {
	ID           string    `json:"id" yaml:"id"`
	Command      string    `json:"command" yaml:"command"`
	Kind         string    `json:"kind" yaml:"kind"` // warn | block
	Rule         string    `json:"rule" yaml:"rule"`
	Pattern      string    `json:"pattern" yaml:"pattern"`
	Reason       string    `json:"reason" yaml:"reason"`
	PolicySource string    `json:"policy_source,omitempty" yaml:"policy_source,omitempty"`
	Managed      bool      `json:"managed" yaml:"managed"`
	SessionID    string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	CWD          string    `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Decision kinds.
const (
	DecisionKindWarn  = "warn"
	DecisionKindBlock = "block"
)

// ErrDecisionNotFound is returned when a decision is not found.
var ErrDecisionNotFound = errors.New("decision not found")

// DecisionFilter narrows ListDecisions.
type DecisionFilter struct {
	// Kind restricts to warn or block. Empty means both.
	Kind string
	// Limit caps the number of rows. Zero or less means no limit.
	Limit int
}

// Fixed-width UTC timestamps so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const decisionColumns = `id, command, kind, rule, pattern, reason, policy_source, managed, session_id, cwd, created_at`

// RecordDecision inserts d, assigning ID and CreatedAt when unset.
func (db *DB) RecordDecision(d *Decision) error {
	return db.RecordDecisionContext(context.Background(), d)
}

// RecordDecisionContext is RecordDecision bounded by ctx.
func (db *DB) RecordDecisionContext(ctx context.Context, d *Decision) error {
	if d.Kind != DecisionKindWarn && d.Kind != DecisionKindBlock {
		return fmt.Errorf("invalid decision kind %q", d.Kind)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO decisions (`+decisionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Command, d.Kind, d.Rule, d.Pattern, d.Reason, d.PolicySource,
		boolToInt(d.Managed), d.SessionID, d.CWD, d.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("recording decision: %w", err)
	}
	return nil
}

// GetDecision retrieves a decision by ID.
func (db *DB) GetDecision(id string) (*Decision, error) {
	row := db.QueryRow(`SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	return scanDecision(row)
}

// ListDecisions returns decisions newest first.
func (db *DB) ListDecisions(filter DecisionFilter) ([]*Decision, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}

	query := `SELECT ` + decisionColumns + ` FROM decisions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// PruneDecisions deletes decisions created before cutoff and returns how many
// were removed.
func (db *DB) PruneDecisions(cutoff time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM decisions WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning decisions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned decisions: %w", err)
	}
	return n, nil
}

// Stats summarizes the history.
type Stats struct {
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	Total         int            `json:"total" yaml:"total"`
	ByKind        map[string]int `json:"by_kind" yaml:"by_kind"`
	ByRule        map[string]int `json:"by_rule" yaml:"by_rule"`
}

// GetStats returns counts by kind and by rule.
func (db *DB) GetStats() (*Stats, error) {
	version, err := db.GetSchemaVersion()
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		SchemaVersion: version,
		ByKind:        make(map[string]int),
		ByRule:        make(map[string]int),
	}

	rows, err := db.Query(`SELECT kind, rule, COUNT(*) FROM decisions GROUP BY kind, rule`)
	if err != nil {
		return nil, fmt.Errorf("querying decision stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, rule string
		var n int
		if err := rows.Scan(&kind, &rule, &n); err != nil {
			return nil, fmt.Errorf("scanning decision stats: %w", err)
		}
		stats.Total += n
		stats.ByKind[kind] += n
		stats.ByRule[rule] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decision stats: %w", err)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (*Decision, error) {
	var (
		d         Decision
		managed   int
		createdAt string
	)
	err := row.Scan(&d.ID, &d.Command, &d.Kind, &d.Rule, &d.Pattern, &d.Reason,
		&d.PolicySource, &managed, &d.SessionID, &d.CWD, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDecisionNotFound
		}
		return nil, fmt.Errorf("scanning decision: %w", err)
	}
	d.Managed = managed != 0
	d.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &d, nil
}

func scanDecisions(rows *sql.Rows) ([]*Decision, error) {
	var out []*Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
