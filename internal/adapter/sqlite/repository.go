package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/voltmile/claimflow/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// ClaimRepository implements domain.ClaimRepository using SQLite. Scalar
// claim fields map to columns; the sub-records (shipment, repair progress,
// results) are owned exclusively by the claim and stored as JSON blobs.
// The audit trail lives in its own append-only table.
type ClaimRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*ClaimRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*ClaimRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &ClaimRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *ClaimRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *ClaimRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

const claimColumns = `id, claim_number, vin, warranty_activation_id,
	issue_description, issue_category, diagnosis, mileage, priority, status,
	parts_to_replace, parts_shipment, repair_progress, results,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	approval_notes, attachments, version, created_at, updated_at`

func (r *ClaimRepository) Create(ctx context.Context, claim domain.Claim) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	blobs, err := marshalBlobs(claim)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (`+claimColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		claim.ID, claim.ClaimNumber, claim.VIN, claim.WarrantyActivationID,
		claim.IssueDescription, string(claim.IssueCategory), claim.Diagnosis,
		claim.Mileage, string(claim.Priority), string(claim.Status),
		blobs.partsToReplace, blobs.partsShipment, blobs.repairProgress, blobs.results,
		claim.ApprovedBy, formatNullableTime(claim.ApprovedAt),
		claim.RejectedBy, formatNullableTime(claim.RejectedAt), claim.RejectionReason,
		blobs.approvalNotes, blobs.attachments,
		claim.Version,
		claim.CreatedAt.UTC().Format(timeFormat),
		claim.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{ID: claim.ID, Version: claim.Version}
		}
		return fmt.Errorf("inserting claim: %w", err)
	}

	if err := insertHistory(ctx, tx, claim.ID, 0, claim.StatusHistory); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ClaimRepository) GetByID(ctx context.Context, id string) (domain.Claim, error) {
	return r.getBy(ctx, "id", id)
}

func (r *ClaimRepository) GetByNumber(ctx context.Context, number string) (domain.Claim, error) {
	return r.getBy(ctx, "claim_number", number)
}

func (r *ClaimRepository) getBy(ctx context.Context, column, value string) (domain.Claim, error) {
	claim, err := scanClaim(r.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE `+column+` = ?`, value,
	))
	if err != nil {
		return domain.Claim{}, err
	}

	claim.StatusHistory, err = r.loadHistory(ctx, claim.ID)
	if err != nil {
		return domain.Claim{}, err
	}
	return claim, nil
}

func (r *ClaimRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims`
	var conds []string
	var args []any

	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.VIN != "" {
		conds = append(conds, `vin = ?`)
		args = append(args, strings.ToUpper(filter.VIN))
	}
	if filter.Priority != nil {
		conds = append(conds, `priority = ?`)
		args = append(args, string(*filter.Priority))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	query += ` ORDER BY created_at DESC, claim_number DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Listings omit the audit trail; callers fetch a single claim for it.
	return claims, nil
}

// Update writes the claim row and appends any new audit entries in one
// transaction. The version check makes concurrent writers lose cleanly:
// a stale claim.Version yields ConflictError and no row changes.
func (r *ClaimRepository) Update(ctx context.Context, claim domain.Claim) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	blobs, err := marshalBlobs(claim)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE claims SET
			issue_description = ?, issue_category = ?, diagnosis = ?, mileage = ?,
			priority = ?, status = ?, parts_to_replace = ?, parts_shipment = ?,
			repair_progress = ?, results = ?, approved_by = ?, approved_at = ?,
			rejected_by = ?, rejected_at = ?, rejection_reason = ?,
			approval_notes = ?, attachments = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		claim.IssueDescription, string(claim.IssueCategory), claim.Diagnosis, claim.Mileage,
		string(claim.Priority), string(claim.Status),
		blobs.partsToReplace, blobs.partsShipment, blobs.repairProgress, blobs.results,
		claim.ApprovedBy, formatNullableTime(claim.ApprovedAt),
		claim.RejectedBy, formatNullableTime(claim.RejectedAt), claim.RejectionReason,
		blobs.approvalNotes, blobs.attachments,
		claim.UpdatedAt.UTC().Format(timeFormat),
		claim.ID, claim.Version,
	)
	if err != nil {
		return fmt.Errorf("updating claim: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM claims WHERE id = ?`, claim.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking claim existence: %w", err)
		}
		if exists == 0 {
			return domain.ErrClaimNotFound
		}
		return &domain.ConflictError{ID: claim.ID, Version: claim.Version}
	}

	var stored int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claim_status_history WHERE claim_id = ?`, claim.ID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("counting history entries: %w", err)
	}
	if err := insertHistory(ctx, tx, claim.ID, stored, claim.StatusHistory); err != nil {
		return err
	}

	return tx.Commit()
}

// NextClaimNumber allocates the next number from a per-year sequence. The
// upsert makes allocation atomic, so concurrent creations never collide.
func (r *ClaimRepository) NextClaimNumber(ctx context.Context, year int) (string, error) {
	var seq int
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO claim_sequences (year, seq) VALUES (?, 1)
		 ON CONFLICT (year) DO UPDATE SET seq = seq + 1
		 RETURNING seq`, year,
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("allocating claim number: %w", err)
	}
	return fmt.Sprintf("WC-%d-%05d", year, seq), nil
}

// insertHistory appends history entries from index `from` onward. Entries
// already stored are never touched; the trail only grows.
func insertHistory(ctx context.Context, tx *sql.Tx, claimID string, from int, history []domain.StatusChange) error {
	for i := from; i < len(history); i++ {
		h := history[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO claim_status_history (claim_id, seq, status, changed_at, changed_by, reason, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			claimID, i, string(h.Status),
			h.ChangedAt.UTC().Format(timeFormat), h.ChangedBy, h.Reason, h.Notes,
		)
		if err != nil {
			return fmt.Errorf("appending history entry: %w", err)
		}
	}
	return nil
}

func (r *ClaimRepository) loadHistory(ctx context.Context, claimID string) ([]domain.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, changed_at, changed_by, reason, notes
		 FROM claim_status_history WHERE claim_id = ? ORDER BY seq`, claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var history []domain.StatusChange
	for rows.Next() {
		var h domain.StatusChange
		var status, changedAt string
		if err := rows.Scan(&status, &changedAt, &h.ChangedBy, &h.Reason, &h.Notes); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		h.Status = domain.Status(status)
		h.ChangedAt, _ = time.Parse(timeFormat, changedAt)
		history = append(history, h)
	}
	return history, rows.Err()
}

// claimBlobs holds the JSON-encoded sub-records of one claim.
type claimBlobs struct {
	partsToReplace string
	approvalNotes  string
	attachments    string
	partsShipment  sql.NullString
	repairProgress sql.NullString
	results        sql.NullString
}

func marshalBlobs(claim domain.Claim) (claimBlobs, error) {
	var b claimBlobs
	var err error

	if b.partsToReplace, err = marshalSlice(claim.PartsToReplace); err != nil {
		return b, fmt.Errorf("encoding parts to replace: %w", err)
	}
	if b.approvalNotes, err = marshalSlice(claim.ApprovalNotes); err != nil {
		return b, fmt.Errorf("encoding approval notes: %w", err)
	}
	if b.attachments, err = marshalSlice(claim.Attachments); err != nil {
		return b, fmt.Errorf("encoding attachments: %w", err)
	}
	if b.partsShipment, err = marshalNullable(claim.PartsShipment); err != nil {
		return b, fmt.Errorf("encoding shipment: %w", err)
	}
	if b.repairProgress, err = marshalNullable(claim.RepairProgress); err != nil {
		return b, fmt.Errorf("encoding repair progress: %w", err)
	}
	if b.results, err = marshalNullable(claim.Results); err != nil {
		return b, fmt.Errorf("encoding results: %w", err)
	}
	return b, nil
}

func marshalSlice[T any](s []T) (string, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	return string(data), err
}

func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (domain.Claim, error) {
	var c domain.Claim
	var category, priority, status, createdAt, updatedAt string
	var approvedAt, rejectedAt sql.NullString
	var b claimBlobs

	err := row.Scan(
		&c.ID, &c.ClaimNumber, &c.VIN, &c.WarrantyActivationID,
		&c.IssueDescription, &category, &c.Diagnosis, &c.Mileage, &priority, &status,
		&b.partsToReplace, &b.partsShipment, &b.repairProgress, &b.results,
		&c.ApprovedBy, &approvedAt, &c.RejectedBy, &rejectedAt, &c.RejectionReason,
		&b.approvalNotes, &b.attachments, &c.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Claim{}, domain.ErrClaimNotFound
		}
		return domain.Claim{}, fmt.Errorf("scanning claim: %w", err)
	}

	c.IssueCategory = domain.IssueCategory(category)
	c.Priority = domain.Priority(priority)
	c.Status = domain.Status(status)
	c.ApprovedAt = parseNullableTime(approvedAt)
	c.RejectedAt = parseNullableTime(rejectedAt)
	c.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	c.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	if err := json.Unmarshal([]byte(b.partsToReplace), &c.PartsToReplace); err != nil {
		return domain.Claim{}, fmt.Errorf("decoding parts to replace: %w", err)
	}
	if err := json.Unmarshal([]byte(b.approvalNotes), &c.ApprovalNotes); err != nil {
		return domain.Claim{}, fmt.Errorf("decoding approval notes: %w", err)
	}
	if err := json.Unmarshal([]byte(b.attachments), &c.Attachments); err != nil {
		return domain.Claim{}, fmt.Errorf("decoding attachments: %w", err)
	}
	if err := unmarshalNullable(b.partsShipment, &c.PartsShipment); err != nil {
		return domain.Claim{}, fmt.Errorf("decoding shipment: %w", err)
	}
	if err := unmarshalNullable(b.repairProgress, &c.RepairProgress); err != nil {
		return domain.Claim{}, fmt.Errorf("decoding repair progress: %w", err)
	}
	if err := unmarshalNullable(b.results, &c.Results); err != nil {
		return domain.Claim{}, fmt.Errorf("decoding results: %w", err)
	}

	return c, nil
}

func unmarshalNullable[T any](s sql.NullString, dst **T) error {
	if !s.Valid {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal([]byte(s.String), v); err != nil {
		return err
	}
	*dst = v
	return nil
}

func formatNullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeFormat), Valid: true}
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
