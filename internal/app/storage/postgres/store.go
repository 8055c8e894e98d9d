// Package postgres implements the application store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/storage"
)

// Store implements storage.ApplicationStore backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.ApplicationStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type applicationRow struct {
	ID            int64           `db:"id"`
	UserID        string          `db:"user_id"`
	ScholarshipID int64           `db:"scholarship_id"`
	Name          string          `db:"name"`
	CreatedAt     time.Time       `db:"created_at"`
	Status        string          `db:"status"`
	Grade         sql.NullFloat64 `db:"grade"`
	Reason        sql.NullString  `db:"reason"`
	UserResponse  sql.NullString  `db:"user_response"`
	Selected      bool            `db:"selected"`
}

type documentRow struct {
	ID            int64  `db:"id"`
	ApplicationID int64  `db:"application_id"`
	Name          string `db:"name"`
	FilePath      string `db:"file_path"`
}

const applicationColumns = `id, user_id, scholarship_id, name, created_at, status, grade, reason, user_response, selected`

func (s *Store) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	if app.Status == "" {
		app.Status = application.StatusSubmitted
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO applications (user_id, scholarship_id, name, created_at, status, selected)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, app.UserID, app.ScholarshipID, app.Name, app.CreatedAt, string(app.Status), app.Selected).Scan(&id)
	if err != nil {
		return application.Application{}, fmt.Errorf("insert application: %w", err)
	}
	return s.GetApplication(ctx, id)
}

func (s *Store) CreateDocument(ctx context.Context, doc application.Document) (application.Document, error) {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO documents (application_id, name, file_path)
		VALUES ($1, $2, $3)
		RETURNING id
	`, doc.ApplicationID, doc.Name, doc.FilePath).Scan(&doc.ID)
	if err != nil {
		return application.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *Store) GetApplication(ctx context.Context, id int64) (application.Application, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE id = $1
	`, id)
	if err != nil {
		return application.Application{}, err
	}

	app := row.toDomain()
	docs, err := s.documentsFor(ctx, []int64{id})
	if err != nil {
		return application.Application{}, err
	}
	app.Documents = docs[id]
	return app, nil
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID string, offset, limit int) ([]application.Application, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []applicationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE user_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.attachDocuments(ctx, rows)
}

func (s *Store) ListApplicationsByScholarship(ctx context.Context, scholarshipID int64) ([]application.Application, error) {
	var rows []applicationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE scholarship_id = $1
		ORDER BY id
	`, scholarshipID)
	if err != nil {
		return nil, err
	}
	return s.attachDocuments(ctx, rows)
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status application.Status, grade *float64, reason *string) (application.Application, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2,
		    grade = COALESCE($3, grade),
		    reason = COALESCE($4, reason)
		WHERE id = $1
	`, id, string(status), grade, reason)
	if err != nil {
		return application.Application{}, fmt.Errorf("update application status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return application.Application{}, sql.ErrNoRows
	}
	return s.GetApplication(ctx, id)
}

func (s *Store) UpdateSelected(ctx context.Context, id int64, selected bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET selected = $2
		WHERE id = $1
	`, id, selected)
	if err != nil {
		return fmt.Errorf("update application selected: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) TransitionStatusBatch(ctx context.Context, ids []int64, status application.Status) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := sqlx.In(`UPDATE applications SET status = ? WHERE id IN (?)`, string(status), ids)
	if err != nil {
		return fmt.Errorf("build transition batch: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("transition batch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows != int64(len(ids)) {
		return fmt.Errorf("transition batch touched %d of %d applications", rows, len(ids))
	}

	return tx.Commit()
}

func (s *Store) attachDocuments(ctx context.Context, rows []applicationRow) ([]application.Application, error) {
	if len(rows) == 0 {
		return []application.Application{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	docs, err := s.documentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]application.Application, 0, len(rows))
	for _, row := range rows {
		app := row.toDomain()
		app.Documents = docs[row.ID]
		result = append(result, app)
	}
	return result, nil
}

func (s *Store) documentsFor(ctx context.Context, appIDs []int64) (map[int64][]application.Document, error) {
	query, args, err := sqlx.In(`
		SELECT id, application_id, name, file_path
		FROM documents
		WHERE application_id IN (?)
		ORDER BY id
	`, appIDs)
	if err != nil {
		return nil, fmt.Errorf("build documents query: %w", err)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}

	result := make(map[int64][]application.Document, len(appIDs))
	for _, row := range rows {
		result[row.ApplicationID] = append(result[row.ApplicationID], application.Document{
			ID:            row.ID,
			ApplicationID: row.ApplicationID,
			Name:          row.Name,
			FilePath:      row.FilePath,
		})
	}
	return result, nil
}

func (r applicationRow) toDomain() application.Application {
	app := application.Application{
		ID:            r.ID,
		UserID:        r.UserID,
		ScholarshipID: r.ScholarshipID,
		Name:          r.Name,
		CreatedAt:     r.CreatedAt,
		Status:        application.Status(r.Status),
		Selected:      r.Selected,
	}
	if r.Grade.Valid {
		g := r.Grade.Float64
		app.Grade = &g
	}
	if r.Reason.Valid {
		reason := r.Reason.String
		app.Reason = &reason
	}
	if r.UserResponse.Valid {
		resp := r.UserResponse.String
		app.UserResponse = &resp
	}
	return app
}
