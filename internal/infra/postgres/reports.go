package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-platform-service/internal/domain"
)

// ReportReader serves the admin reporting read models over a pgx pool.
type ReportReader struct {
	pool *pgxpool.Pool
}

func NewReportReader(pool *pgxpool.Pool) *ReportReader {
	return &ReportReader{pool: pool}
}

func (r *ReportReader) ListScoredSubmissions(ctx context.Context) ([]domain.ScoredSubmission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.submission_id, s.quiz_id, qz.title,
			COALESCE(s.score, 0), COALESCE(s.total_points, 0)
		FROM quiz_submissions s
		JOIN quizzes qz ON qz.quiz_id = s.quiz_id
		WHERE s.status = 'submitted'
		ORDER BY s.submission_id`)
	if err != nil {
		return nil, fmt.Errorf("list scored submissions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ScoredSubmission, 0)
	for rows.Next() {
		var row domain.ScoredSubmission
		if err := rows.Scan(&row.SubmissionID, &row.QuizID, &row.QuizTitle, &row.Score, &row.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan scored submission: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListAdminSubmissions orders by submitted_at descending; open attempts come last.
func (r *ReportReader) ListAdminSubmissions(ctx context.Context, filter domain.SubmissionFilter) ([]domain.AdminSubmissionRow, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.QuizID != 0 {
		where = append(where, "s.quiz_id = "+arg(filter.QuizID))
	}
	if filter.UserID != 0 {
		where = append(where, "s.user_id = "+arg(filter.UserID))
	}
	if filter.Status != "" {
		where = append(where, "s.status = "+arg(string(filter.Status)))
	}

	query := `
		SELECT s.submission_id, s.quiz_id, s.user_id, s.status, s.created_at,
			s.submitted_at, s.score, s.total_points,
			qz.title, u.username, u.first_name, u.last_name, u.email
		FROM quiz_submissions s
		JOIN quizzes qz ON qz.quiz_id = s.quiz_id
		JOIN users u ON u.user_id = s.user_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.submitted_at DESC NULLS LAST, s.submission_id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admin submissions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AdminSubmissionRow, 0)
	for rows.Next() {
		var (
			row         domain.AdminSubmissionRow
			status      string
			submittedAt *time.Time
		)
		if err := rows.Scan(
			&row.ID, &row.QuizID, &row.UserID, &status, &row.CreatedAt,
			&submittedAt, &row.Score, &row.TotalPoints,
			&row.QuizTitle, &row.Username, &row.FirstName, &row.LastName, &row.Email,
		); err != nil {
			return nil, fmt.Errorf("scan admin submission: %w", err)
		}
		row.Status = domain.SubmissionStatus(status)
		row.SubmittedAt = submittedAt
		out = append(out, row)
	}
	return out, rows.Err()
}
