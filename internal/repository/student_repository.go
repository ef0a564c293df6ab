package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/meridian-sis/scheduler-api/internal/models"
)

const studentColumns = `id, student_id, first_name, last_name, grade_level, active, created_at, updated_at`

// StudentRepository manages student rows.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListActiveAlphabetical returns active students ordered by last name, first
// name, then ID. Alphabetical lunch placement walks this list in order.
func (r *StudentRepository) ListActiveAlphabetical(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE active = TRUE ORDER BY last_name ASC, first_name ASC, id ASC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// CountByGrade returns active student counts grouped by grade level.
func (r *StudentRepository) CountByGrade(ctx context.Context) (map[int]int, error) {
	rows, err := r.db.QueryxContext(ctx, "SELECT grade_level, COUNT(*) FROM students WHERE active = TRUE GROUP BY grade_level")
	if err != nil {
		return nil, fmt.Errorf("count students by grade: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var grade, count int
		if err := rows.Scan(&grade, &count); err != nil {
			return nil, fmt.Errorf("scan grade count: %w", err)
		}
		counts[grade] = count
	}
	return counts, rows.Err()
}
