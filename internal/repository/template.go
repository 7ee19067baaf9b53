package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/veriface/punchclock/internal/domain"
)

type TemplateRepository struct {
	pool PgxPool
}

func NewTemplateRepository(pool PgxPool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// Create stores a new face template for the employee. The embedding is
// text-encoded before it touches the database.
func (r *TemplateRepository) Create(ctx context.Context, employeeID uuid.UUID, embedding []float32) (*domain.FaceTemplate, error) {
	query := `
		INSERT INTO face_templates (id, employee_id, embedding, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`

	template := &domain.FaceTemplate{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Embedding:  embedding,
	}

	err := r.pool.QueryRow(ctx, query,
		template.ID,
		template.EmployeeID,
		domain.EncodeEmbedding(embedding),
	).Scan(&template.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("create face template: %w", err)
	}

	return template, nil
}

// ListAll returns every template of every employee in one scan, embeddings
// still encoded. This is the feed for the in-memory template store.
func (r *TemplateRepository) ListAll(ctx context.Context) ([]TemplateRecord, error) {
	query := `
		SELECT id, employee_id, embedding, created_at
		FROM face_templates
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list face templates: %w", err)
	}
	defer rows.Close()

	var records []TemplateRecord
	for rows.Next() {
		var rec TemplateRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Embedding, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face template: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list face templates: %w", err)
	}

	return records, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM face_templates
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete face template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTemplateNotFound
	}

	return nil
}
