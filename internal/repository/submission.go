package repository

import (
	"context"

	"crptapi/internal/model"
)

// SubmissionRepository persists the outcome of every create-document attempt.
// Strictly persistence operations; no business logic.
type SubmissionRepository interface {
	// Create inserts a new submission and returns the stored row.
	Create(ctx context.Context, s *model.Submission) (*model.Submission, error)

	// FindByID returns a submission by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Submission, error)

	// List returns a page of submissions, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Submission], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
