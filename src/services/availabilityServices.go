package services

import (
	"context"

	"github.com/BookClub/BookClub-Backend/src/models"
	"gorm.io/gorm"
)

// AvailabilityResolver derives a book's displayed status from its transactions.
// It never writes.
type AvailabilityResolver struct {
	db *gorm.DB
}

// NewAvailabilityResolver creates a new instance of AvailabilityResolver
func NewAvailabilityResolver(db *gorm.DB) *AvailabilityResolver {
	return &AvailabilityResolver{db: db}
}

// BookStatus is Unavailable only while an approved loan exists; pending requests do not lock the book
func (r *AvailabilityResolver) BookStatus(ctx context.Context, bookID int) (models.BookStatus, error) {
	statuses, err := r.BookStatuses(ctx, []int{bookID})
	if err != nil {
		return "", err
	}
	return statuses[bookID], nil
}

// BookStatuses resolves the listing status of many books with one query
func (r *AvailabilityResolver) BookStatuses(ctx context.Context, bookIDs []int) (map[int]models.BookStatus, error) {
	statuses := make(map[int]models.BookStatus, len(bookIDs))
	for _, id := range bookIDs {
		statuses[id] = models.BookAvailable
	}
	if len(bookIDs) == 0 {
		return statuses, nil
	}

	var lent []int
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("book_id IN ? AND status = ?", bookIDs, models.StatusApproved).
		Distinct().
		Pluck("book_id", &lent).Error; err != nil {
		return nil, err
	}
	for _, id := range lent {
		statuses[id] = models.BookUnavailable
	}
	return statuses, nil
}

// DetailAvailability is the stricter check used by the detail page.
// It also treats the reserved Borrowed status as unavailable.
func (r *AvailabilityResolver) DetailAvailability(ctx context.Context, bookID int) (string, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("book_id = ? AND status IN ?", bookID,
			[]models.TransactionStatus{models.StatusApproved, models.StatusBorrowed}).
		Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return models.DetailNotAvailable, nil
	}
	return models.DetailAvailable, nil
}
