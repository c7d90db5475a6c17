package services

import (
	"context"

	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RatingAggregator computes average ratings from approved reviews
type RatingAggregator struct {
	db *gorm.DB
}

// NewRatingAggregator creates a new instance of RatingAggregator
func NewRatingAggregator(db *gorm.DB) *RatingAggregator {
	return &RatingAggregator{db: db}
}

// RoundRating rounds to one decimal place, half away from zero. List and detail views share it.
func RoundRating(avg float64) float64 {
	rounded, _ := decimal.NewFromFloat(avg).Round(1).Float64()
	return rounded
}

// AverageRating returns the rounded mean rating of a book, 0 when it has no reviews
func (a *RatingAggregator) AverageRating(ctx context.Context, bookID int) (float64, error) {
	averages, err := a.AverageRatings(ctx, []int{bookID})
	if err != nil {
		return 0, err
	}
	return averages[bookID], nil
}

// AverageRatings returns rounded mean ratings keyed by book ID
func (a *RatingAggregator) AverageRatings(ctx context.Context, bookIDs []int) (map[int]float64, error) {
	averages := make(map[int]float64, len(bookIDs))
	for _, id := range bookIDs {
		averages[id] = 0
	}
	if len(bookIDs) == 0 {
		return averages, nil
	}

	var rows []struct {
		BookId int
		Total  int64
		Count  int64
	}
	if err := a.db.WithContext(ctx).
		Model(&models.ReviewModel{}).
		Select("book_id, SUM(rating) AS total, COUNT(*) AS count").
		Where("book_id IN ? AND is_approved = ?", bookIDs, true).
		Group("book_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.Count == 0 {
			continue
		}
		avg := decimal.NewFromInt(row.Total).Div(decimal.NewFromInt(row.Count)).Round(1)
		averages[row.BookId], _ = avg.Float64()
	}
	return averages, nil
}
