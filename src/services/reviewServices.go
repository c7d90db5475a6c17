package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BookClub/BookClub-Backend/src/dtos"
	"github.com/BookClub/BookClub-Backend/src/models"
	"gorm.io/gorm"
)

type ReviewService struct {
	db    *gorm.DB
	cache BookCache // may be nil
	now   func() time.Time
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(db *gorm.DB, cache BookCache) *ReviewService {
	return &ReviewService{db: db, cache: cache, now: time.Now}
}

func validateRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return validationError("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	return nil
}

// insertReview is shared by the standalone flow and the return flow
func insertReview(db *gorm.DB, userID, bookID int, transactionID *int, rating int, comment string, now time.Time) (*models.ReviewModel, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if err := mustExist(db, &models.BookModel{}, bookID, "book"); err != nil {
		return nil, err
	}

	review := &models.ReviewModel{
		BookId:        bookID,
		UserId:        &userID,
		TransactionId: transactionID,
		Rating:        rating,
		Comment:       strings.TrimSpace(comment),
		Date:          now,
		IsApproved:    true,
	}
	if err := db.Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, validationError("this loan has already been reviewed")
		}
		return nil, err
	}
	return review, nil
}

// AddReview stores a review, optionally tied to a loan the reviewer has returned
func (s *ReviewService) AddReview(ctx context.Context, actor Actor, bookID, rating int, comment string, transactionID *int) (*models.ReviewModel, error) {
	if bookID <= 0 {
		return nil, validationError("book ID is required")
	}
	db := s.db.WithContext(ctx)

	if transactionID != nil {
		var transaction models.TransactionModel
		if err := db.First(&transaction, *transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidReference
			}
			return nil, err
		}
		if transaction.BookId != bookID || transaction.Status != models.StatusReturned {
			return nil, validationError("reviews can only be linked to a returned loan of the same book")
		}
		if !actor.Is(transaction.BorrowerId) {
			return nil, ErrForbidden
		}
	}

	review, err := insertReview(db, actor.UserID, bookID, transactionID, rating, comment, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(bookID)
	return review, nil
}

// EditReview changes a review; only its author may do so
func (s *ReviewService) EditReview(ctx context.Context, actor Actor, reviewID, rating int, comment string) (*models.ReviewModel, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var review models.ReviewModel
	if err := db.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !actor.Is(review.UserId) {
		return nil, ErrForbidden
	}

	editedAt := s.now().UTC()
	if err := db.Model(&review).Updates(map[string]any{
		"rating":    rating,
		"comment":   strings.TrimSpace(comment),
		"edited_at": editedAt,
	}).Error; err != nil {
		return nil, err
	}
	review.Rating = rating
	review.Comment = strings.TrimSpace(comment)
	review.EditedAt = &editedAt

	s.invalidate(review.BookId)
	return &review, nil
}

// SetApproval hides or shows a review; admins of the book's club only
func (s *ReviewService) SetApproval(ctx context.Context, actor Actor, reviewID int, approved bool) error {
	db := s.db.WithContext(ctx)

	var review models.ReviewModel
	if err := db.Preload("Book").First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var clubID *int
	if review.Book != nil {
		clubID = review.Book.ClubId
	}
	if !actor.AdminOf(clubID) {
		return ErrForbidden
	}

	if err := db.Model(&review).Update("is_approved", approved).Error; err != nil {
		return err
	}
	s.invalidate(review.BookId)
	return nil
}

// ListByBook retrieves the approved reviews of a book, newest first
func (s *ReviewService) ListByBook(ctx context.Context, bookID int) ([]dtos.ReviewDTO, error) {
	var reviews []models.ReviewModel
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("book_id = ? AND is_approved = ?", bookID, true).
		Order("date DESC, id DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}

	result := make([]dtos.ReviewDTO, 0, len(reviews))
	for _, review := range reviews {
		dto := dtos.ReviewDTO{ReviewModel: review, Reviewer: "Former member"}
		if review.User != nil {
			dto.Reviewer = review.User.Name
		}
		result = append(result, dto)
	}
	return result, nil
}

// ListByUser retrieves every review a user wrote
func (s *ReviewService) ListByUser(ctx context.Context, userID int) ([]models.ReviewModel, error) {
	var reviews []models.ReviewModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&reviews).Error
	return reviews, err
}

func (s *ReviewService) invalidate(bookID int) {
	if s.cache != nil {
		s.cache.InvalidateBookCache(bookID)
	}
}
