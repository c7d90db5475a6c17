package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cancel reasons recorded on transactions that end in Cancelled
const (
	ReasonRejected        = "Rejected by owner"
	ReasonSiblingApproved = "Another request for this book was approved"
)

var activeStatuses = []models.TransactionStatus{models.StatusRequested, models.StatusApproved}

// TransactionStore is the only path that creates or mutates borrow transactions.
// Every mutation is a single statement conditioned on the expected current status,
// so concurrent callers cannot both move the same row.
type TransactionStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTransactionStore creates a new instance of TransactionStore
func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db, now: time.Now}
}

// WithClock returns a copy of the store reading time from now
func (s *TransactionStore) WithClock(now func() time.Time) *TransactionStore {
	clone := *s
	clone.now = now
	return &clone
}

// WithTx returns a copy of the store bound to an open database transaction
func (s *TransactionStore) WithTx(tx *gorm.DB) *TransactionStore {
	clone := *s
	clone.db = tx
	return &clone
}

// Atomic runs fn inside one database transaction; any error rolls every write back
func (s *TransactionStore) Atomic(ctx context.Context, fn func(store *TransactionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.WithTx(tx))
	})
}

// DB exposes the handle the store is bound to, so a unit of work can write other tables
func (s *TransactionStore) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Postgres keeps microseconds, truncate so values read back compare equal
func (s *TransactionStore) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create records a new Requested transaction
func (s *TransactionStore) Create(ctx context.Context, bookID, borrowerID, ownerID int) (*models.TransactionModel, error) {
	db := s.DB(ctx)

	if err := mustExist(db, &models.BookModel{}, bookID, "book"); err != nil {
		return nil, err
	}
	if err := mustExist(db, &models.UserModel{}, borrowerID, "borrower"); err != nil {
		return nil, err
	}
	if err := mustExist(db, &models.UserModel{}, ownerID, "owner"); err != nil {
		return nil, err
	}

	var active int64
	if err := db.Model(&models.TransactionModel{}).
		Where("book_id = ? AND borrower_id = ? AND status IN ?", bookID, borrowerID, activeStatuses).
		Count(&active).Error; err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrDuplicateActiveRequest
	}

	transaction := &models.TransactionModel{
		Token:           uuid.NewString(),
		BookId:          bookID,
		BorrowerId:      &borrowerID,
		OwnerId:         &ownerID,
		CurrentHolderId: &ownerID,
		Status:          models.StatusRequested,
		RequestDate:     s.clock(),
	}

	// The partial unique index catches the insert that loses a race with the count above
	if err := db.Create(transaction).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateActiveRequest
		}
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return transaction, nil
}

// Approve moves a Requested transaction to Approved and fixes its due date
func (s *TransactionStore) Approve(ctx context.Context, id int) (*models.TransactionModel, error) {
	db := s.DB(ctx)

	var transaction models.TransactionModel
	if err := db.First(&transaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrProcessed
		}
		return nil, err
	}
	if transaction.Status != models.StatusRequested {
		return nil, ErrNotFoundOrProcessed
	}

	var lent int64
	if err := db.Model(&models.TransactionModel{}).
		Where("book_id = ? AND status = ? AND id <> ?", transaction.BookId, models.StatusApproved, id).
		Count(&lent).Error; err != nil {
		return nil, err
	}
	if lent > 0 {
		return nil, ErrBookAlreadyLent
	}

	approvedAt := s.clock()
	dueDate := approvedAt.Add(models.LoanPeriod)

	result := db.Model(&models.TransactionModel{}).
		Where("id = ? AND status = ?", id, models.StatusRequested).
		Updates(map[string]any{
			"status":        models.StatusApproved,
			"approval_date": approvedAt,
			"due_date":      dueDate,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, ErrBookAlreadyLent
		}
		return nil, fmt.Errorf("approve transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFoundOrProcessed
	}

	transaction.Status = models.StatusApproved
	transaction.ApprovalDate = &approvedAt
	transaction.DueDate = &dueDate
	return &transaction, nil
}

// CancelSiblings cancels every other Requested transaction on the book and returns the rows it cancelled
func (s *TransactionStore) CancelSiblings(ctx context.Context, bookID, exceptID int) ([]models.TransactionModel, error) {
	db := s.DB(ctx)

	var siblings []models.TransactionModel
	if err := db.
		Where("book_id = ? AND status = ? AND id <> ?", bookID, models.StatusRequested, exceptID).
		Order("id").
		Find(&siblings).Error; err != nil {
		return nil, err
	}
	if len(siblings) == 0 {
		return nil, nil
	}

	ids := make([]int, len(siblings))
	for i, sibling := range siblings {
		ids[i] = sibling.Id
	}

	if err := db.Model(&models.TransactionModel{}).
		Where("id IN ? AND status = ?", ids, models.StatusRequested).
		Updates(map[string]any{
			"status":        models.StatusCancelled,
			"cancel_reason": ReasonSiblingApproved,
		}).Error; err != nil {
		return nil, fmt.Errorf("cancel sibling requests: %w", err)
	}

	reason := ReasonSiblingApproved
	for i := range siblings {
		siblings[i].Status = models.StatusCancelled
		siblings[i].CancelReason = &reason
	}
	return siblings, nil
}

// Reject moves a Requested transaction to Cancelled
func (s *TransactionStore) Reject(ctx context.Context, id int) (*models.TransactionModel, error) {
	return s.transition(ctx, id, models.StatusRequested, map[string]any{
		"status":        models.StatusCancelled,
		"cancel_reason": ReasonRejected,
	}, ErrNotFoundOrProcessed)
}

// MarkReturned moves an Approved transaction to Returned
func (s *TransactionStore) MarkReturned(ctx context.Context, id int) (*models.TransactionModel, error) {
	return s.transition(ctx, id, models.StatusApproved, map[string]any{
		"status":      models.StatusReturned,
		"return_date": s.clock(),
	}, ErrNotFoundOrNotApproved)
}

func (s *TransactionStore) transition(ctx context.Context, id int, from models.TransactionStatus, updates map[string]any, missing error) (*models.TransactionModel, error) {
	db := s.DB(ctx)

	result := db.Model(&models.TransactionModel{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update transaction %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, missing
	}

	var transaction models.TransactionModel
	if err := db.First(&transaction, id).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// Get retrieves a transaction by its ID
func (s *TransactionStore) Get(ctx context.Context, id int) (*models.TransactionModel, error) {
	var transaction models.TransactionModel
	if err := s.DB(ctx).Preload("Book").First(&transaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

// GetByToken retrieves a transaction by its external token
func (s *TransactionStore) GetByToken(ctx context.Context, token string) (*models.TransactionModel, error) {
	var transaction models.TransactionModel
	if err := s.DB(ctx).Preload("Book").Where("token = ?", token).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

// ListByBorrower lists the transactions a user made, newest first. An empty status lists all.
func (s *TransactionStore) ListByBorrower(ctx context.Context, userID int, status models.TransactionStatus) ([]models.TransactionModel, error) {
	return s.list(ctx, "borrower_id = ?", userID, status)
}

// ListByOwner lists the transactions on a user's books, newest first. An empty status lists all.
func (s *TransactionStore) ListByOwner(ctx context.Context, userID int, status models.TransactionStatus) ([]models.TransactionModel, error) {
	return s.list(ctx, "owner_id = ?", userID, status)
}

func (s *TransactionStore) list(ctx context.Context, where string, userID int, status models.TransactionStatus) ([]models.TransactionModel, error) {
	query := s.DB(ctx).Preload("Book").Where(where, userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var transactions []models.TransactionModel
	err := query.Order("request_date DESC, id DESC").Find(&transactions).Error
	return transactions, err
}

// ListByClub lists every transaction on books of a club, newest first
func (s *TransactionStore) ListByClub(ctx context.Context, clubID int) ([]models.TransactionModel, error) {
	var transactions []models.TransactionModel
	err := s.DB(ctx).
		Preload("Book").
		Preload("Borrower").
		Preload("Owner").
		Joins("JOIN book_models ON book_models.id = transaction_models.book_id").
		Where("book_models.club_id = ?", clubID).
		Order("transaction_models.request_date DESC, transaction_models.id DESC").
		Find(&transactions).Error
	return transactions, err
}

// CountReturnedInClub counts completed loans on books of a club
func (s *TransactionStore) CountReturnedInClub(ctx context.Context, clubID int) (int64, error) {
	var count int64
	err := s.DB(ctx).Model(&models.TransactionModel{}).
		Joins("JOIN book_models ON book_models.id = transaction_models.book_id").
		Where("transaction_models.status = ? AND book_models.club_id = ?", models.StatusReturned, clubID).
		Count(&count).Error
	return count, err
}

func mustExist(db *gorm.DB, model any, id int, name string) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s %d", ErrInvalidReference, name, id)
	}
	return nil
}
