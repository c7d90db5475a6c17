package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BookClub/BookClub-Backend/src/dtos"
	"github.com/BookClub/BookClub-Backend/src/models"
	"gorm.io/gorm"
)

// BookCache is told when a book's derived status may have changed
type BookCache interface {
	InvalidateBookCache(bookID int)
}

// ReviewInput is the optional review a borrower leaves while returning a book
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// LendingService orchestrates the borrowing lifecycle. Each operation commits
// its storage writes as one unit and only then dispatches the notices it queued.
type LendingService struct {
	store      *TransactionStore
	dispatcher *Dispatcher
	cache      BookCache // may be nil
	log        *slog.Logger
	now        func() time.Time
}

// NewLendingService creates a new instance of LendingService.
// cache may be nil when no listing cache needs invalidating.
func NewLendingService(store *TransactionStore, dispatcher *Dispatcher, cache BookCache, log *slog.Logger) *LendingService {
	return &LendingService{
		store:      store,
		dispatcher: dispatcher,
		cache:      cache,
		log:        log,
		now:        time.Now,
	}
}

func (s *LendingService) afterCommit(ctx context.Context, bookID int, notices []Notice) {
	if s.cache != nil {
		s.cache.InvalidateBookCache(bookID)
	}
	s.dispatcher.Dispatch(ctx, notices)
}

func loadBook(db *gorm.DB, bookID int) (*models.BookModel, error) {
	var book models.BookModel
	if err := db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book %d", ErrInvalidReference, bookID)
		}
		return nil, err
	}
	return &book, nil
}

func bookTitle(book *models.BookModel) string {
	if book == nil || book.Title == "" {
		return "a book"
	}
	return book.Title
}

// RequestBorrow creates a borrow request and tells the owner about it
func (s *LendingService) RequestBorrow(ctx context.Context, actor Actor, bookID, ownerID int) (*models.TransactionModel, error) {
	if bookID <= 0 || ownerID <= 0 {
		return nil, validationError("bookId and ownerId are required")
	}

	var (
		transaction *models.TransactionModel
		notices     []Notice
	)
	err := s.store.Atomic(ctx, func(store *TransactionStore) error {
		book, err := loadBook(store.DB(ctx), bookID)
		if err != nil {
			return err
		}
		if book.OwnerId == nil || *book.OwnerId != ownerID {
			return validationError("ownerId does not match the owner of the book")
		}
		if ownerID == actor.UserID {
			return validationError("you cannot borrow your own book")
		}

		transaction, err = store.Create(ctx, bookID, actor.UserID, ownerID)
		if err != nil {
			return err
		}
		notices = append(notices, Notice{
			UserID:  ownerID,
			Message: fmt.Sprintf("You have a new borrow request for %q.", bookTitle(book)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, bookID, notices)
	return transaction, nil
}

// RequestUnavailableBook queues a request on a book that is currently lent out. No one is notified.
func (s *LendingService) RequestUnavailableBook(ctx context.Context, actor Actor, bookID, userID int) (*models.TransactionModel, error) {
	if bookID <= 0 || userID <= 0 {
		return nil, validationError("bookId and userId are required")
	}

	var transaction *models.TransactionModel
	err := s.store.Atomic(ctx, func(store *TransactionStore) error {
		book, err := loadBook(store.DB(ctx), bookID)
		if err != nil {
			return err
		}
		if userID != actor.UserID && !actor.AdminOf(book.ClubId) {
			return ErrForbidden
		}
		if book.OwnerId == nil {
			return validationError("book has no owner to borrow from")
		}
		if *book.OwnerId == userID {
			return validationError("you cannot borrow your own book")
		}

		transaction, err = store.Create(ctx, bookID, userID, *book.OwnerId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// loadForDecision finds a transaction the actor may decide on as owner or club admin.
// The borrower is told they may not decide; anyone else sees the same error as for a missing id.
func loadForDecision(ctx context.Context, store *TransactionStore, actor Actor, id int, missing error) (*models.TransactionModel, error) {
	transaction, err := store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, missing
	}
	if err != nil {
		return nil, err
	}

	var clubID *int
	if transaction.Book != nil {
		clubID = transaction.Book.ClubId
	}
	if actor.Is(transaction.OwnerId) || actor.AdminOf(clubID) {
		return transaction, nil
	}
	if actor.Is(transaction.BorrowerId) {
		return nil, ErrForbidden
	}
	return nil, missing
}

// ApproveBorrow approves a request, cancels competing requests on the same book
// and tells every affected borrower
func (s *LendingService) ApproveBorrow(ctx context.Context, actor Actor, id int) (*models.TransactionModel, error) {
	var (
		approved *models.TransactionModel
		notices  []Notice
	)
	err := s.store.Atomic(ctx, func(store *TransactionStore) error {
		current, err := loadForDecision(ctx, store, actor, id, ErrNotFoundOrProcessed)
		if err != nil {
			return err
		}

		approved, err = store.Approve(ctx, id)
		if err != nil {
			return err
		}
		approved.Book = current.Book

		cancelled, err := store.CancelSiblings(ctx, approved.BookId, approved.Id)
		if err != nil {
			return err
		}

		title := bookTitle(current.Book)
		if approved.BorrowerId != nil {
			notices = append(notices, Notice{
				UserID:  *approved.BorrowerId,
				Message: fmt.Sprintf("Your request for the book %q has been accepted.", title),
			})
		}
		for _, sibling := range cancelled {
			if sibling.BorrowerId == nil {
				continue
			}
			notices = append(notices, Notice{
				UserID:  *sibling.BorrowerId,
				Message: fmt.Sprintf("Your request for the book %q was cancelled because it was lent to another member.", title),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, approved.BookId, notices)
	return approved, nil
}

// RejectBorrow rejects a request and tells the borrower
func (s *LendingService) RejectBorrow(ctx context.Context, actor Actor, id int) (*models.TransactionModel, error) {
	var (
		rejected *models.TransactionModel
		notices  []Notice
	)
	err := s.store.Atomic(ctx, func(store *TransactionStore) error {
		current, err := loadForDecision(ctx, store, actor, id, ErrNotFoundOrProcessed)
		if err != nil {
			return err
		}

		rejected, err = store.Reject(ctx, id)
		if err != nil {
			return err
		}
		rejected.Book = current.Book

		if rejected.BorrowerId != nil {
			notices = append(notices, Notice{
				UserID:  *rejected.BorrowerId,
				Message: fmt.Sprintf("Your request for the book %q has been rejected.", bookTitle(current.Book)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, rejected.BookId, notices)
	return rejected, nil
}

// ReturnBorrow marks a loan returned. When review is set it is written first in
// the same unit, so a failed review leaves the loan untouched and vice versa.
func (s *LendingService) ReturnBorrow(ctx context.Context, actor Actor, id int, review *ReviewInput) (*models.TransactionModel, error) {
	var (
		returned *models.TransactionModel
		notices  []Notice
	)
	err := s.store.Atomic(ctx, func(store *TransactionStore) error {
		current, err := store.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFoundOrNotApproved
		}
		if err != nil {
			return err
		}

		var clubID *int
		if current.Book != nil {
			clubID = current.Book.ClubId
		}
		if !actor.Is(current.BorrowerId) && !actor.Is(current.OwnerId) && !actor.AdminOf(clubID) {
			return ErrNotFoundOrNotApproved
		}

		if review != nil {
			if current.Status != models.StatusApproved {
				return ErrNotFoundOrNotApproved
			}
			if !actor.Is(current.BorrowerId) {
				return validationError("only the borrower can review a returned book")
			}
			transactionID := current.Id
			if _, err := insertReview(store.DB(ctx), actor.UserID, current.BookId, &transactionID,
				review.Rating, review.Comment, store.clock()); err != nil {
				return err
			}
		}

		returned, err = store.MarkReturned(ctx, id)
		if err != nil {
			return err
		}
		returned.Book = current.Book

		if current.OwnerId != nil && !actor.Is(current.OwnerId) {
			notices = append(notices, Notice{
				UserID:  *current.OwnerId,
				Message: fmt.Sprintf("Your book %q has been returned.", bookTitle(current.Book)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, returned.BookId, notices)
	return returned, nil
}

// canView reports whether actor may see userID's loans
func (s *LendingService) canView(ctx context.Context, actor Actor, userID int) error {
	if actor.UserID == userID || actor.IsSuperAdmin() {
		return nil
	}
	if actor.Role == models.RoleClubAdmin {
		var user models.UserModel
		err := s.store.DB(ctx).Select("id", "club_id").First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if actor.AdminOf(user.ClubId) {
			return nil
		}
	}
	return ErrForbidden
}

// RequestedBy lists a borrower's pending requests
func (s *LendingService) RequestedBy(ctx context.Context, actor Actor, userID int) ([]dtos.LoanSummaryDTO, error) {
	if err := s.canView(ctx, actor, userID); err != nil {
		return nil, err
	}
	transactions, err := s.store.ListByBorrower(ctx, userID, models.StatusRequested)
	if err != nil {
		return nil, err
	}
	return dtos.NewLoanSummaries(transactions, s.now()), nil
}

// ReceivedBy lists the pending requests on an owner's books
func (s *LendingService) ReceivedBy(ctx context.Context, actor Actor, userID int) ([]dtos.LoanSummaryDTO, error) {
	if err := s.canView(ctx, actor, userID); err != nil {
		return nil, err
	}
	transactions, err := s.store.ListByOwner(ctx, userID, models.StatusRequested)
	if err != nil {
		return nil, err
	}
	return dtos.NewLoanSummaries(transactions, s.now()), nil
}

// BorrowedBy lists a borrower's current loans and past loans separately
func (s *LendingService) BorrowedBy(ctx context.Context, actor Actor, userID int) (*dtos.BorrowedBooksDTO, error) {
	if err := s.canView(ctx, actor, userID); err != nil {
		return nil, err
	}
	current, err := s.store.ListByBorrower(ctx, userID, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	past, err := s.store.ListByBorrower(ctx, userID, models.StatusReturned)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &dtos.BorrowedBooksDTO{
		BorrowedBooks: dtos.NewLoanSummaries(current, now),
		ReturnedBooks: dtos.NewLoanSummaries(past, now),
	}, nil
}

// GetByToken finds a transaction by its external token. Non-participants see nothing.
func (s *LendingService) GetByToken(ctx context.Context, actor Actor, token string) (*dtos.LoanSummaryDTO, error) {
	transaction, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	var clubID *int
	if transaction.Book != nil {
		clubID = transaction.Book.ClubId
	}
	if !actor.Is(transaction.BorrowerId) && !actor.Is(transaction.OwnerId) && !actor.AdminOf(clubID) {
		return nil, ErrNotFound
	}

	summary := dtos.NewLoanSummary(*transaction, s.now())
	return &summary, nil
}

// SuccessfulInClub counts the completed loans of a club
func (s *LendingService) SuccessfulInClub(ctx context.Context, clubID int) (int64, error) {
	return s.store.CountReturnedInClub(ctx, clubID)
}
