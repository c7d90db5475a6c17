package dtos

import (
	"time"

	"github.com/BookClub/BookClub-Backend/src/models"
)

// BookBriefDTO is the slice of a book shown next to a loan
type BookBriefDTO struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Cover  *string `json:"cover"`
}

// LoanSummaryDTO is a transaction as shown in the requested/received/borrowed lists
type LoanSummaryDTO struct {
	TransactionID int                      `json:"transactionId"`
	Token         string                   `json:"token"`
	Status        models.TransactionStatus `json:"status"`
	BorrowerID    *int                     `json:"borrowerId"`
	OwnerID       *int                     `json:"ownerId"`
	RequestDate   time.Time                `json:"requestDate"`
	ApprovalDate  *time.Time               `json:"approvalDate,omitempty"`
	DueDate       *time.Time               `json:"dueDate,omitempty"`
	ReturnDate    *time.Time               `json:"returnDate,omitempty"`
	CancelReason  *string                  `json:"cancelReason,omitempty"`
	Overdue       bool                     `json:"overdue"`
	Book          *BookBriefDTO            `json:"book,omitempty"`
}

// BorrowedBooksDTO splits a borrower's loans into current and past
type BorrowedBooksDTO struct {
	BorrowedBooks []LoanSummaryDTO `json:"borrowedBooks"`
	ReturnedBooks []LoanSummaryDTO `json:"returnedBooks"`
}

func NewLoanSummary(t models.TransactionModel, now time.Time) LoanSummaryDTO {
	summary := LoanSummaryDTO{
		TransactionID: t.Id,
		Token:         t.Token,
		Status:        t.Status,
		BorrowerID:    t.BorrowerId,
		OwnerID:       t.OwnerId,
		RequestDate:   t.RequestDate,
		ApprovalDate:  t.ApprovalDate,
		DueDate:       t.DueDate,
		ReturnDate:    t.ReturnDate,
		CancelReason:  t.CancelReason,
		Overdue:       t.IsOverdue(now),
	}
	if t.Book != nil {
		summary.Book = &BookBriefDTO{
			ID:     t.Book.Id,
			Title:  t.Book.Title,
			Author: t.Book.Author,
			Cover:  t.Book.Cover,
		}
	}
	return summary
}

func NewLoanSummaries(transactions []models.TransactionModel, now time.Time) []LoanSummaryDTO {
	summaries := make([]LoanSummaryDTO, 0, len(transactions))
	for _, t := range transactions {
		summaries = append(summaries, NewLoanSummary(t, now))
	}
	return summaries
}
