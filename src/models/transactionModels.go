package models

import "time"

type TransactionStatus string

const (
	StatusRequested TransactionStatus = "Requested"
	StatusApproved  TransactionStatus = "Approved"
	StatusReturned  TransactionStatus = "Returned"
	StatusCancelled TransactionStatus = "Cancelled"
	// Overdue is accepted by the schema but never written; see IsOverdue
	StatusOverdue TransactionStatus = "Overdue"
	// Borrowed is only ever read by the detail availability check
	StatusBorrowed TransactionStatus = "Borrowed"
)

// LoanPeriod is the time between approval and the due date
const LoanPeriod = 14 * 24 * time.Hour

// Valid reports whether s can be used as a listing filter
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusApproved, StatusReturned, StatusCancelled, StatusOverdue:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s TransactionStatus) Terminal() bool {
	return s == StatusReturned || s == StatusCancelled
}

type TransactionModel struct {
	Id              int               `json:"id" gorm:"primaryKey;autoIncrement"`
	Token           string            `json:"token" gorm:"column:token;type:varchar(50);uniqueIndex;not null"`
	BookId          int               `json:"bookId" gorm:"column:book_id;not null;index"`
	Book            *BookModel        `json:"book,omitempty" gorm:"foreignKey:BookId;references:Id;constraint:OnDelete:CASCADE"`
	BorrowerId      *int              `json:"borrowerId" gorm:"column:borrower_id;index"`
	Borrower        *UserModel        `json:"borrower,omitempty" gorm:"foreignKey:BorrowerId;references:Id;constraint:OnDelete:SET NULL"`
	OwnerId         *int              `json:"ownerId" gorm:"column:owner_id;index"`
	Owner           *UserModel        `json:"owner,omitempty" gorm:"foreignKey:OwnerId;references:Id;constraint:OnDelete:SET NULL"`
	CurrentHolderId *int              `json:"currentHolderId" gorm:"column:current_holder_id"`
	CurrentHolder   *UserModel        `json:"-" gorm:"foreignKey:CurrentHolderId;references:Id;constraint:OnDelete:SET NULL"`
	Status          TransactionStatus `json:"status" gorm:"type:varchar(20);not null;default:'Requested'"`
	RequestDate     time.Time         `json:"requestDate" gorm:"column:request_date;not null"`
	ApprovalDate    *time.Time        `json:"approvalDate" gorm:"column:approval_date"`
	ReturnDate      *time.Time        `json:"returnDate" gorm:"column:return_date"`
	DueDate         *time.Time        `json:"dueDate" gorm:"column:due_date"`
	CancelReason    *string           `json:"cancelReason" gorm:"column:cancel_reason;type:varchar(255)"`
}

// IsOverdue is computed on read: an approved loan past its due date
func (t *TransactionModel) IsOverdue(now time.Time) bool {
	return t.Status == StatusApproved && t.DueDate != nil && t.DueDate.Before(now)
}
