package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BookClub/BookClub-Backend/src/models"
	excelize "github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ClubService struct {
	db    *gorm.DB
	store *TransactionStore
	now   func() time.Time
}

// NewClubService creates a new instance of ClubService
func NewClubService(db *gorm.DB, store *TransactionStore) *ClubService {
	return &ClubService{db: db, store: store, now: time.Now}
}

// CreateClub creates a club; super admins only
func (s *ClubService) CreateClub(ctx context.Context, actor Actor, club *models.ClubModel) (*models.ClubModel, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	club.Name = strings.TrimSpace(club.Name)
	if club.Name == "" {
		return nil, validationError("club name is required")
	}
	club.Id = 0
	club.IsActive = true

	if err := s.db.WithContext(ctx).Create(club).Error; err != nil {
		return nil, err
	}
	return club, nil
}

// GetAllClubs retrieves every active club
func (s *ClubService) GetAllClubs(ctx context.Context) ([]models.ClubModel, error) {
	var clubs []models.ClubModel
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&clubs).Error
	return clubs, err
}

// GetClubByID retrieves a club by its ID
func (s *ClubService) GetClubByID(ctx context.Context, id int) (*models.ClubModel, error) {
	var club models.ClubModel
	if err := s.db.WithContext(ctx).First(&club, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &club, nil
}

// GetMembers lists a club's members; admins of that club only
func (s *ClubService) GetMembers(ctx context.Context, actor Actor, clubID int) ([]models.UserModel, error) {
	if !actor.AdminOf(&clubID) {
		return nil, ErrForbidden
	}
	if _, err := s.GetClubByID(ctx, clubID); err != nil {
		return nil, err
	}

	var members []models.UserModel
	err := s.db.WithContext(ctx).Where("club_id = ?", clubID).Order("name").Find(&members).Error
	return members, err
}

var reportHeaders = []any{
	"Transaction", "Token", "Book", "Code", "Borrower", "Owner",
	"Status", "Requested", "Approved", "Due", "Returned", "Overdue",
}

// ExportTransactionsReport renders every transaction of a club as an xlsx workbook
func (s *ClubService) ExportTransactionsReport(ctx context.Context, actor Actor, clubID int) ([]byte, error) {
	if !actor.AdminOf(&clubID) {
		return nil, ErrForbidden
	}
	club, err := s.GetClubByID(ctx, clubID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.store.ListByClub(ctx, clubID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Transactions"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &reportHeaders); err != nil {
		return nil, err
	}

	now := s.now()
	for i, t := range transactions {
		row := []any{
			t.Id, t.Token, "", "", userName(t.Borrower), userName(t.Owner),
			string(t.Status), formatDate(&t.RequestDate), formatDate(t.ApprovalDate),
			formatDate(t.DueDate), formatDate(t.ReturnDate), t.IsOverdue(now),
		}
		if t.Book != nil {
			row[2] = t.Book.Title
			row[3] = t.Book.UniqueCode
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("%s transactions", club.Name),
		Creator: "BookClub",
	}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func userName(user *models.UserModel) string {
	if user == nil {
		return ""
	}
	return user.Name
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
