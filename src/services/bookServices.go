package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BookClub/BookClub-Backend/src/dtos"
	"github.com/BookClub/BookClub-Backend/src/models"
	excelize "github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookService struct {
	db           *gorm.DB
	availability *AvailabilityResolver
	ratings      *RatingAggregator
	reviews      *ReviewService
	dispatcher   *Dispatcher
	cache        *ListingCache
	log          *slog.Logger
	now          func() time.Time
}

// NewBookService creates a new instance of BookService
func NewBookService(
	db *gorm.DB,
	availability *AvailabilityResolver,
	ratings *RatingAggregator,
	reviews *ReviewService,
	dispatcher *Dispatcher,
	cache *ListingCache,
	log *slog.Logger,
) *BookService {
	return &BookService{
		db:           db,
		availability: availability,
		ratings:      ratings,
		reviews:      reviews,
		dispatcher:   dispatcher,
		cache:        cache,
		log:          log,
		now:          time.Now,
	}
}

// nextUniqueCode hands out YYYYMMDD-NNN codes from a per-day counter row.
// The upsert takes a row lock, so concurrent inserts get distinct numbers.
func nextUniqueCode(tx *gorm.DB, now time.Time) (string, error) {
	day := now.UTC().Format("20060102")

	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"counter": gorm.Expr("book_code_sequence_models.counter + 1"),
		}),
	}).Create(&models.BookCodeSequenceModel{Day: day, Counter: 1}).Error; err != nil {
		return "", fmt.Errorf("advance book code sequence: %w", err)
	}

	var seq models.BookCodeSequenceModel
	if err := tx.Where("day = ?", day).First(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", day, seq.Counter), nil
}

func normalizeBookInput(input *dtos.BookInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return validationError("title is required")
	}
	if input.Condition == "" {
		input.Condition = models.ConditionGood
	}
	if !input.Condition.Valid() {
		return validationError("condition must be one of New, Good, Fair, Worn")
	}
	return nil
}

// bookClub picks the club a new book belongs to: the actor's own club, or the
// requested one for a super admin who has none
func bookClub(tx *gorm.DB, actor Actor, input dtos.BookInput) (*int, error) {
	if actor.ClubID != nil {
		return actor.ClubID, nil
	}
	if !actor.IsSuperAdmin() || input.ClubId == nil {
		return nil, validationError("a book must belong to a club")
	}
	if err := mustExist(tx, &models.ClubModel{}, *input.ClubId, "club"); err != nil {
		return nil, err
	}
	return input.ClubId, nil
}

func (s *BookService) insertBook(tx *gorm.DB, actor Actor, input dtos.BookInput) (*models.BookModel, error) {
	if err := normalizeBookInput(&input); err != nil {
		return nil, err
	}
	clubID, err := bookClub(tx, actor, input)
	if err != nil {
		return nil, err
	}
	code, err := nextUniqueCode(tx, s.now())
	if err != nil {
		return nil, err
	}

	ownerID := actor.UserID
	book := &models.BookModel{
		Title:       input.Title,
		Author:      strings.TrimSpace(input.Author),
		Genre:       strings.TrimSpace(input.Genre),
		Description: input.Description,
		Condition:   input.Condition,
		Cover:       input.Cover,
		UniqueCode:  code,
		OwnerId:     &ownerID,
		ClubId:      clubID,
	}
	if err := tx.Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// AddBook stores a book for the actor's club and announces it.
// The announcement is best-effort; the book is committed regardless.
func (s *BookService) AddBook(ctx context.Context, actor Actor, input dtos.BookInput) (*models.BookModel, error) {
	var book *models.BookModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		book, err = s.insertBook(tx, actor, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidatePrefix(listCachePrefix)
	s.dispatcher.Dispatch(ctx, s.announce(ctx, actor, book))
	return book, nil
}

// announce builds the fan-out for a new book, logging and skipping lookups that fail
func (s *BookService) announce(ctx context.Context, actor Actor, book *models.BookModel) []Notice {
	notices := []Notice{{
		UserID:  actor.UserID,
		Message: fmt.Sprintf("You added %q to the club library.", book.Title),
	}}
	db := s.db.WithContext(ctx)

	if book.ClubId != nil {
		var members []int
		if err := db.Model(&models.UserModel{}).
			Where("club_id = ? AND id <> ? AND is_active = ?", *book.ClubId, actor.UserID, true).
			Pluck("id", &members).Error; err != nil {
			s.log.Warn("could not list club members for book announcement", "bookId", book.Id, "error", err)
		}
		for _, id := range members {
			notices = append(notices, Notice{
				UserID:  id,
				Message: fmt.Sprintf("New book %q added to your club.", book.Title),
			})
		}
	}

	var admins []int
	if err := db.Model(&models.UserModel{}).
		Where("role = ? AND id <> ?", models.RoleSuperAdmin, actor.UserID).
		Pluck("id", &admins).Error; err != nil {
		s.log.Warn("could not list super admins for book announcement", "bookId", book.Id, "error", err)
	}
	for _, id := range admins {
		notices = append(notices, Notice{
			UserID:  id,
			Message: fmt.Sprintf("A new book %q was added to the platform.", book.Title),
		})
	}
	return notices
}

func (s *BookService) listItems(ctx context.Context, books []models.BookModel) ([]dtos.BookListItemDTO, error) {
	ids := make([]int, len(books))
	for i, book := range books {
		ids[i] = book.Id
	}

	statuses, err := s.availability.BookStatuses(ctx, ids)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.AverageRatings(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]dtos.BookListItemDTO, 0, len(books))
	for _, book := range books {
		items = append(items, dtos.BookListItemDTO{
			BookModel:     book,
			Status:        statuses[book.Id],
			AverageRating: ratings[book.Id],
		})
	}
	return items, nil
}

// ListBooks retrieves books with their derived status, optionally for one club
func (s *BookService) ListBooks(ctx context.Context, clubID *int) ([]dtos.BookListItemDTO, error) {
	cacheKey := listCachePrefix + "all"
	if clubID != nil {
		cacheKey = fmt.Sprintf("%sclub_%d", listCachePrefix, *clubID)
	}

	if cached, found := s.cache.get(cacheKey); found {
		return cached.([]dtos.BookListItemDTO), nil
	}
	generation := s.cache.snapshot()

	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if clubID != nil {
		query = query.Where("club_id = ?", *clubID)
	}
	var books []models.BookModel
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}

	items, err := s.listItems(ctx, books)
	if err != nil {
		return nil, err
	}
	s.cache.setIfCurrent(cacheKey, items, listCacheTTL, generation)
	return items, nil
}

// ListByOwner retrieves the books a member owns
func (s *BookService) ListByOwner(ctx context.Context, userID int) ([]dtos.BookListItemDTO, error) {
	var books []models.BookModel
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return s.listItems(ctx, books)
}

// GetBookDetail retrieves a book with availability, rating and reviews
func (s *BookService) GetBookDetail(ctx context.Context, id int) (*dtos.BookDetailDTO, error) {
	cacheKey := detailCacheKey(id)
	if cached, found := s.cache.get(cacheKey); found {
		detail := cached.(dtos.BookDetailDTO)
		return &detail, nil
	}
	generation := s.cache.snapshot()

	book, err := s.getBook(ctx, id)
	if err != nil {
		return nil, err
	}

	availability, err := s.availability.DetailAvailability(ctx, id)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratings.AverageRating(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByBook(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := dtos.BookDetailDTO{
		BookModel:     *book,
		Availability:  availability,
		AverageRating: rating,
		Reviews:       reviews,
	}
	s.cache.setIfCurrent(cacheKey, detail, detailCacheTTL, generation)
	return &detail, nil
}

func (s *BookService) getBook(ctx context.Context, id int) (*models.BookModel, error) {
	var book models.BookModel
	if err := s.db.WithContext(ctx).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

// AuthorizeEdit loads a book the actor owns or administers
func (s *BookService) AuthorizeEdit(ctx context.Context, actor Actor, id int) (*models.BookModel, error) {
	book, err := s.getBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(book.OwnerId) && !actor.AdminOf(book.ClubId) {
		return nil, ErrForbidden
	}
	return book, nil
}

// UpdateBook changes the editable fields of a book
func (s *BookService) UpdateBook(ctx context.Context, actor Actor, id int, input dtos.BookInput) (*models.BookModel, error) {
	if err := normalizeBookInput(&input); err != nil {
		return nil, err
	}
	book, err := s.AuthorizeEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	book.Title = input.Title
	book.Author = strings.TrimSpace(input.Author)
	book.Genre = strings.TrimSpace(input.Genre)
	book.Description = input.Description
	book.Condition = input.Condition
	if input.Cover != nil {
		book.Cover = input.Cover
	}

	if err := s.db.WithContext(ctx).
		Model(book).
		Select("title", "author", "genre", "description", "book_condition", "cover").
		Updates(book).Error; err != nil {
		return nil, err
	}

	s.cache.InvalidateBookCache(id)
	return book, nil
}

// SetCover records the cover reference of a book
func (s *BookService) SetCover(ctx context.Context, actor Actor, id int, cover string) (*models.BookModel, error) {
	book, err := s.AuthorizeEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(book).Update("cover", cover).Error; err != nil {
		return nil, err
	}
	book.Cover = &cover

	s.cache.InvalidateBookCache(id)
	return book, nil
}

// DeleteBook removes a book together with its transactions and reviews
func (s *BookService) DeleteBook(ctx context.Context, actor Actor, id int) (*models.BookModel, error) {
	book, err := s.AuthorizeEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&models.ReviewModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.TransactionModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BookModel{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateBookCache(id)
	return book, nil
}

// Spreadsheet columns read by ImportBooksFromExcel, after a header row
const (
	importColTitle = iota
	importColAuthor
	importColGenre
	importColDescription
	importColCondition
)

// ImportBooksFromExcel adds one book per row of the first sheet, owned by the actor.
// Rows that fail are reported and skipped; the rest are kept.
func (s *BookService) ImportBooksFromExcel(ctx context.Context, actor Actor, r io.Reader) (*dtos.ImportResult, error) {
	if actor.ClubID == nil {
		return nil, validationError("importing books requires a club")
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid excel file: %v", ErrValidation, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: could not read first sheet: %v", ErrValidation, err)
	}

	result := &dtos.ImportResult{Errors: []string{}}
	cell := func(row []string, col int) string {
		if col < len(row) {
			return strings.TrimSpace(row[col])
		}
		return ""
	}

	for i, row := range rows {
		if i == 0 || strings.TrimSpace(cell(row, importColTitle)) == "" {
			continue
		}

		input := dtos.BookInput{
			Title:       cell(row, importColTitle),
			Author:      cell(row, importColAuthor),
			Genre:       cell(row, importColGenre),
			Description: cell(row, importColDescription),
			Condition:   models.BookCondition(cell(row, importColCondition)),
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := s.insertBook(tx, actor, input)
			return err
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		s.cache.invalidatePrefix(listCachePrefix)
		s.dispatcher.Dispatch(ctx, []Notice{{
			UserID:  actor.UserID,
			Message: fmt.Sprintf("You imported %d books into the club library.", result.Imported),
		}})
	}
	return result, nil
}
