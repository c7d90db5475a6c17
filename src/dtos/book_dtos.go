package dtos

import "github.com/BookClub/BookClub-Backend/src/models"

// BookListItemDTO is a book on the listing page with its derived status
type BookListItemDTO struct {
	models.BookModel
	Status        models.BookStatus `json:"status"`
	AverageRating float64           `json:"averageRating"`
}

// BookDetailDTO is a book on its detail page
type BookDetailDTO struct {
	models.BookModel
	Availability  string      `json:"availability"`
	AverageRating float64     `json:"averageRating"`
	Reviews       []ReviewDTO `json:"reviews"`
}

// ReviewDTO is a review with the reviewer's display name
type ReviewDTO struct {
	models.ReviewModel
	Reviewer string `json:"reviewer"`
}

// BookInput carries the editable fields of a book
type BookInput struct {
	Title       string               `json:"title" binding:"required"`
	Author      string               `json:"author"`
	Genre       string               `json:"genre"`
	Description string               `json:"description"`
	Condition   models.BookCondition `json:"condition"`
	Cover       *string              `json:"cover"`
	// ClubId is only read when a super admin without a club adds a book
	ClubId *int `json:"clubId"`
}

// ImportResult reports the outcome of a spreadsheet import
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}
