package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BookClub/BookClub-Backend/src/dtos"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// coverExtensions maps the sniffed content type of an accepted cover to its stored extension
var coverExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type BookController struct {
	service   *services.BookService
	uploadDir string
}

func NewBookController(service *services.BookService, uploadDir string) *BookController {
	return &BookController{service: service, uploadDir: uploadDir}
}

func (bc *BookController) GetAllBooks(c *gin.Context) {
	var clubID *int
	if raw := c.Query("clubId"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid clubId parameter"})
			return
		}
		clubID = &parsed
	}

	books, err := bc.service.ListBooks(c.Request.Context(), clubID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (bc *BookController) GetMyBooks(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	books, err := bc.service.ListByOwner(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (bc *BookController) GetBookByID(c *gin.Context) {
	id, ok := paramID(c, "id", "book ID")
	if !ok {
		return
	}

	book, err := bc.service.GetBookDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (bc *BookController) CreateBook(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var input dtos.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := bc.service.AddBook(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (bc *BookController) UpdateBook(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "book ID")
	if !ok {
		return
	}
	var input dtos.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := bc.service.UpdateBook(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (bc *BookController) DeleteBook(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "book ID")
	if !ok {
		return
	}

	book, err := bc.service.DeleteBook(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if book.Cover != nil && strings.HasPrefix(*book.Cover, "/uploads/") {
		os.Remove(filepath.Join(bc.uploadDir, strings.TrimPrefix(*book.Cover, "/uploads/")))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

func (bc *BookController) UploadCover(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "book ID")
	if !ok {
		return
	}

	// Verify that the caller may edit the book before touching the disk
	if _, err := bc.service.AuthorizeEdit(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	// Validate file type on the declared header and on the bytes themselves
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image"})
		return
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image"})
		return
	}
	head = head[:n]
	ext, ok := coverExtensions[http.DetectContentType(head)]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a PNG, JPEG, GIF or WebP image"})
		return
	}

	coverDir := filepath.Join(bc.uploadDir, "covers")
	if err := os.MkdirAll(coverDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create upload directory"})
		return
	}

	filename := fmt.Sprintf("book_%d_%s%s", id, uuid.NewString(), ext)
	filePath := filepath.Join(coverDir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save file"})
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		os.Remove(filePath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save file"})
		return
	}

	book, err := bc.service.SetCover(c.Request.Context(), actor, id, "/uploads/covers/"+filename)
	if err != nil {
		// Clean up file if DB save fails
		os.Remove(filePath)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (bc *BookController) ImportBooks(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	result, err := bc.service.ImportBooksFromExcel(c.Request.Context(), actor, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
