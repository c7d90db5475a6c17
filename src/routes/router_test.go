package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/BookClub/BookClub-Backend/src/config"
	"github.com/BookClub/BookClub-Backend/src/db"
	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	t         *testing.T
	db        *gorm.DB
	router    *gin.Engine
	clubID    int
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := db.Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	club := models.ClubModel{Name: "Readers", IsActive: true}
	require.NoError(t, conn.Create(&club).Error)

	cfg := &config.Config{
		JWTSecret:      "router-secret",
		TokenTTL:       time.Hour,
		AllowedOrigins: []string{"http://localhost:3000"},
		UploadDir:      t.TempDir(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := services.NewRegistry(conn, log, cfg.JWTSecret, cfg.TokenTTL)

	return &testServer{
		t:         t,
		db:        conn,
		router:    SetupRouter(cfg, log, registry),
		clubID:    club.Id,
		uploadDir: cfg.UploadDir,
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// member registers and logs in a member of the test club
func (s *testServer) member(name string) (int, string) {
	s.t.Helper()
	email := name + "@club.test"
	w := s.do(http.MethodPost, "/register", "", gin.H{
		"name": name, "email": email, "password": "secret123", "clubId": s.clubID,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	login := decode[models.LoginResponse](s.t, w)
	return login.User.ID, login.Token
}

func TestLendingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ownerID, ownerToken := s.member("owner")
	borrowerID, borrowerToken := s.member("borrower")
	_, rivalToken := s.member("rival")

	w := s.do(http.MethodPost, "/books", ownerToken, gin.H{"title": "Dune", "author": "Frank Herbert"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	book := decode[models.BookModel](t, w)
	assert.NotEmpty(t, book.UniqueCode)

	w = s.do(http.MethodPost, "/transactions/borrow", borrowerToken, gin.H{"bookId": book.Id, "ownerId": ownerID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Message       string `json:"message"`
		TransactionID int    `json:"transactionId"`
		Token         string `json:"token"`
	}](t, w)
	assert.NotEmpty(t, created.Token)

	w = s.do(http.MethodPost, "/transactions/borrow", borrowerToken, gin.H{"bookId": book.Id, "ownerId": ownerID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/transactions/borrow", rivalToken, gin.H{"bookId": book.Id, "ownerId": ownerID})
	require.Equal(t, http.StatusCreated, w.Code)
	rival := decode[struct {
		TransactionID int `json:"transactionId"`
	}](t, w)

	w = s.do(http.MethodGet, fmt.Sprintf("/transactions/received/%d", ownerID), ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	// Only the owner decides; other members cannot tell the request exists
	w = s.do(http.MethodPut, fmt.Sprintf("/transactions/approve/%d", created.TransactionID), rivalToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Request not found or already processed"}`, w.Body.String())
	w = s.do(http.MethodPut, fmt.Sprintf("/transactions/approve/%d", created.TransactionID), borrowerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/transactions/approve/%d", created.TransactionID), ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, fmt.Sprintf("/transactions/approve/%d", rival.TransactionID), ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Request not found or already processed"}`, w.Body.String())

	w = s.do(http.MethodGet, "/books?clubId="+fmt.Sprint(s.clubID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[[]map[string]any](t, w)
	require.Len(t, listing, 1)
	assert.Equal(t, "Unavailable", listing[0]["status"])

	w = s.do(http.MethodGet, fmt.Sprintf("/transactions/borrowed/%d", borrowerID), borrowerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	borrowed := decode[map[string][]map[string]any](t, w)
	assert.Len(t, borrowed["borrowedBooks"], 1)
	assert.Empty(t, borrowed["returnedBooks"])

	w = s.do(http.MethodGet, fmt.Sprintf("/transactions/borrowed/%d", borrowerID), rivalToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A comment alone would be dropped, so it is refused and the loan stays open
	w = s.do(http.MethodPut, fmt.Sprintf("/transactions/return/%d", created.TransactionID), borrowerToken,
		gin.H{"comment": "Spice!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"A rating is required to leave a comment"}`, w.Body.String())

	w = s.do(http.MethodPut, fmt.Sprintf("/transactions/return/%d", created.TransactionID), borrowerToken,
		gin.H{"rating": 5, "comment": "Spice!"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, fmt.Sprintf("/transactions/return/%d", created.TransactionID), borrowerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Transaction not found or not approved"}`, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/books/%d", book.Id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[map[string]any](t, w)
	assert.Equal(t, "Available", detail["availability"])
	assert.Equal(t, 5.0, detail["averageRating"])
	assert.Len(t, detail["reviews"], 1)

	w = s.do(http.MethodGet, fmt.Sprintf("/transactions/successful/%d", s.clubID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalSuccessfulTransactions":1}`, w.Body.String())

	w = s.do(http.MethodGet, "/transactions/token/"+created.Token, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/transactions/token/"+created.Token, rivalToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Owner: book added, two requests and the return
	w = s.do(http.MethodGet, "/notifications/unread-count", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread":4}`, w.Body.String())

	w = s.do(http.MethodGet, "/notifications", rivalToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	inbox := decode[[]models.NotificationModel](t, w)
	require.NotEmpty(t, inbox)
	assert.Contains(t, inbox[0].Message, "cancelled")

	w = s.do(http.MethodPut, fmt.Sprintf("/notifications/read/%d", inbox[0].Id), ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPut, fmt.Sprintf("/notifications/read/%d", inbox[0].Id), rivalToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, token := s.member("member")

	w := s.do(http.MethodPut, "/transactions/approve/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPut, "/transactions/approve/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/transactions/approve/999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/transactions/borrow", token, gin.H{"bookId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing bookId or ownerId"}`, w.Body.String())

	w = s.do(http.MethodPost, "/transactions/borrow", token, gin.H{"bookId": 999, "ownerId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/login", "", gin.H{"email": "member@club.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())

	w = s.do(http.MethodPost, "/clubs", token, gin.H{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/clubs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ClubModel](t, w), 1)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCoverUploadOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.member("owner")
	_, otherToken := s.member("other")

	w := s.do(http.MethodPost, "/books", ownerToken, gin.H{"title": "Emma"})
	require.Equal(t, http.StatusCreated, w.Code)
	book := decode[models.BookModel](t, w)

	upload := func(token, filename, contentType string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="cover"; filename="%s"`, filename))
		header.Set("Content-Type", contentType)
		part, err := form.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, form.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/books/%d/cover", book.Id), &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusForbidden, upload(otherToken, "emma.png", "image/png", pngHeader).Code)
	assert.Equal(t, http.StatusBadRequest, upload(ownerToken, "emma.png", "text/plain", pngHeader).Code)

	w = upload(ownerToken, "evil.html", "image/png", []byte("<html><script>alert(document.cookie)</script></html>"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	stored, err := filepath.Glob(filepath.Join(s.uploadDir, "covers", "*"))
	require.NoError(t, err)
	assert.Empty(t, stored)

	// The stored extension follows the bytes, not the client's filename
	w = upload(ownerToken, "emma.html", "image/png", pngHeader)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[models.BookModel](t, w)
	require.NotNil(t, first.Cover)
	assert.Regexp(t, `^/uploads/covers/book_\d+_[0-9a-f-]{36}\.png$`, *first.Cover)

	w = s.do(http.MethodGet, *first.Cover, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = upload(ownerToken, "emma.png", "image/png", pngHeader)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[models.BookModel](t, w)
	assert.NotEqual(t, *first.Cover, *second.Cover)

	stored, err = filepath.Glob(filepath.Join(s.uploadDir, "covers", "*.png"))
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
