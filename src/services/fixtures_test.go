package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/BookClub/BookClub-Backend/src/db"
	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := db.Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// recordingNotifier captures notices instead of persisting them
type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
	fail    error
}

func (n *recordingNotifier) Notify(_ context.Context, userID int, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.notices = append(n.notices, Notice{UserID: userID, Message: message})
	return nil
}

func (n *recordingNotifier) recipients() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]int, 0, len(n.notices))
	for _, notice := range n.notices {
		ids = append(ids, notice.UserID)
	}
	return ids
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = nil
}

// recordingCache remembers which books were invalidated
type recordingCache struct {
	mu    sync.Mutex
	books []int
}

func (c *recordingCache) InvalidateBookCache(bookID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books = append(c.books, bookID)
}

// clubFixture is one club with an admin, an owner, two borrowers and one book of the owner
type clubFixture struct {
	db       *gorm.DB
	club     models.ClubModel
	admin    models.UserModel
	owner    models.UserModel
	borrower models.UserModel
	other    models.UserModel
	book     models.BookModel
}

func createUser(t *testing.T, conn *gorm.DB, name string, role models.Role, clubID *int) models.UserModel {
	t.Helper()
	user := models.UserModel{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@club.test", name, uuid.NewString()[:8]),
		Password: "x",
		Role:     role,
		ClubId:   clubID,
		IsActive: true,
	}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

func createBook(t *testing.T, conn *gorm.DB, title string, ownerID int, clubID *int) models.BookModel {
	t.Helper()
	book := models.BookModel{
		Title:      title,
		Author:     "Anon",
		Condition:  models.ConditionGood,
		UniqueCode: "T-" + uuid.NewString()[:12],
		OwnerId:    &ownerID,
		ClubId:     clubID,
		CreatedAt:  fixedNow,
	}
	require.NoError(t, conn.Create(&book).Error)
	return book
}

func newClub(t *testing.T) *clubFixture {
	t.Helper()
	conn := newTestDB(t)

	c := &clubFixture{db: conn, club: models.ClubModel{Name: "Readers", IsActive: true}}
	require.NoError(t, conn.Create(&c.club).Error)
	c.admin = createUser(t, conn, "admin", models.RoleClubAdmin, &c.club.Id)
	c.owner = createUser(t, conn, "owner", models.RoleMember, &c.club.Id)
	c.borrower = createUser(t, conn, "borrower", models.RoleMember, &c.club.Id)
	c.other = createUser(t, conn, "other", models.RoleMember, &c.club.Id)
	c.book = createBook(t, conn, "Dune", c.owner.Id, &c.club.Id)
	return c
}

func actorOf(user models.UserModel) Actor {
	return Actor{UserID: user.Id, Role: user.Role, ClubID: user.ClubId}
}
