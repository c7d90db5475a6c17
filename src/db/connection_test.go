package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:club.db?_busy_timeout=5000&_foreign_keys=1", SQLiteDSN("club.db"))
	assert.Equal(t, "file::memory:?cache=shared", SQLiteDSN("file::memory:?cache=shared"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := memoryDB(t)
	assert.NoError(t, Migrate(db))
}

func TestOneApprovedTransactionPerBook(t *testing.T) {
	db := memoryDB(t)

	owner := models.UserModel{Name: "Owner", Email: "owner@club.test", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)
	b1 := models.UserModel{Name: "B1", Email: "b1@club.test", Password: "x"}
	require.NoError(t, db.Create(&b1).Error)
	b2 := models.UserModel{Name: "B2", Email: "b2@club.test", Password: "x"}
	require.NoError(t, db.Create(&b2).Error)
	book := models.BookModel{Title: "Dune", UniqueCode: "20260101-001", OwnerId: &owner.Id}
	require.NoError(t, db.Create(&book).Error)

	insert := func(borrower int, status models.TransactionStatus) error {
		return db.Create(&models.TransactionModel{
			Token:       uuid.NewString(),
			BookId:      book.Id,
			BorrowerId:  &borrower,
			OwnerId:     &owner.Id,
			Status:      status,
			RequestDate: time.Now(),
		}).Error
	}

	require.NoError(t, insert(b1.Id, models.StatusApproved))
	err := insert(b2.Id, models.StatusApproved)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	// Terminal rows never collide
	require.NoError(t, insert(b2.Id, models.StatusReturned))
	require.NoError(t, insert(b2.Id, models.StatusReturned))
}

func TestOneActiveRequestPerBorrower(t *testing.T) {
	db := memoryDB(t)

	owner := models.UserModel{Name: "Owner", Email: "owner@club.test", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)
	borrower := models.UserModel{Name: "Borrower", Email: "b@club.test", Password: "x"}
	require.NoError(t, db.Create(&borrower).Error)
	book := models.BookModel{Title: "Emma", UniqueCode: "20260101-002", OwnerId: &owner.Id}
	require.NoError(t, db.Create(&book).Error)

	tx := func() *models.TransactionModel {
		return &models.TransactionModel{
			Token:       uuid.NewString(),
			BookId:      book.Id,
			BorrowerId:  &borrower.Id,
			OwnerId:     &owner.Id,
			Status:      models.StatusRequested,
			RequestDate: time.Now(),
		}
	}

	require.NoError(t, db.Create(tx()).Error)
	err := db.Create(tx()).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestDeletingBookCascadesTransactions(t *testing.T) {
	db := memoryDB(t)

	owner := models.UserModel{Name: "Owner", Email: "owner@club.test", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)
	book := models.BookModel{Title: "Ulysses", UniqueCode: "20260101-003", OwnerId: &owner.Id}
	require.NoError(t, db.Create(&book).Error)
	require.NoError(t, db.Create(&models.TransactionModel{
		Token: uuid.NewString(), BookId: book.Id, OwnerId: &owner.Id,
		Status: models.StatusReturned, RequestDate: time.Now(),
	}).Error)

	require.NoError(t, db.Delete(&models.BookModel{}, book.Id).Error)

	var count int64
	require.NoError(t, db.Model(&models.TransactionModel{}).Count(&count).Error)
	assert.Zero(t, count)
}
