package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
)

func TestClubDirectory(t *testing.T) {
	c := newClub(t)
	clubs := NewClubService(c.db, newStore(c))
	ctx := context.Background()
	super := Actor{UserID: 1000, Role: models.RoleSuperAdmin}

	_, err := clubs.CreateClub(ctx, actorOf(c.admin), &models.ClubModel{Name: "Rogue"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = clubs.CreateClub(ctx, super, &models.ClubModel{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := clubs.CreateClub(ctx, super, &models.ClubModel{Name: " Atheneum "})
	require.NoError(t, err)
	assert.Equal(t, "Atheneum", created.Name)
	assert.True(t, created.IsActive)

	all, err := clubs.GetAllClubs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Atheneum", all[0].Name)

	found, err := clubs.GetClubByID(ctx, c.club.Id)
	require.NoError(t, err)
	assert.Equal(t, "Readers", found.Name)
	_, err = clubs.GetClubByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	members, err := clubs.GetMembers(ctx, actorOf(c.admin), c.club.Id)
	require.NoError(t, err)
	assert.Len(t, members, 4)
	_, err = clubs.GetMembers(ctx, actorOf(c.owner), c.club.Id)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = clubs.GetMembers(ctx, actorOf(c.admin), created.Id)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestExportTransactionsReport(t *testing.T) {
	c := newClub(t)
	store := newStore(c)
	clubs := NewClubService(c.db, store)
	clubs.now = fixedClock
	ctx := context.Background()

	loan, err := store.Create(ctx, c.book.Id, c.borrower.Id, c.owner.Id)
	require.NoError(t, err)
	_, err = store.Approve(ctx, loan.Id)
	require.NoError(t, err)

	_, err = clubs.ExportTransactionsReport(ctx, actorOf(c.owner), c.club.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	report, err := clubs.ExportTransactionsReport(ctx, actorOf(c.admin), c.club.Id)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(report))
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Transaction", rows[0][0])
	assert.Equal(t, loan.Token, rows[1][1])
	assert.Equal(t, "Dune", rows[1][2])
	assert.Equal(t, c.borrower.Name, rows[1][4])
	assert.Equal(t, string(models.StatusApproved), rows[1][6])
	assert.Equal(t, "2026-03-24 09:30", rows[1][9])
	assert.Equal(t, "FALSE", rows[1][11])
}
