package seed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BookClub/BookClub-Backend/src/dtos"
	"github.com/BookClub/BookClub-Backend/src/models"
	"github.com/BookClub/BookClub-Backend/src/services"
	"gorm.io/gorm"
)

const demoClubName = "Downtown Readers"

type demoMember struct {
	name  string
	email string
	books []dtos.BookInput
}

var demoMembers = []demoMember{
	{
		name:  "Ada Reader",
		email: "ada@bookclub.local",
		books: []dtos.BookInput{
			{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Genre: "Science Fiction", Condition: models.ConditionGood},
			{Title: "Middlemarch", Author: "George Eliot", Genre: "Classic", Condition: models.ConditionFair},
		},
	},
	{
		name:  "Sam Pages",
		email: "sam@bookclub.local",
		books: []dtos.BookInput{
			{Title: "The Name of the Rose", Author: "Umberto Eco", Genre: "Mystery", Condition: models.ConditionNew},
		},
	},
}

// Seed creates a super admin, a demo club and a few members with books.
// Running it again leaves existing rows untouched.
func Seed(ctx context.Context, db *gorm.DB, log *slog.Logger, registry *services.Registry, adminEmail, adminPassword string) error {
	users, books := registry.Users, registry.Books

	admin, created, err := users.EnsureSuperAdmin(ctx, "Super Admin", adminEmail, adminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("super admin created", "email", admin.Email)
	} else {
		log.Info("super admin already exists", "email", admin.Email)
	}

	var club models.ClubModel
	err = db.WithContext(ctx).Where("name = ?", demoClubName).First(&club).Error
	if err == nil {
		log.Info("demo club already exists, skipping members and books", "club", club.Name)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	club = models.ClubModel{Name: demoClubName, IsActive: true}
	if err := db.WithContext(ctx).Create(&club).Error; err != nil {
		return err
	}
	log.Info("demo club created", "club", club.Name, "clubId", club.Id)

	for _, member := range demoMembers {
		user, err := users.Register(ctx, models.RegisterRequest{
			Name:     member.name,
			Email:    member.email,
			Password: adminPassword,
			ClubId:   &club.Id,
		})
		if err != nil {
			log.Warn("failed to create member", "email", member.email, "error", err)
			continue
		}

		actor := services.Actor{UserID: user.Id, Role: user.Role, ClubID: user.ClubId}
		for _, input := range member.books {
			book, err := books.AddBook(ctx, actor, input)
			if err != nil {
				log.Warn("failed to create book", "title", input.Title, "error", err)
				continue
			}
			log.Info("book created", "title", book.Title, "code", book.UniqueCode)
		}
	}
	return nil
}
