package services

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// Registry wires every service over one database handle.
// Book, lending and review services share the listing cache.
type Registry struct {
	Cache         *ListingCache
	Notifications *NotificationService
	Dispatcher    *Dispatcher
	Store         *TransactionStore
	Reviews       *ReviewService
	Books         *BookService
	Lending       *LendingService
	Users         *UserService
	Clubs         *ClubService
}

func NewRegistry(db *gorm.DB, log *slog.Logger, jwtSecret string, tokenTTL time.Duration) *Registry {
	r := &Registry{Cache: NewListingCache()}
	r.Notifications = NewNotificationService(db)
	r.Dispatcher = NewDispatcher(r.Notifications, log)
	r.Store = NewTransactionStore(db)
	r.Reviews = NewReviewService(db, r.Cache)
	r.Books = NewBookService(db, NewAvailabilityResolver(db), NewRatingAggregator(db), r.Reviews, r.Dispatcher, r.Cache, log)
	r.Lending = NewLendingService(r.Store, r.Dispatcher, r.Cache, log)
	r.Users = NewUserService(db, jwtSecret, tokenTTL)
	r.Clubs = NewClubService(db, r.Store)
	return r
}
