package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BookClub/BookClub-Backend/src/middleware"
	"github.com/BookClub/BookClub-Backend/src/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db        *gorm.DB
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{db: db, jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now}
}

// Register creates a member account
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserModel, error) {
	return s.createUser(ctx, req, models.RoleMember)
}

// CreateUser lets admins add accounts. Club admins may only add members to their own club.
func (s *UserService) CreateUser(ctx context.Context, actor Actor, req models.RegisterRequest, role models.Role) (*models.UserModel, error) {
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, validationError("unknown role %q", role)
	}
	if !actor.IsSuperAdmin() {
		if role != models.RoleMember || !actor.AdminOf(req.ClubId) {
			return nil, ErrForbidden
		}
	}
	return s.createUser(ctx, req, role)
}

func (s *UserService) createUser(ctx context.Context, req models.RegisterRequest, role models.Role) (*models.UserModel, error) {
	db := s.db.WithContext(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Name) == "" || req.Password == "" {
		return nil, validationError("name, email and password are required")
	}
	if req.ClubId != nil {
		if err := mustExist(db, &models.ClubModel{}, *req.ClubId, "club"); err != nil {
			return nil, err
		}
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.UserModel{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Mobile:   req.Mobile,
		Password: string(hashedPassword),
		Role:     role,
		ClubId:   req.ClubId,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, validationError("email is already registered")
		}
		return nil, err
	}
	return user, nil
}

// EnsureSuperAdmin creates the super admin account unless the email is already taken
func (s *UserService) EnsureSuperAdmin(ctx context.Context, name, email, password string) (*models.UserModel, bool, error) {
	var existing models.UserModel
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user, err := s.createUser(ctx, models.RegisterRequest{Name: name, Email: email, Password: password}, models.RoleSuperAdmin)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Authenticate checks user credentials and returns a JWT token if valid
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, *models.UserModel, error) {
	var user models.UserModel
	result := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, result.Error
	}
	if !user.IsActive {
		return "", nil, ErrUnauthorized
	}

	// Compare the provided password with the hashed password in the database
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrUnauthorized
	}

	token, err := middleware.SignToken(s.jwtSecret, s.tokenTTL, &user, s.now())
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int) (*models.UserModel, error) {
	var user models.UserModel
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
