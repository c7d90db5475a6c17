package models

type Role string

const (
	RoleMember     Role = "user"
	RoleClubAdmin  Role = "clubAdmin"
	RoleSuperAdmin Role = "superAdmin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleClubAdmin || r == RoleSuperAdmin
}

type UserModel struct {
	Id       int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string     `json:"name" gorm:"type:varchar(100);not null"`
	Email    string     `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Mobile   *string    `json:"mobile" gorm:"type:varchar(15)"`
	Password string     `json:"-" gorm:"type:varchar(100);not null"`
	Role     Role       `json:"role" gorm:"column:role;type:varchar(20);not null;default:'user'"`
	ClubId   *int       `json:"clubId" gorm:"column:club_id;index"`
	Club     *ClubModel `json:"-" gorm:"foreignKey:ClubId;references:Id;constraint:OnDelete:SET NULL"`
	IsActive bool       `json:"isActive" gorm:"column:is_active;not null;default:true"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Mobile   *string `json:"mobile"`
	Password string  `json:"password" binding:"required,min=6"`
	ClubId   *int    `json:"clubId"`
}

type RegisterResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type LoginResponse struct {
	Token string           `json:"token"`
	User  RegisterResponse `json:"user"`
}
