package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"field_tracker/internal/models"
)

// CreateUserInput describes a new account. Password is accepted for
// compatibility and ignored: every account starts with the default password.
type CreateUserInput struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name" validate:"max=100"`
	MiddleName string `json:"middle_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	Dept       string `json:"dept" validate:"max=255"`
	JobTitle   string `json:"job_title" validate:"max=255"`
	Phone      string `json:"phone" validate:"max=50"`
	GroupID    *uint  `json:"group_id"`
	RoleID     *uint  `json:"role_id"`
}

// PatchUserInput changes only the fields that are present.
type PatchUserInput struct {
	Email      *string `json:"email" validate:"omitnil,email,max=255"`
	Password   *string `json:"password" validate:"omitnil,min=6"`
	FirstName  *string `json:"first_name" validate:"omitnil,max=100"`
	MiddleName *string `json:"middle_name" validate:"omitnil,max=100"`
	LastName   *string `json:"last_name" validate:"omitnil,max=100"`
	Dept       *string `json:"dept" validate:"omitnil,max=255"`
	JobTitle   *string `json:"job_title" validate:"omitnil,max=255"`
	Phone      *string `json:"phone" validate:"omitnil,max=50"`
	GroupID    *uint   `json:"group_id"`
	RoleID     *uint   `json:"role_id"`
}

// UserPage is one window of a user listing. UsersCount is the size of the
// whole table; MatchedCount counts only the rows that pass the filters.
type UserPage struct {
	Users        []models.User  `json:"users"`
	UsersCount   int64          `json:"users_count"`
	MatchedCount int64          `json:"matched_count"`
	QSFilter     map[string]any `json:"qs_filter"`
}

type UserService struct {
	db              *gorm.DB
	defaultPassword string
	bcryptCost      int
}

func NewUserService(db *gorm.DB, defaultPassword string, bcryptCost int) *UserService {
	return &UserService{db: db, defaultPassword: defaultPassword, bcryptCost: bcryptCost}
}

// List filters, sorts and windows the user table.
func (s *UserService) List(ctx context.Context, q UserQuery) (*UserPage, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	var matched int64
	if err := q.filter(db.Model(&models.User{})).Count(&matched).Error; err != nil {
		return nil, fmt.Errorf("count matching users: %w", err)
	}

	users := []models.User{}
	err := q.filter(db.Model(&models.User{})).
		Preload("Role").Preload("Group").
		Order(q.order()).
		Offset(q.Start).Limit(q.Limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &UserPage{
		Users:        users,
		UsersCount:   total,
		MatchedCount: matched,
		QSFilter:     q.Applied(),
	}, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").Preload("Group").First(&user, id).Error; err != nil {
		return nil, lookupError(err, "user", id)
	}
	return &user, nil
}

// Create stores a new user with the default password.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Group{}, in.GroupID, "group"); err != nil {
		return nil, err
	}
	if err := mustExist(db, &models.Role{}, in.RoleID, "role"); err != nil {
		return nil, err
	}

	hash, err := hashPassword(s.defaultPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		MiddleName:   in.MiddleName,
		LastName:     in.LastName,
		Dept:         in.Dept,
		JobTitle:     in.JobTitle,
		Phone:        in.Phone,
		GroupID:      in.GroupID,
		RoleID:       in.RoleID,
	}
	if err := writeError(db.Create(&user).Error, "user"); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user created")
	return s.Get(ctx, user.ID)
}

// Patch applies the supplied fields. Group and role references are checked
// before anything is written.
func (s *UserService) Patch(ctx context.Context, id uint, in PatchUserInput) (*models.User, error) {
	if in.Email != nil {
		trimmed := strings.TrimSpace(*in.Email)
		in.Email = &trimmed
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, lookupError(err, "user", id)
	}
	if err := mustExist(db, &models.Group{}, in.GroupID, "group"); err != nil {
		return nil, err
	}
	if err := mustExist(db, &models.Role{}, in.RoleID, "role"); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = *v
		}
	}
	setString("email", in.Email)
	setString("first_name", in.FirstName)
	setString("middle_name", in.MiddleName)
	setString("last_name", in.LastName)
	setString("dept", in.Dept)
	setString("job_title", in.JobTitle)
	setString("phone", in.Phone)
	if in.GroupID != nil {
		updates["group_id"] = *in.GroupID
	}
	if in.RoleID != nil {
		updates["role_id"] = *in.RoleID
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := writeError(db.Model(&user).Updates(updates).Error, "user"); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the user together with its tracks and device.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).Select("id").First(&user, id).Error; err != nil {
			return lookupError(err, "user", id)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Track{}).Error; err != nil {
			return fmt.Errorf("delete tracks: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Device{}).Error; err != nil {
			return fmt.Errorf("delete device: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithField("user_id", id).Info("user deleted")
	return nil
}

// EnsureAdmin makes sure the admin role exists and that email belongs to an
// admin. A missing account is created with the given password; an existing
// one keeps its password.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role := models.Role{Name: models.RoleAdmin}
		if err := tx.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("ensure admin role: %w", err)
		}

		var user models.User
		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			hash, err := hashPassword(password, s.bcryptCost)
			if err != nil {
				return err
			}
			user = models.User{Email: email, PasswordHash: hash, RoleID: &role.ID}
			if err := writeError(tx.Create(&user).Error, "user"); err != nil {
				return err
			}
			logrus.WithField("email", email).Info("admin account created")
		case err != nil:
			return fmt.Errorf("load admin: %w", err)
		case user.RoleID == nil || *user.RoleID != role.ID:
			if err := tx.Model(&user).Update("role_id", role.ID).Error; err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
			logrus.WithField("email", email).Info("account promoted to admin")
		}
		return nil
	})
}

// AuthenticateAdmin checks credentials of an admin account. Wrong email,
// wrong password and missing admin role are indistinguishable to the caller.
func (s *UserService) AuthenticateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		passwordMatches(string(dummyHash), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !passwordMatches(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if user.Role == nil || user.Role.Name != models.RoleAdmin {
		logrus.WithField("user_id", user.ID).Warn("non-admin tried to sign in to admin api")
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// mustExist checks an optional reference. A nil id is always fine.
func mustExist(db *gorm.DB, model any, id *uint, resource string) error {
	if id == nil {
		return nil
	}
	if err := db.Model(model).Select("id").First(model, *id).Error; err != nil {
		return lookupError(err, resource, *id)
	}
	return nil
}
