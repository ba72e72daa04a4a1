package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"field_tracker/internal/models"
)

type RoleInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *RoleService) Create(ctx context.Context, in RoleInput) (*models.Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	role := models.Role{Name: in.Name}
	if err := writeError(s.db.WithContext(ctx).Create(&role).Error, "role"); err != nil {
		return nil, err
	}
	return &role, nil
}
