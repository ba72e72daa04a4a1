package services

import (
	"context"
	"fmt"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"field_tracker/internal/models"
)

type GroupInput struct {
	Name      string `json:"name" validate:"required,max=255"`
	ProfileID *uint  `json:"profile_id"`
}

// GroupService manages groups and their default profiles.
type GroupService struct {
	db *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	groups := []models.Group{}
	if err := s.db.WithContext(ctx).Preload("Profile").Order("name ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *GroupService) Create(ctx context.Context, in GroupInput) (*models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Profile{}, in.ProfileID, "profile"); err != nil {
		return nil, err
	}

	group := models.Group{Name: in.Name, ProfileID: in.ProfileID}
	if err := writeError(db.Create(&group).Error, "group"); err != nil {
		return nil, err
	}
	if err := db.Preload("Profile").First(&group, group.ID).Error; err != nil {
		return nil, lookupError(err, "group", group.ID)
	}

	logrus.WithFields(logrus.Fields{"group_id": group.ID, "name": group.Name}).Info("group created")
	return &group, nil
}
