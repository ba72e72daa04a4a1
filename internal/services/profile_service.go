package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"field_tracker/internal/models"
)

// ProfileInput is the writable part of a profile.
type ProfileInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Settings    json.RawMessage `json:"settings"`
}

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Resolve picks the profile a device should run. An explicit id wins;
// otherwise the default profile of the user's group is used.
func (s *ProfileService) Resolve(ctx context.Context, device *models.Device, explicitID *uint) (*models.Profile, error) {
	if explicitID != nil {
		return s.Get(ctx, *explicitID)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Group").First(&user, device.UserID).Error; err != nil {
		return nil, lookupError(err, "user", device.UserID)
	}
	if user.Group == nil {
		return nil, &NotFoundError{Resource: "group of user", ID: user.ID}
	}
	if user.Group.ProfileID == nil {
		return nil, &NotFoundError{Resource: "default profile of group", ID: user.Group.ID}
	}
	return s.Get(ctx, *user.Group.ProfileID)
}

func (s *ProfileService) List(ctx context.Context) ([]models.Profile, error) {
	profiles := []models.Profile{}
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileService) Get(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, lookupError(err, "profile", id)
	}
	return &profile, nil
}

func (s *ProfileService) Create(ctx context.Context, in ProfileInput) (*models.Profile, error) {
	if err := normalizeProfile(&in); err != nil {
		return nil, err
	}
	profile := models.Profile{
		Name:        in.Name,
		Description: in.Description,
		Settings:    datatypes.JSON(in.Settings),
	}
	if err := writeError(s.db.WithContext(ctx).Create(&profile).Error, "profile"); err != nil {
		return nil, err
	}
	logrus.WithField("profile_id", profile.ID).Info("profile created")
	return &profile, nil
}

// Update replaces all writable fields of a profile.
func (s *ProfileService) Update(ctx context.Context, id uint, in ProfileInput) (*models.Profile, error) {
	if err := normalizeProfile(&in); err != nil {
		return nil, err
	}
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	profile.Name = in.Name
	profile.Description = in.Description
	profile.Settings = datatypes.JSON(in.Settings)
	if err := writeError(s.db.WithContext(ctx).Save(profile).Error, "profile"); err != nil {
		return nil, err
	}
	return profile, nil
}

// Delete removes a profile and unsets it wherever it was a group default.
func (s *ProfileService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Group{}).Where("profile_id = ?", id).Update("profile_id", nil).Error; err != nil {
			return fmt.Errorf("clear group defaults: %w", err)
		}
		res := tx.Delete(&models.Profile{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Resource: "profile", ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithField("profile_id", id).Info("profile deleted")
	return nil
}

func normalizeProfile(in *ProfileInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(*in); err != nil {
		return err
	}
	if len(in.Settings) == 0 || string(in.Settings) == "null" {
		in.Settings = json.RawMessage("{}")
	}
	if !json.Valid(in.Settings) {
		return invalid("settings", "must be a JSON document")
	}
	return nil
}
