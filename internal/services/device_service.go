package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"field_tracker/internal/models"
)

// LoginInput is what a handset sends to open a session.
type LoginInput struct {
	Email        string `json:"em" validate:"required"`
	Password     string `json:"pwd" validate:"required"`
	PushToken    string `json:"token"`
	Manufacturer string `json:"man" validate:"required"`
	Model        string `json:"mod" validate:"required"`
	OSVersion    string `json:"osv" validate:"required"`
}

// LoginResult carries the only copy of the client key we ever hand out.
type LoginResult struct {
	DeviceID  uint   `json:"cid"`
	ClientKey string `json:"ckey"`
}

// StatusInput holds battery and signal readings. Both are required.
type StatusInput struct {
	Battery *int `json:"battery" validate:"required,min=0,max=100"`
	Signal  *int `json:"signal" validate:"required"`
}

// DeviceService owns device sessions: login, per-request authentication,
// status updates and logout.
type DeviceService struct {
	db *gorm.DB
}

func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{db: db}
}

// Login checks the user's credentials and replaces whatever device the user
// had with a new one. The old handset's key stops working immediately.
func (s *DeviceService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		passwordMatches(string(dummyHash), in.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !passwordMatches(user.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}

	key, digest, err := newClientKey()
	if err != nil {
		return nil, err
	}
	device := models.Device{
		UserID:        user.ID,
		ClientKeyHash: digest,
		Token:         in.PushToken,
		Model:         in.Manufacturer + " " + in.Model,
		IsIOS:         false,
		OSVersion:     in.OSVersion,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// serialize logins of the same user; the unique index on
		// devices.user_id backs this up where row locks are unavailable
		var locked models.User
		if err := lockForUpdate(tx).Select("id").First(&locked, user.ID).Error; err != nil {
			return lookupError(err, "user", user.ID)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Device{}).Error; err != nil {
			return fmt.Errorf("delete old device: %w", err)
		}
		return writeError(tx.Create(&device).Error, "device")
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"device_id": device.ID,
		"model":     device.Model,
	}).Info("device logged in")

	return &LoginResult{DeviceID: device.ID, ClientKey: key}, nil
}

// Authenticate resolves a device from its id and client key. Every failure,
// whatever the cause, is ErrUnauthorized.
func (s *DeviceService) Authenticate(ctx context.Context, deviceID uint, clientKey string) (*models.Device, error) {
	if deviceID == 0 || clientKey == "" {
		return nil, ErrUnauthorized
	}

	var device models.Device
	err := s.db.WithContext(ctx).
		Where("id = ? AND client_key_hash = ?", deviceID, hashClientKey(clientKey)).
		First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	return &device, nil
}

// UpdateStatus overwrites battery and signal of an authenticated device.
func (s *DeviceService) UpdateStatus(ctx context.Context, device *models.Device, in StatusInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Model(device).Updates(map[string]any{
		"battery": *in.Battery,
		"signal":  *in.Signal,
	}).Error
	if err != nil {
		return fmt.Errorf("update device status: %w", err)
	}
	device.Battery = in.Battery
	device.Signal = in.Signal
	return nil
}

// Logout deletes the device after re-checking its key and the owner's password.
func (s *DeviceService) Logout(ctx context.Context, device *models.Device, clientKey, password string) error {
	if !clientKeyMatches(device.ClientKeyHash, clientKey) {
		return ErrUnauthorized
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, device.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !passwordMatches(user.PasswordHash, password) {
		return ErrUnauthorized
	}

	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", device.ID, user.ID).Delete(&models.Device{})
	if res.Error != nil {
		return fmt.Errorf("delete device: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// superseded by another login between authenticate and here
		return ErrUnauthorized
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"device_id": device.ID,
	}).Info("device logged out")
	return nil
}

// lockForUpdate adds a row lock on dialects that support one.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
