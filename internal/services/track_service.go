package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	logrus "github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gorm.io/gorm"

	"field_tracker/internal/models"
)

// LocationInput is one GPS fix reported by a device.
type LocationInput struct {
	Latitude  *float64 `json:"lat" validate:"required,latitude"`
	Longitude *float64 `json:"long" validate:"required,longitude"`
}

// TrackPublisher receives every stored track, e.g. to feed live dashboards.
// Implementations must not block.
type TrackPublisher interface {
	PublishTrack(track models.Track)
}

// TrackService appends location samples and answers history queries.
type TrackService struct {
	db        *gorm.DB
	now       func() time.Time
	publisher TrackPublisher
}

func NewTrackService(db *gorm.DB) *TrackService {
	return &TrackService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetPublisher attaches a live feed. Passing nil detaches it.
func (s *TrackService) SetPublisher(p TrackPublisher) {
	s.publisher = p
}

// ReportLocation stores a sample for the device's user, stamped with the
// server clock.
func (s *TrackService) ReportLocation(ctx context.Context, device *models.Device, in LocationInput) (*models.Track, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	track := models.Track{
		UserID:    device.UserID,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		Date:      s.now(),
	}
	if err := writeError(s.db.WithContext(ctx).Create(&track).Error, "track"); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   track.UserID,
		"device_id": device.ID,
		"latitude":  track.Latitude,
		"longitude": track.Longitude,
	}).Debug("location stored")

	if s.publisher != nil {
		s.publisher.PublishTrack(track)
	}
	return &track, nil
}

// ListHistory returns every sample of a user, oldest first.
func (s *TrackService) ListHistory(ctx context.Context, userID uint) ([]models.Track, error) {
	tracks := []models.Track{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").Order("id ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// LatestPerUser returns the newest sample of each user in request order.
// Users without any sample are left out.
func (s *TrackService) LatestPerUser(ctx context.Context, userIDs []uint) ([]models.Track, error) {
	seen := make(map[uint]bool, len(userIDs))
	latest := make([]models.Track, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		var track models.Track
		err := s.db.WithContext(ctx).
			Where("user_id = ?", id).
			Order("date DESC").Order("id DESC").
			First(&track).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("latest track of user %d: %w", id, err)
		}
		latest = append(latest, track)
	}
	return latest, nil
}

// HistoryFeature renders a user's history as a GeoJSON feature: a
// LineString for two or more samples, a Point for one, no geometry for none.
func (s *TrackService) HistoryFeature(ctx context.Context, userID uint) (*geojson.Feature, error) {
	tracks, err := s.ListHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	feature := &geojson.Feature{
		ID: strconv.FormatUint(uint64(userID), 10),
		Properties: map[string]interface{}{
			"user_id":    userID,
			"points":     len(tracks),
			"distance_m": pathLength(tracks),
		},
	}

	switch len(tracks) {
	case 0:
		return feature, nil
	case 1:
		point, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{tracks[0].Longitude, tracks[0].Latitude})
		if err != nil {
			return nil, fmt.Errorf("build point: %w", err)
		}
		feature.Geometry = point
	default:
		coords := make([]geom.Coord, 0, len(tracks))
		for _, t := range tracks {
			coords = append(coords, geom.Coord{t.Longitude, t.Latitude})
		}
		line, err := geom.NewLineString(geom.XY).SetCoords(coords)
		if err != nil {
			return nil, fmt.Errorf("build line: %w", err)
		}
		feature.Geometry = line
	}

	feature.Properties["started_at"] = tracks[0].Date
	feature.Properties["ended_at"] = tracks[len(tracks)-1].Date
	return feature, nil
}

func pathLength(tracks []models.Track) float64 {
	total := 0.0
	for i := 1; i < len(tracks); i++ {
		prev, cur := tracks[i-1], tracks[i]
		total += distanceMeters(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
	}
	return total
}
