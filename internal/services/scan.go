package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/wildlens/apiserver/types"
)

// Column widths of the scans table.
const (
	MaxSpeciesLength     = 100
	MaxAverageTimeLength = 50
	MaxImageCount        = math.MaxInt32
)

// ScanRepository defines persistence operations for scans.
type ScanRepository interface {
	Create(ctx context.Context, scan types.Scan) (types.Scan, error)
	ListByOwner(ctx context.Context, userID int) ([]types.Scan, error)
}

// ImageStore keeps scan image payloads outside the database.
type ImageStore interface {
	PutScanImage(ctx context.Context, userID int, payload string) (string, error)
	GetScanImage(ctx context.Context, key string) (string, error)
	DeleteScanImage(ctx context.Context, key string) error
}

// EventPublisher announces stored scans.
type EventPublisher interface {
	PublishJSON(ctx context.Context, channel string, value any, attrs map[string]string) (string, error)
}

// CreateScanInput is a scan as submitted by its owner.
type CreateScanInput struct {
	Species     string
	Timestamp   string
	ImageCount  int
	AverageTime string
	Image       *string
	Latitude    *float64
	Longitude   *float64
}

// ScanService records scans and lists them back to their owner.
type ScanService struct {
	repo    ScanRepository
	images  ImageStore
	events  EventPublisher
	channel string
	log     zerolog.Logger
}

// ScanOption configures optional ScanService collaborators.
type ScanOption func(*ScanService)

// WithImageStore offloads image payloads to store.
func WithImageStore(store ImageStore) ScanOption {
	return func(s *ScanService) { s.images = store }
}

// WithEventPublisher publishes a types.ScanEvent to channel after each insert.
func WithEventPublisher(publisher EventPublisher, channel string) ScanOption {
	return func(s *ScanService) {
		s.events = publisher
		s.channel = channel
	}
}

func NewScanService(repo ScanRepository, log zerolog.Logger, opts ...ScanOption) *ScanService {
	s := &ScanService{repo: repo, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates input and stores it as a scan owned by userID.
func (s *ScanService) Create(ctx context.Context, userID int, in CreateScanInput) (types.Scan, error) {
	if userID < 1 {
		return types.Scan{}, invalid("user_id", "Propriétaire du scan requis")
	}
	species := strings.TrimSpace(in.Species)
	switch {
	case species == "":
		return types.Scan{}, invalid("species", "Le champ species est requis")
	case utf8.RuneCountInString(species) > MaxSpeciesLength:
		return types.Scan{}, invalid("species", "Le champ species ne doit pas dépasser %d caractères", MaxSpeciesLength)
	}
	timestamp, err := NormalizeTimestamp(in.Timestamp)
	if err != nil {
		return types.Scan{}, err
	}
	if in.ImageCount < 1 || in.ImageCount > MaxImageCount {
		return types.Scan{}, invalid("imageCount", "Le champ imageCount doit être compris entre 1 et %d", MaxImageCount)
	}
	averageTime := strings.TrimSpace(in.AverageTime)
	switch {
	case averageTime == "":
		return types.Scan{}, invalid("averageTime", "Le champ averageTime est requis")
	case utf8.RuneCountInString(averageTime) > MaxAverageTimeLength:
		return types.Scan{}, invalid("averageTime", "Le champ averageTime ne doit pas dépasser %d caractères", MaxAverageTimeLength)
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return types.Scan{}, invalid("latitude", "La latitude doit être comprise entre -90 et 90")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return types.Scan{}, invalid("longitude", "La longitude doit être comprise entre -180 et 180")
	}

	scan := types.Scan{
		Species:     species,
		Timestamp:   timestamp,
		ImageCount:  in.ImageCount,
		AverageTime: averageTime,
		Image:       in.Image,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		UserID:      userID,
	}

	if s.images != nil && in.Image != nil && *in.Image != "" {
		key, err := s.images.PutScanImage(ctx, userID, *in.Image)
		if err != nil {
			return types.Scan{}, fmt.Errorf("store scan image: %w", err)
		}
		scan.Image = nil
		scan.ImageKey = &key
	}

	created, err := s.repo.Create(ctx, scan)
	if err != nil {
		if scan.ImageKey != nil {
			if delErr := s.images.DeleteScanImage(ctx, *scan.ImageKey); delErr != nil {
				s.log.Warn().Err(delErr).Str("key", *scan.ImageKey).Msg("remove orphaned scan image")
			}
		}
		return types.Scan{}, err
	}
	created.Image = in.Image

	s.publishCreated(ctx, created)
	return created, nil
}

// ListByOwner returns only userID's scans, newest capture first.
func (s *ScanService) ListByOwner(ctx context.Context, userID int) ([]types.Scan, error) {
	scans, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.images == nil {
		return scans, nil
	}

	for i := range scans {
		key := scans[i].ImageKey
		if key == nil || scans[i].Image != nil {
			continue
		}
		payload, err := s.images.GetScanImage(ctx, *key)
		if err != nil {
			s.log.Warn().Err(err).Int64("scan_id", scans[i].ID).Str("key", *key).Msg("load scan image")
			continue
		}
		scans[i].Image = &payload
	}
	return scans, nil
}

func (s *ScanService) publishCreated(ctx context.Context, scan types.Scan) {
	if s.events == nil || s.channel == "" {
		return
	}
	event := types.ScanEvent{
		ScanID:    scan.ID,
		UserID:    scan.UserID,
		Species:   scan.Species,
		Timestamp: scan.Timestamp,
		Latitude:  scan.Latitude,
		Longitude: scan.Longitude,
	}
	if _, err := s.events.PublishJSON(ctx, s.channel, event, map[string]string{"event": "scan.created"}); err != nil {
		s.log.Error().Err(err).Int64("scan_id", scan.ID).Str("channel", s.channel).Msg("publish scan event")
	}
}

var timestampLayouts = []string{
	types.TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// NormalizeTimestamp parses a client capture time and formats it with
// types.TimestampLayout. Fractional seconds are dropped and zoned times are
// converted to UTC. time.Parse accepts a fraction after the seconds field
// even when the layout has none.
func NormalizeTimestamp(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("timestamp", "Le champ timestamp est requis")
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return parsed.UTC().Truncate(time.Second).Format(types.TimestampLayout), nil
		}
	}
	return "", invalid("timestamp", "Date invalide : %q", raw)
}
