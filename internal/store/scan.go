package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wildlens/apiserver/types"
)

// ScanRepository handles persistence for scans. Every read is scoped to an
// owner id.
type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create inserts the scan. scan.Timestamp must already use
// types.TimestampLayout.
func (r *ScanRepository) Create(ctx context.Context, scan types.Scan) (types.Scan, error) {
	const query = `
		INSERT INTO scans (species, timestamp, image_count, average_time, image, image_key, latitude, longitude, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		scan.Species,
		scan.Timestamp,
		scan.ImageCount,
		scan.AverageTime,
		scan.Image,
		scan.ImageKey,
		scan.Latitude,
		scan.Longitude,
		scan.UserID,
	).Scan(&scan.ID); err != nil {
		return types.Scan{}, fmt.Errorf("insert scan: %w", err)
	}
	return scan, nil
}

// ListByOwner returns the owner's scans, newest capture first, joined with
// their species reference entry when one exists.
func (r *ScanRepository) ListByOwner(ctx context.Context, userID int) ([]types.Scan, error) {
	const query = `
		SELECT s.id, s.species, s.timestamp, s.image_count, s.average_time,
		       s.image, s.image_key, s.latitude, s.longitude, s.user_id,
		       e.espece, e.nom_latin, e.famille, e.region, e.habitat, e.fun_fact, e.description
		FROM scans s
		LEFT JOIN infos_especes e ON e.espece = s.species
		WHERE s.user_id = $1
		ORDER BY s.timestamp DESC, s.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	scans := make([]types.Scan, 0)
	for rows.Next() {
		var (
			scan                types.Scan
			capturedAt          time.Time
			image, imageKey     sql.NullString
			latitude, longitude sql.NullFloat64
			info                nullableSpeciesInfo
		)
		if err := rows.Scan(
			&scan.ID,
			&scan.Species,
			&capturedAt,
			&scan.ImageCount,
			&scan.AverageTime,
			&image,
			&imageKey,
			&latitude,
			&longitude,
			&scan.UserID,
			&info.species,
			&info.latinName,
			&info.family,
			&info.region,
			&info.habitat,
			&info.funFact,
			&info.description,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		scan.Timestamp = capturedAt.Format(types.TimestampLayout)
		if image.Valid {
			scan.Image = &image.String
		}
		if imageKey.Valid {
			scan.ImageKey = &imageKey.String
		}
		if latitude.Valid {
			scan.Latitude = &latitude.Float64
		}
		if longitude.Valid {
			scan.Longitude = &longitude.Float64
		}
		scan.SpeciesInfo = info.value()
		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}

// nullableSpeciesInfo receives the LEFT JOIN side, which is all NULL when the
// species has no reference entry.
type nullableSpeciesInfo struct {
	species, latinName, family, region, habitat, funFact, description sql.NullString
}

func (n nullableSpeciesInfo) value() *types.SpeciesInfo {
	if !n.species.Valid {
		return nil
	}
	return &types.SpeciesInfo{
		Species:     n.species.String,
		LatinName:   n.latinName.String,
		Family:      n.family.String,
		Region:      n.region.String,
		Habitat:     n.habitat.String,
		FunFact:     n.funFact.String,
		Description: n.description.String,
	}
}
