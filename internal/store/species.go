package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wildlens/apiserver/types"
)

// SpeciesRepository reads the infos_especes reference table.
type SpeciesRepository struct {
	db *sql.DB
}

func NewSpeciesRepository(db *sql.DB) *SpeciesRepository {
	return &SpeciesRepository{db: db}
}

// Get looks a species up by its exact, case-sensitive name.
func (r *SpeciesRepository) Get(ctx context.Context, species string) (types.SpeciesInfo, error) {
	const query = `
		SELECT espece, nom_latin, famille, region, habitat, fun_fact, description
		FROM infos_especes
		WHERE espece = $1`
	var info types.SpeciesInfo
	err := r.db.QueryRowContext(ctx, query, species).Scan(
		&info.Species,
		&info.LatinName,
		&info.Family,
		&info.Region,
		&info.Habitat,
		&info.FunFact,
		&info.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.SpeciesInfo{}, ErrNotFound
		}
		return types.SpeciesInfo{}, fmt.Errorf("select species: %w", err)
	}
	return info, nil
}

func (r *SpeciesRepository) List(ctx context.Context) ([]types.SpeciesInfo, error) {
	const query = `
		SELECT espece, nom_latin, famille, region, habitat, fun_fact, description
		FROM infos_especes
		ORDER BY espece`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}
	defer rows.Close()

	items := make([]types.SpeciesInfo, 0)
	for rows.Next() {
		var info types.SpeciesInfo
		if err := rows.Scan(
			&info.Species,
			&info.LatinName,
			&info.Family,
			&info.Region,
			&info.Habitat,
			&info.FunFact,
			&info.Description,
		); err != nil {
			return nil, fmt.Errorf("scan species: %w", err)
		}
		items = append(items, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}
	return items, nil
}
