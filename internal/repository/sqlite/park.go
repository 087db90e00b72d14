package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

var _ repository.ParkRepository = (*DB)(nil)

// parkColumns is the SELECT list shared by every park query. Keeping it in
// one place guarantees scanPark reads the columns in the order they were
// selected.
const parkColumns = `id, name, map_url, has_wc, has_shop, has_adult_sport_area,
	playground_condition, playground_variety, security, tree_coverage, photo_url`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPark(s scanner, p *model.Park) error {
	return s.Scan(
		&p.ID, &p.Name, &p.MapURL,
		&p.HasWC, &p.HasShop, &p.HasAdultSportArea,
		&p.PlaygroundCondition, &p.PlaygroundVariety, &p.Security, &p.TreeCoverage,
		&p.PhotoURL,
	)
}

// CreatePark inserts a new park and fills in its generated ID.
//
// The UNIQUE constraint on name is the last line of defence against
// duplicates; the service checks first, but two concurrent requests can
// still race past that check. Either way the caller gets ErrConflict.
func (db *DB) CreatePark(ctx context.Context, park *model.Park) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO parks (name, map_url, has_wc, has_shop, has_adult_sport_area,
			playground_condition, playground_variety, security, tree_coverage, photo_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		park.Name,
		park.MapURL,
		park.HasWC,
		park.HasShop,
		park.HasAdultSportArea,
		park.PlaygroundCondition,
		park.PlaygroundVariety,
		park.Security,
		park.TreeCoverage,
		park.PhotoURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("park", "name", park.Name)
		}
		return fmt.Errorf("sqlite: creating park: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new park id: %w", err)
	}
	park.ID = id

	return nil
}

// GetPark retrieves a single park by its ID.
// Returns apperror.ErrNotFound if no park has that ID.
func (db *DB) GetPark(ctx context.Context, id int64) (*model.Park, error) {
	var p model.Park
	err := scanPark(db.conn.QueryRowContext(ctx,
		`SELECT `+parkColumns+` FROM parks WHERE id = ?`, id,
	), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("park", id)
		}
		return nil, fmt.Errorf("sqlite: getting park %d: %w", id, err)
	}
	return &p, nil
}

// GetParkByName retrieves a park by its exact name.
func (db *DB) GetParkByName(ctx context.Context, name string) (*model.Park, error) {
	var p model.Park
	err := scanPark(db.conn.QueryRowContext(ctx,
		`SELECT `+parkColumns+` FROM parks WHERE name = ?`, name,
	), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("park not found with name %q", name),
			}
		}
		return nil, fmt.Errorf("sqlite: getting park by name: %w", err)
	}
	return &p, nil
}

// ListParks returns every park ordered by name.
//
// There is no pagination: the whole catalogue is small, and the chat
// prompt needs every row anyway.
func (db *DB) ListParks(ctx context.Context) ([]model.Park, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+parkColumns+` FROM parks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing parks: %w", err)
	}
	// CRITICAL: always close rows, or the connection never returns to the pool.
	defer rows.Close()

	parks := make([]model.Park, 0)
	for rows.Next() {
		var p model.Park
		if err := scanPark(rows, &p); err != nil {
			return nil, fmt.Errorf("sqlite: scanning park row: %w", err)
		}
		parks = append(parks, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating parks: %w", err)
	}

	return parks, nil
}

// UpdatePark overwrites every mutable column of an existing park.
//
// RowsAffected tells us whether the WHERE clause matched anything, which
// saves a SELECT before the UPDATE.
func (db *DB) UpdatePark(ctx context.Context, park *model.Park) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE parks
		 SET name = ?, map_url = ?, has_wc = ?, has_shop = ?, has_adult_sport_area = ?,
		     playground_condition = ?, playground_variety = ?, security = ?, tree_coverage = ?,
		     photo_url = ?
		 WHERE id = ?`,
		park.Name,
		park.MapURL,
		park.HasWC,
		park.HasShop,
		park.HasAdultSportArea,
		park.PlaygroundCondition,
		park.PlaygroundVariety,
		park.Security,
		park.TreeCoverage,
		park.PhotoURL,
		park.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("park", "name", park.Name)
		}
		return fmt.Errorf("sqlite: updating park %d: %w", park.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("park", park.ID)
	}

	return nil
}

// DeletePark removes a park by its ID.
// Same pattern as UpdatePark: zero rows affected means not found.
func (db *DB) DeletePark(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM parks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting park %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("park", id)
	}

	return nil
}
