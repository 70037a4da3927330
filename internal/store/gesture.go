package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Source records where a gesture's current template came from.
type Source string

const (
	// SourceBuiltin marks the stock template shipped with the binary.
	SourceBuiltin Source = "builtin"
	// SourceTrained marks a template averaged from recorded samples.
	SourceTrained Source = "trained"
)

// Gesture represents a gesture template row.
type Gesture struct {
	ID        string
	Name      string
	Source    Source
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Landmark is one stored template point.
type Landmark struct {
	X float64
	Y float64
	Z float64
}

// GestureRepository provides access to gesture templates.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

const gestureColumns = `id, name, source, samples, created_at, updated_at`

func scanGesture(row interface{ Scan(...any) error }) (*Gesture, error) {
	g := &Gesture{}
	var source string
	if err := row.Scan(&g.ID, &g.Name, &source, &g.Samples, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Source = Source(source)
	return g, nil
}

// Create inserts a new gesture together with its template landmarks.
func (r *GestureRepository) Create(g *Gesture, landmarks []Landmark) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Source == "" {
		g.Source = SourceBuiltin
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO gestures (id, name, source, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, string(g.Source), g.Samples, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert gesture %s: %w", g.Name, err)
	}

	if err := insertLandmarks(tx, g.ID, landmarks); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(
		`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// GetByName retrieves a gesture by its name.
func (r *GestureRepository) GetByName(name string) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(
		`SELECT `+gestureColumns+` FROM gestures WHERE name = ?`, name,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// List retrieves all gestures ordered by name.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(`SELECT ` + gestureColumns + ` FROM gestures ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gestures, nil
}

// GetLandmarks returns the template landmarks of a gesture in index order.
func (r *GestureRepository) GetLandmarks(gestureID string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT x, y, z FROM gesture_landmarks
		 WHERE gesture_id = ?
		 ORDER BY landmark_index`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var landmarks []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.X, &l.Y, &l.Z); err != nil {
			return nil, err
		}
		landmarks = append(landmarks, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return landmarks, nil
}

// SetLandmarks replaces the template of a gesture and records its source.
func (r *GestureRepository) SetLandmarks(gestureID string, landmarks []Landmark, source Source) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceLandmarks(tx, gestureID, landmarks, source); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a gesture and everything attached to it.
func (r *GestureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func replaceLandmarks(tx *sql.Tx, gestureID string, landmarks []Landmark, source Source) error {
	result, err := tx.Exec(
		`UPDATE gestures SET source = ?, updated_at = ? WHERE id = ?`,
		string(source), time.Now(), gestureID,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM gesture_landmarks WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}

	return insertLandmarks(tx, gestureID, landmarks)
}

func insertLandmarks(tx *sql.Tx, gestureID string, landmarks []Landmark) error {
	stmt, err := tx.Prepare(
		`INSERT INTO gesture_landmarks (gesture_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range landmarks {
		if _, err := stmt.Exec(gestureID, i, l.X, l.Y, l.Z); err != nil {
			return fmt.Errorf("insert landmark %d: %w", i, err)
		}
	}
	return nil
}
