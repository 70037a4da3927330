package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Sample represents a recorded gesture sample stored in the database.
type Sample struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository provides access to recorded training samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Train replaces the recorded samples of a gesture and stores the template
// trained from them in a single transaction.
func (r *SampleRepository) Train(gestureID string, samples []json.RawMessage, landmarks []Landmark) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceLandmarks(tx, gestureID, landmarks, SourceTrained); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM gesture_samples WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO gesture_samples (gesture_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(gestureID, i, string(data)); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`UPDATE gestures SET samples = ? WHERE id = ?`, len(samples), gestureID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Reset drops the recorded samples of a gesture and restores the given
// built-in template.
func (r *SampleRepository) Reset(gestureID string, builtin []Landmark) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replaceLandmarks(tx, gestureID, builtin, SourceBuiltin); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM gesture_samples WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE gestures SET samples = 0 WHERE id = ?`, gestureID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByGestureID retrieves all samples for a given gesture.
func (r *SampleRepository) GetByGestureID(gestureID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, gesture_id, sample_index, data, created_at
		 FROM gesture_samples
		 WHERE gesture_id = ?
		 ORDER BY sample_index`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.GestureID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}
