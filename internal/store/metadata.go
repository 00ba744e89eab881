package store

import (
	"database/sql"
	"errors"
)

// Metadata keys written by the run command.
const (
	MetaLLMModel     = "llm_model"
	MetaLanguage     = "language"
	MetaNumQuestions = "num_questions"
)

// SetMetadata upserts a key-value pair in the archive_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO archive_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM archive_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetMetadataPairs stores several keys at once.
func (s *Store) SetMetadataPairs(pairs map[string]string) error {
	for k, v := range pairs {
		if err := s.SetMetadata(k, v); err != nil {
			return err
		}
	}
	return nil
}

// AllMetadata returns every stored key.
func (s *Store) AllMetadata() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM archive_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}
