package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/model"
)

const (
	errorMessageCreateSession = "storage: create session"
	errorMessageLoadSession   = "storage: load session"
	errorMessageSaveSession   = "storage: save session"
	errorMessageDeleteSession = "storage: delete session"
	errorMessagePruneSessions = "storage: prune sessions"
	errorMessageDecodeSession = "storage: decode session configuration"
	errorMessageEncodeSession = "storage: encode session configuration"
)

var (
	// ErrSessionNotFound indicates no builder session exists for the identifier.
	ErrSessionNotFound = errors.New("storage: session not found")
	// ErrMissingSessionID indicates an empty session identifier.
	ErrMissingSessionID = errors.New("storage: missing session id")
)

// ConfigurationMutator changes a session's configuration in place. Returning an
// error discards the change.
type ConfigurationMutator func(configuration *model.Configuration) error

// SessionState is the decoded content of a builder session.
type SessionState struct {
	ID            string
	Configuration model.Configuration
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SessionStore keeps one configuration per builder session.
type SessionStore struct {
	database *gorm.DB
}

// NewSessionStore constructs a SessionStore on a migrated database.
func NewSessionStore(database *gorm.DB) *SessionStore {
	return &SessionStore{database: database}
}

// Create starts a session holding a fresh configuration.
func (store *SessionStore) Create(ctx context.Context) (SessionState, error) {
	row, encodeErr := encodeSession(NewID(), model.NewConfiguration())
	if encodeErr != nil {
		return SessionState{}, encodeErr
	}
	if createErr := store.database.WithContext(ctx).Create(&row).Error; createErr != nil {
		return SessionState{}, fmt.Errorf("%s: %w", errorMessageCreateSession, createErr)
	}
	return decodeSession(row)
}

// Load returns the session with the given identifier.
func (store *SessionStore) Load(ctx context.Context, sessionID string) (SessionState, error) {
	row, loadErr := loadSessionRow(store.database.WithContext(ctx), sessionID)
	if loadErr != nil {
		return SessionState{}, loadErr
	}
	return decodeSession(row)
}

// Update applies mutator to the session's configuration and saves the result
// in the same transaction.
func (store *SessionStore) Update(ctx context.Context, sessionID string, mutator ConfigurationMutator) (SessionState, error) {
	var updatedState SessionState
	transactionErr := store.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		row, loadErr := loadSessionRow(transaction, sessionID)
		if loadErr != nil {
			return loadErr
		}
		state, decodeErr := decodeSession(row)
		if decodeErr != nil {
			return decodeErr
		}

		if mutateErr := mutator(&state.Configuration); mutateErr != nil {
			return mutateErr
		}

		updatedRow, encodeErr := encodeSession(row.ID, state.Configuration)
		if encodeErr != nil {
			return encodeErr
		}
		updatedRow.CreatedAt = row.CreatedAt
		if saveErr := transaction.Save(&updatedRow).Error; saveErr != nil {
			return fmt.Errorf("%s: %w", errorMessageSaveSession, saveErr)
		}

		updatedState, decodeErr = decodeSession(updatedRow)
		return decodeErr
	})
	if transactionErr != nil {
		return SessionState{}, transactionErr
	}
	return updatedState, nil
}

// Delete ends a session. Deleting an unknown session is not an error.
func (store *SessionStore) Delete(ctx context.Context, sessionID string) error {
	trimmedID := strings.TrimSpace(sessionID)
	if trimmedID == "" {
		return ErrMissingSessionID
	}
	if deleteErr := store.database.WithContext(ctx).Delete(&model.BuilderSession{}, "id = ?", trimmedID).Error; deleteErr != nil {
		return fmt.Errorf("%s: %w", errorMessageDeleteSession, deleteErr)
	}
	return nil
}

// PruneIdle deletes sessions not updated since cutoff and reports how many were removed.
func (store *SessionStore) PruneIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	result := store.database.WithContext(ctx).
		Where("updated_at < ?", cutoff.UTC()).
		Delete(&model.BuilderSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("%s: %w", errorMessagePruneSessions, result.Error)
	}
	return result.RowsAffected, nil
}

func loadSessionRow(database *gorm.DB, sessionID string) (model.BuilderSession, error) {
	trimmedID := strings.TrimSpace(sessionID)
	if trimmedID == "" {
		return model.BuilderSession{}, ErrMissingSessionID
	}

	var row model.BuilderSession
	loadErr := database.First(&row, "id = ?", trimmedID).Error
	if errors.Is(loadErr, gorm.ErrRecordNotFound) {
		return model.BuilderSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, trimmedID)
	}
	if loadErr != nil {
		return model.BuilderSession{}, fmt.Errorf("%s: %w", errorMessageLoadSession, loadErr)
	}
	return row, nil
}

func encodeSession(sessionID string, configuration model.Configuration) (model.BuilderSession, error) {
	document, exportErr := model.ExportConfiguration(configuration)
	if exportErr != nil {
		return model.BuilderSession{}, fmt.Errorf("%s: %w", errorMessageEncodeSession, exportErr)
	}
	return model.BuilderSession{
		ID:             sessionID,
		DataSourceType: string(configuration.DataSourceType),
		Configuration:  string(document),
	}, nil
}

func decodeSession(row model.BuilderSession) (SessionState, error) {
	configuration, parseErr := model.ParseConfiguration([]byte(row.Configuration))
	if parseErr != nil {
		return SessionState{}, fmt.Errorf("%s: %w", errorMessageDecodeSession, parseErr)
	}
	configuration.DataSourceType = model.DataSourceType(row.DataSourceType)
	return SessionState{
		ID:            row.ID,
		Configuration: configuration,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
