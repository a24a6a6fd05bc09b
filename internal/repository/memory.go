package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/gridmatch-backend/internal/apperror"
	"github.com/rocketscienceinc/gridmatch-backend/internal/entity"
)

// memoryMatch keeps encoded records so callers never share state with the store.
type memoryMatch struct {
	mu      sync.RWMutex
	matches map[string][]byte
}

func NewMemoryMatchRepository() MatchRepository {
	return &memoryMatch{
		matches: make(map[string][]byte),
	}
}

func (that *memoryMatch) CreateOrUpdate(_ context.Context, match *entity.MatchRecord) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	that.mu.Lock()
	that.matches[match.ID] = matchJSON
	that.mu.Unlock()

	return nil
}

func (that *memoryMatch) GetByID(_ context.Context, id string) (*entity.MatchRecord, error) {
	that.mu.RLock()
	matchJSON, ok := that.matches[id]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrMatchNotFound, id)
	}

	var existingMatch entity.MatchRecord
	if err := json.Unmarshal(matchJSON, &existingMatch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &existingMatch, nil
}

func (that *memoryMatch) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches[id]; !ok {
		return fmt.Errorf("%w: %s", apperror.ErrMatchNotFound, id)
	}

	delete(that.matches, id)

	return nil
}
