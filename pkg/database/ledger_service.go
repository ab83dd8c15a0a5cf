// Package database provides the LedgerService for the per-user warning ledger.
package database

import (
	"errors"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrLedgerManagerNotInitialized = errors.New("ledger data manager not initialized")

// ledgerBackend is the slice of DataManager the ledger needs. It exists so
// tests can swap in an in-memory store.
type ledgerBackend interface {
	Get(query bson.M) (*models.WarnableUser, error)
	Set(query bson.M, data interface{}) (*models.WarnableUser, error)
}

// LedgerService owns the per-(guild,user) warning ledger. Every mutation runs
// under a per-key lock so that "read current warnings, decide, append" can
// never interleave with another append for the same user. Reads are coalesced
// through a short-TTL cache; cached entries are never mutated after insertion
// and every caller gets its own deep copy, so an entry handed out earlier can
// be read freely while a concurrent mutation replaces the cached one.
type LedgerService struct {
	backend ledgerBackend
	cache   *expirable.LRU[string, *models.WarnableUser]
	locks   map[string]*sync.Mutex
	mu      sync.Mutex
}

const (
	ledgerCacheTTL  = 5 * time.Second
	ledgerCacheSize = 2048
)

var (
	ledgerService *LedgerService
	ledgerOnce    sync.Once
)

// InitLedgerService initializes the global ledger service.
// Must be called after InitGlobalDataManagers.
func InitLedgerService() (*LedgerService, error) {
	if GlobalLedgerDM == nil {
		return nil, ErrLedgerManagerNotInitialized
	}
	ledgerOnce.Do(func() {
		ledgerService = NewLedgerService(GlobalLedgerDM)
	})
	return ledgerService, nil
}

// GetLedgerService returns the global ledger service instance
func GetLedgerService() *LedgerService {
	return ledgerService
}

// NewLedgerService creates a LedgerService over the given backend
func NewLedgerService(backend ledgerBackend) *LedgerService {
	return &LedgerService{
		backend: backend,
		cache:   expirable.NewLRU[string, *models.WarnableUser](ledgerCacheSize, nil, ledgerCacheTTL),
		locks:   make(map[string]*sync.Mutex),
	}
}

func ledgerKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// lockFor returns the mutex for one (guild,user) pair, creating it on demand
func (s *LedgerService) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// load fetches the ledger entry from cache or backend. Caller must hold the
// per-key lock and must not mutate the returned entry; it is the shared
// cached copy.
func (s *LedgerService) load(guildID, userID string) (*models.WarnableUser, error) {
	key := ledgerKey(guildID, userID)

	if entry, ok := s.cache.Get(key); ok {
		return entry, nil
	}

	entry, err := s.backend.Get(bson.M{"guildId": guildID, "userId": userID})
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.cache.Add(key, entry)
	}
	return entry, nil
}

// save persists the entry and refreshes the cache. Caller must hold the
// per-key lock.
func (s *LedgerService) save(entry *models.WarnableUser) error {
	saved, err := s.backend.Set(bson.M{"guildId": entry.GuildID, "userId": entry.UserID}, entry)
	if err != nil {
		return err
	}
	// saved is nil when the write was queued offline; the local copy stands
	if saved == nil {
		saved = entry
	}
	s.cache.Add(ledgerKey(entry.GuildID, entry.UserID), saved)
	return nil
}

// GetOrCreate returns the ledger entry for a user, creating and persisting an
// empty one on first observation.
func (s *LedgerService) GetOrCreate(guildID, userID string) (*models.WarnableUser, error) {
	key := ledgerKey(guildID, userID)
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	entry, err := s.load(guildID, userID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry.Clone(), nil
	}

	entry = &models.WarnableUser{
		GuildID:  guildID,
		UserID:   userID,
		Warnings: []models.Warning{},
	}
	if err := s.save(entry); err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

// Update runs fn on the current ledger entry and persists the result, all
// under the per-key lock. fn receives a get-or-created entry and may mutate
// it freely; returning an error aborts without persisting.
func (s *LedgerService) Update(guildID, userID string, fn func(entry *models.WarnableUser) error) (*models.WarnableUser, error) {
	key := ledgerKey(guildID, userID)
	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	entry, err := s.load(guildID, userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &models.WarnableUser{
			GuildID:  guildID,
			UserID:   userID,
			Warnings: []models.Warning{},
		}
	} else {
		// fn works on a copy so the cached entry, which earlier callers
		// may still be reading, is never written in place
		entry = entry.Clone()
	}

	if err := fn(entry); err != nil {
		return nil, err
	}

	if err := s.save(entry); err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

// AppendWarning prepends a warning (newest first) and persists the ledger
func (s *LedgerService) AppendWarning(guildID, userID string, w models.Warning) (*models.WarnableUser, error) {
	return s.Update(guildID, userID, func(entry *models.WarnableUser) error {
		entry.Warnings = append([]models.Warning{w}, entry.Warnings...)
		return nil
	})
}

// SetMuted updates the mute flag and persists the ledger
func (s *LedgerService) SetMuted(guildID, userID string, muted bool) (*models.WarnableUser, error) {
	return s.Update(guildID, userID, func(entry *models.WarnableUser) error {
		entry.IsMuted = muted
		return nil
	})
}

// SetIncidentThread records the incident thread reference for a user
func (s *LedgerService) SetIncidentThread(guildID, userID, threadID string) (*models.WarnableUser, error) {
	return s.Update(guildID, userID, func(entry *models.WarnableUser) error {
		entry.IncidentThreadID = threadID
		return nil
	})
}

// SeenUsername records a username observation if it is new
func (s *LedgerService) SeenUsername(guildID, userID, username string) (*models.WarnableUser, error) {
	return s.Update(guildID, userID, func(entry *models.WarnableUser) error {
		entry.LastKnownUsername = username
		if !entry.HasSeenName(username) {
			entry.SeenNames = append(entry.SeenNames, username)
		}
		return nil
	})
}
