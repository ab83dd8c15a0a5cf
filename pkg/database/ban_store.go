// Package database provides the persistent store for scheduled bans.
package database

import (
	"errors"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrBanManagersNotInitialized = errors.New("ban data managers not initialized")

// banBackend is the slice of DataManager the store needs for active entries
type banBackend interface {
	Get(query bson.M) (*models.ScheduledBan, error)
	GetAll(query bson.M) ([]*models.ScheduledBan, error)
	Set(query bson.M, data interface{}) (*models.ScheduledBan, error)
	Delete(query bson.M) error
}

// banHistoryBackend is the slice of DataManager the store needs for history
type banHistoryBackend interface {
	GetAll(query bson.M) ([]*models.ScheduledBanHistory, error)
	Set(query bson.M, data interface{}) (*models.ScheduledBanHistory, error)
}

// MongoBanStore keeps active scheduled bans in one collection and retired
// entries in a history collection. Entry IDs are monotonic across both, so a
// retired entry never collides with a live one.
type MongoBanStore struct {
	active  banBackend
	history banHistoryBackend

	mu     sync.Mutex
	nextID int64
}

var (
	banStore     *MongoBanStore
	banStoreOnce sync.Once
)

// InitBanStore initializes the global ban store.
// Must be called after InitGlobalDataManagers.
func InitBanStore() (*MongoBanStore, error) {
	if GlobalTempBanDM == nil || GlobalBanHistoryDM == nil {
		return nil, ErrBanManagersNotInitialized
	}
	banStoreOnce.Do(func() {
		banStore = NewMongoBanStore(GlobalTempBanDM, GlobalBanHistoryDM)
	})
	return banStore, nil
}

// GetBanStore returns the global ban store instance
func GetBanStore() *MongoBanStore {
	return banStore
}

// NewMongoBanStore creates a ban store over the given backends
func NewMongoBanStore(active banBackend, history banHistoryBackend) *MongoBanStore {
	return &MongoBanStore{
		active:  active,
		history: history,
	}
}

// Active returns the live entry for one user, or nil
func (s *MongoBanStore) Active(guildID, userID string) (*models.ScheduledBan, error) {
	return s.active.Get(bson.M{"guildId": guildID, "userId": userID})
}

// AllActive returns every live entry across all guilds
func (s *MongoBanStore) AllActive() ([]*models.ScheduledBan, error) {
	return s.active.GetAll(bson.M{})
}

// allocateID hands out the next entry ID. Caller must hold s.mu. The counter
// seeds itself from the highest ID seen in either collection.
func (s *MongoBanStore) allocateID() (int64, error) {
	if s.nextID == 0 {
		max := int64(0)

		live, err := s.active.GetAll(bson.M{})
		if err != nil {
			return 0, err
		}
		for _, b := range live {
			if b.EntryID > max {
				max = b.EntryID
			}
		}

		retired, err := s.history.GetAll(bson.M{})
		if err != nil {
			return 0, err
		}
		for _, h := range retired {
			if h.EntryID > max {
				max = h.EntryID
			}
		}

		s.nextID = max + 1
	}

	id := s.nextID
	s.nextID++
	return id, nil
}

// Insert assigns the entry ID and persists the ban. The document is keyed by
// (guild,user) because at most one live entry per user may exist.
func (s *MongoBanStore) Insert(ban *models.ScheduledBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.allocateID()
	if err != nil {
		return err
	}
	ban.EntryID = id

	_, err = s.active.Set(bson.M{"guildId": ban.GuildID, "userId": ban.UserID}, ban)
	return err
}

// Retire moves an entry to the history collection with its outcome
func (s *MongoBanStore) Retire(ban models.ScheduledBan, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := models.ScheduledBanHistory{
		ScheduledBan: ban,
		Outcome:      outcome,
		RetiredAt:    time.Now().UTC(),
	}
	if _, err := s.history.Set(bson.M{"entryId": ban.EntryID}, record); err != nil {
		return err
	}

	return s.active.Delete(bson.M{"guildId": ban.GuildID, "userId": ban.UserID})
}
