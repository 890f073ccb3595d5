package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/surerank/core/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	optionKey       = "surerank_settings"
	backupKeyPrefix = "surerank_settings_backup_"
)

// ErrBackupNotFound is returned when a restore targets a missing backup key.
var ErrBackupNotFound = errors.New("settings backup not found")

// Service is the flat key/value settings store. The full set of saved values
// lives as a single JSON blob in the options table and is cached in memory;
// every mutation rewrites the blob in one statement.
type Service struct {
	db *gorm.DB

	mu     sync.RWMutex
	cache  map[string]interface{}
	loaded bool
}

// BackupInfo describes one stored settings snapshot.
type BackupInfo struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) load() error {
	if s.loaded {
		return nil
	}

	var opt models.OptionModel
	err := s.db.Where("name = ?", optionKey).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.cache = map[string]interface{}{}
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	values := map[string]interface{}{}
	if opt.Value != "" {
		if err := json.Unmarshal([]byte(opt.Value), &values); err != nil {
			return fmt.Errorf("decode settings: %w", err)
		}
	}
	s.cache = values
	s.loaded = true
	return nil
}

func (s *Service) persist(name string, values map[string]interface{}) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	opt := models.OptionModel{Name: name, Value: string(raw)}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&opt).Error
	if err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// Saved returns a copy of the persisted values only, without defaults.
func (s *Service) Saved() (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out, nil
}

// All returns the effective settings: process-wide defaults merged with the
// persisted values, saved values winning.
func (s *Service) All() (map[string]interface{}, error) {
	saved, err := s.Saved()
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(Defaults)+len(saved))
	for k, v := range Defaults {
		out[k] = v
	}
	for k, v := range saved {
		out[k] = v
	}
	return out, nil
}

// Get returns the effective value for key and whether it is known at all.
func (s *Service) Get(key string) (interface{}, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, false, err
	}

	if v, ok := s.cache[key]; ok {
		return v, true, nil
	}
	if v, ok := Defaults[key]; ok {
		return v, false, nil
	}
	return nil, false, nil
}

// HasSaved reports whether key holds a persisted (non-default) value.
func (s *Service) HasSaved(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false, err
	}
	_, ok := s.cache[key]
	return ok, nil
}

// Set persists a single key.
func (s *Service) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	next := make(map[string]interface{}, len(s.cache)+1)
	for k, v := range s.cache {
		next[k] = v
	}
	next[key] = value

	if err := s.persist(optionKey, next); err != nil {
		return err
	}
	s.cache = next
	return nil
}

// Replace swaps the persisted values for the given map in a single write.
func (s *Service) Replace(values map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]interface{}, len(values))
	for k, v := range values {
		next[k] = v
	}

	if err := s.persist(optionKey, next); err != nil {
		return err
	}
	s.cache = next
	s.loaded = true
	return nil
}

// Snapshot stores the current persisted values under a timestamped backup key
// and returns that key.
func (s *Service) Snapshot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return "", err
	}

	key := backupKeyPrefix + strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.persist(key, s.cache); err != nil {
		return "", err
	}
	return key, nil
}

// ListBackups returns the stored snapshots, newest first.
func (s *Service) ListBackups() ([]BackupInfo, error) {
	var opts []models.OptionModel
	err := s.db.Select("name").
		Where("name LIKE ?", backupKeyPrefix+"%").
		Find(&opts).Error
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(opts))
	for _, opt := range opts {
		ts, err := strconv.ParseInt(strings.TrimPrefix(opt.Name, backupKeyPrefix), 10, 64)
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{Key: opt.Name, CreatedAt: time.Unix(ts, 0)})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore replaces the live settings with the contents of a backup key.
func (s *Service) Restore(key string) error {
	if !strings.HasPrefix(key, backupKeyPrefix) {
		return ErrBackupNotFound
	}

	var opt models.OptionModel
	err := s.db.Where("name = ?", key).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBackupNotFound
	}
	if err != nil {
		return fmt.Errorf("load backup: %w", err)
	}

	values := map[string]interface{}{}
	if opt.Value != "" {
		if err := json.Unmarshal([]byte(opt.Value), &values); err != nil {
			return fmt.Errorf("decode backup: %w", err)
		}
	}
	return s.Replace(values)
}

// PruneBackups deletes all but the newest keep snapshots and returns how many
// rows were removed.
func (s *Service) PruneBackups(keep int) (int, error) {
	backups, err := s.ListBackups()
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, b := range backups[keep:] {
		if err := s.db.Where("name = ?", b.Key).Delete(&models.OptionModel{}).Error; err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}
