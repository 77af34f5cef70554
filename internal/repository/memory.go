package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/results-app/internal/models"
	appErrors "github.com/noah-isme/results-app/pkg/errors"
)

// MemoryStore keeps every dev server table in process. It backs the memory
// driver and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	configs  map[string]models.StoredCrawlerConfig
	classes  map[string]models.StoredCrawlerClass
	results  map[string]models.StoredResults
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: map[string]models.Account{},
		configs:  map[string]models.StoredCrawlerConfig{},
		classes:  map[string]models.StoredCrawlerClass{},
		results:  map[string]models.StoredResults{},
	}
}

// Accounts exposes the account table.
func (s *MemoryStore) Accounts() *MemoryAccounts { return &MemoryAccounts{s} }

// Crawler exposes the crawler tables.
func (s *MemoryStore) Crawler() *MemoryCrawler { return &MemoryCrawler{s} }

// Results exposes the results table.
func (s *MemoryStore) Results() *MemoryResults { return &MemoryResults{s} }

// MemoryAccounts mirrors AccountRepository.
type MemoryAccounts struct{ s *MemoryStore }

func (m *MemoryAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, account := range m.s.accounts {
		if strings.EqualFold(account.Email, email) {
			out := account
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemoryAccounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	account, ok := m.s.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &account, nil
}

func (m *MemoryAccounts) Create(ctx context.Context, account *models.Account) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
	}
	m.s.accounts[account.ID] = *account
	return nil
}

// MemoryCrawler mirrors CrawlerRepository.
type MemoryCrawler struct{ s *MemoryStore }

func (m *MemoryCrawler) GetConfig(ctx context.Context, userID string) (*models.StoredCrawlerConfig, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	cfg, ok := m.s.configs[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &cfg, nil
}

func (m *MemoryCrawler) SaveConfig(ctx context.Context, cfg *models.StoredCrawlerConfig) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.configs[cfg.UserID] = *cfg
	return nil
}

func (m *MemoryCrawler) ListClasses(ctx context.Context, userID string) ([]models.StoredCrawlerClass, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []models.StoredCrawlerClass{}
	for _, class := range m.s.classes {
		if class.UserID == userID {
			out = append(out, class)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryCrawler) CreateClass(ctx context.Context, class *models.StoredCrawlerClass) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.classes[class.ID] = *class
	return nil
}

func (m *MemoryCrawler) UpdateClass(ctx context.Context, class *models.StoredCrawlerClass) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.classes[class.ID]
	if !ok || existing.UserID != class.UserID {
		return sql.ErrNoRows
	}
	existing.Name, existing.Group, existing.Year = class.Name, class.Group, class.Year
	m.s.classes[class.ID] = existing
	return nil
}

func (m *MemoryCrawler) DeleteClass(ctx context.Context, userID, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.classes[id]
	if !ok || existing.UserID != userID {
		return sql.ErrNoRows
	}
	delete(m.s.classes, id)
	return nil
}

// MemoryResults mirrors ResultsRepository.
type MemoryResults struct{ s *MemoryStore }

func (m *MemoryResults) Get(ctx context.Context, userID string) (*models.StoredResults, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	stored, ok := m.s.results[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	stored.Classes = append([]models.ClassResult(nil), stored.Classes...)
	return &stored, nil
}

func (m *MemoryResults) Save(ctx context.Context, stored *models.StoredResults) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	copied := *stored
	copied.Classes = append([]models.ClassResult{}, stored.Classes...)
	m.s.results[stored.UserID] = copied
	return nil
}
