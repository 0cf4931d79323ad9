package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type passthroughTx struct{ calls int }

func (p *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account
	debitErr error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: map[string]*entity.Account{}}
}

func (m *memAccounts) GetOrCreate(_ context.Context, email string, signupCredits int) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		a = &entity.Account{Email: email, Credits: signupCredits, Plan: entity.PlanFree}
		m.accounts[email] = a
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return nil, entity.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Debit(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debitErr != nil {
		return m.debitErr
	}
	a, ok := m.accounts[email]
	if !ok || a.Credits <= 0 {
		return entity.ErrInsufficientCredits
	}
	a.Credits--
	return nil
}

func (m *memAccounts) AddCredits(_ context.Context, email string, n int, plan string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return entity.ErrAccountNotFound
	}
	a.Credits += n
	if plan != "" {
		a.Plan = plan
	}
	return nil
}

func (m *memAccounts) credits(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[email]; ok {
		return a.Credits
	}
	return -1
}

type memGenerations struct {
	mu   sync.Mutex
	gens map[string]*entity.Generation
}

func newMemGenerations() *memGenerations {
	return &memGenerations{gens: map[string]*entity.Generation{}}
}

func (m *memGenerations) Create(_ context.Context, gen *entity.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *gen
	m.gens[gen.ID] = &cp
	return nil
}

func (m *memGenerations) GetByID(_ context.Context, id string) (*entity.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gens[id]
	if !ok {
		return nil, entity.ErrGenerationNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGenerations) ListByEmail(_ context.Context, email string, limit, offset int) ([]*entity.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Generation
	for _, g := range m.gens {
		if g.Email == email {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memGenerations) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gens[id]
	if !ok {
		return entity.ErrGenerationNotFound
	}
	g.Status = status
	return nil
}

type memEvents struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memEvents) Record(_ context.Context, e *entity.PaymentEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[e.EventID] {
		return false, nil
	}
	m.seen[e.EventID] = true
	return true, nil
}

type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) Save(_ context.Context, path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.files[path] = append([]byte(nil), content...)
	return nil
}

func (m *memStorage) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return b, nil
}

func (m *memStorage) Exists(_ context.Context, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *memStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

type stubExtractor struct {
	data  *entity.InvoiceDocumentRequest
	err   error
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, jobDetails string) (*entity.InvoiceDocumentRequest, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	b, _ := io.ReadAll(audio)
	args := m.Called(ctx, filename, b)
	return args.String(0), args.Error(1)
}

var errDisk = errors.New("disk full")
