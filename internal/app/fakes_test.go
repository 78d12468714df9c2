package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"docvault/internal/model"
)

type fakeAccountStore struct {
	mu     sync.Mutex
	nextID uint
	byName map[string]*model.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{byName: make(map[string]*model.Account)}
}

func (f *fakeAccountStore) Create(account *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	account.ID = f.nextID
	clone := *account
	f.byName[account.Username] = &clone
	return nil
}

func (f *fakeAccountStore) GetByUsername(username string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.byName[username]; ok {
		clone := *acc
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeAccountStore) GetByEmail(email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.byName {
		if acc.Email == email {
			clone := *acc
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountStore) GetByID(id uint) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.byName {
		if acc.ID == id {
			clone := *acc
			return &clone, nil
		}
	}
	return nil, nil
}

type fakeSessionStore struct {
	mu      sync.Mutex
	byToken map[string]*model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{byToken: make(map[string]*model.Session)}
}

func (f *fakeSessionStore) Create(session *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *session
	f.byToken[session.Token] = &clone
	return nil
}

func (f *fakeSessionStore) GetByToken(token string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byToken[token]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeSessionStore) DeleteByToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, token)
	return nil
}

type fakeDocumentStore struct {
	mu        sync.Mutex
	docs      map[string]*model.Document
	failNext  bool
	createErr error
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[string]*model.Document)}
}

func (f *fakeDocumentStore) Create(doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		if f.createErr != nil {
			return f.createErr
		}
		return errors.New("document store down")
	}
	clone := *doc
	f.docs[doc.ID] = &clone
	return nil
}

func (f *fakeDocumentStore) ListByAccountID(accountID uint) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	for _, doc := range f.docs {
		if doc.AccountID == accountID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentStore) GetByID(id string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		clone := *doc
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeDocumentStore) DeleteByIDAndAccountID(id string, accountID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok && doc.AccountID == accountID {
		delete(f.docs, id)
	}
	return nil
}

// fakeEmbedder projects text onto a small fixed vocabulary so similarity
// is fully predictable: texts sharing vocabulary words score high.
type fakeEmbedder struct {
	vocab []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vocab: []string{"sales", "q1", "weather", "march", "contract", "renewal"}}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(f.vocab))
	for i, word := range f.vocab {
		vec[i] = float32(strings.Count(lower, word))
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding provider down")
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding provider down")
}

type recordingPublisher struct {
	mu    sync.Mutex
	tasks []model.CleanupTask
}

func (p *recordingPublisher) Publish(_ context.Context, task model.CleanupTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *recordingPublisher) published() []model.CleanupTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CleanupTask(nil), p.tasks...)
}
