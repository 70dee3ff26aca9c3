package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/medialog/internal/client/client"
	"github.com/dmitrijs2005/medialog/internal/models"
)

// fakeClient is an in-memory client.Client. Err fields make the matching
// calls fail; failCreates fails that many CreateEntry calls before
// succeeding. onCreate runs at the start of every CreateEntry.
type fakeClient struct {
	mu      sync.Mutex
	entries []models.Entry
	nextID  models.ID
	admin   bool
	token   string

	Err         error
	ListErr     error
	WriteErr    error
	failCreates int
	onCreate    func()

	creates, updates, deletes, verifies int
}

var _ client.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{nextID: 1000, admin: true, token: "tok"}
}

func (f *fakeClient) Ping(context.Context) error { return f.Err }

func (f *fakeClient) GetEntries(_ context.Context, filters models.Filters) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return models.FilterEntries(f.entries, filters), nil
}

func (f *fakeClient) GetStats(context.Context) (*models.Stats, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	s := models.Stats{Total: 99, ByType: map[string]int{}}
	return &s, nil
}

func (f *fakeClient) GetDates(context.Context) ([]models.DateCount, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return []models.DateCount{{Date: "remote", Count: 1}}, nil
}

func (f *fakeClient) Login(_ context.Context, password string) (*models.Session, error) {
	if password != "play123" {
		return nil, &client.APIError{StatusCode: 401, Message: "Invalid password"}
	}
	f.admin, f.token = true, "tok"
	return &models.Session{Token: f.token}, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.admin, f.token = false, ""
	return nil
}

func (f *fakeClient) VerifySession(context.Context) (bool, error) {
	f.verifies++
	f.admin = f.token != ""
	return f.admin, nil
}

func (f *fakeClient) IsAdmin() bool  { return f.admin }
func (f *fakeClient) HasToken() bool { return f.token != "" }

func (f *fakeClient) writeErr() error {
	if f.Err != nil {
		return f.Err
	}
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if !f.admin {
		return client.ErrAdminRequired
	}
	return nil
}

func (f *fakeClient) CreateEntry(_ context.Context, e models.Entry) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onCreate != nil {
		f.onCreate()
	}
	if err := f.writeErr(); err != nil {
		return nil, err
	}
	if f.failCreates > 0 {
		f.failCreates--
		return nil, client.ErrUnavailable
	}
	f.creates++
	e.ID = f.nextID
	f.nextID++
	f.entries = append(f.entries, e)
	return &e, nil
}

func (f *fakeClient) find(id models.ID) int {
	for i := range f.entries {
		if f.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeClient) UpdateEntry(_ context.Context, id models.ID, e models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeErr(); err != nil {
		return err
	}
	i := f.find(id)
	if i < 0 {
		return &client.APIError{StatusCode: 404, Message: "Entry not found"}
	}
	f.updates++
	e.ID = id
	f.entries[i] = e
	return nil
}

func (f *fakeClient) DeleteEntry(_ context.Context, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeErr(); err != nil {
		return err
	}
	i := f.find(id)
	if i < 0 {
		return &client.APIError{StatusCode: 404, Message: "Entry not found"}
	}
	f.deletes++
	f.entries = append(f.entries[:i], f.entries[i+1:]...)
	return nil
}

func (f *fakeClient) ImportEntries(_ context.Context, list []models.Entry) (int, error) {
	if err := f.writeErr(); err != nil {
		return 0, err
	}
	for _, e := range list {
		if _, err := f.CreateEntry(context.Background(), e); err != nil {
			return 0, err
		}
	}
	return len(list), nil
}

func (f *fakeClient) ExportEntries(context.Context) ([]models.Entry, error) {
	if err := f.writeErr(); err != nil {
		return nil, err
	}
	return append([]models.Entry(nil), f.entries...), nil
}

func (f *fakeClient) ClearAll(context.Context) (int64, error) {
	if err := f.writeErr(); err != nil {
		return 0, err
	}
	n := int64(len(f.entries))
	f.entries = nil
	return n, nil
}

func (f *fakeClient) GetSettings(context.Context) (*models.Settings, error) {
	if err := f.writeErr(); err != nil {
		return nil, err
	}
	return &models.Settings{AutoSync: true}, nil
}

func (f *fakeClient) UpdateSettings(context.Context, bool) error {
	return f.writeErr()
}

func (f *fakeClient) has(id models.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.find(id) >= 0
}

