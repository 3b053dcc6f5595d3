package local

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/dmitrijs2005/poreview/internal/cryptox"
	"github.com/dmitrijs2005/poreview/internal/models"
	"github.com/google/uuid"
)

type storedUser struct {
	models.User
	Credential cryptox.Credential `json:"credential"`
}

type storedRecord struct {
	models.PoRecord
	FileData []byte `json:"file_data,omitempty"`
}

type Backend struct {
	db      *sql.DB
	kv      *KV
	session *SessionStorage

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

var _ backend.Backend = (*Backend)(nil)

func New(db *sql.DB, session *SessionStorage) *Backend {
	return &Backend{
		db:      db,
		kv:      NewKV(db),
		session: session,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Open opens the database at dsn and returns a backend with a fresh session.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db, NewSessionStorage()), nil
}

func (b *Backend) Mode() backend.Mode {
	return backend.ModeLocal
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) RestoreSession(ctx context.Context) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.session.Get()
	if id == "" {
		return nil, nil
	}
	users, err := loadList[storedUser](ctx, b.kv, keyUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			user := u.User
			return &user, nil
		}
	}
	// The marker outlived its user; treat as signed out.
	b.session.Clear()
	return nil, nil
}

func (b *Backend) SignUp(ctx context.Context, email, password, displayName string) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email = models.NormalizeEmail(email)
	if email == common.GuestEmail {
		return nil, fmt.Errorf("%w: %q is reserved", common.ErrValidation, email)
	}
	users, err := loadList[storedUser](ctx, b.kv, keyUsers)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(users, func(u storedUser) bool { return u.Email == email }) {
		return nil, common.ErrEmailTaken
	}

	u := storedUser{
		User: models.User{
			ID:          b.newID(),
			Email:       email,
			DisplayName: displayName,
			CreatedAt:   b.now(),
		},
		Credential: cryptox.NewCredential(password),
	}
	if err := storeList(ctx, b.kv, keyUsers, append(users, u)); err != nil {
		return nil, err
	}
	b.session.Set(u.ID)
	user := u.User
	return &user, nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email = models.NormalizeEmail(email)
	users, err := loadList[storedUser](ctx, b.kv, keyUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email && u.Credential.Matches(password) {
			b.session.Set(u.ID)
			user := u.User
			return &user, nil
		}
	}
	return nil, common.ErrAuth
}

// SignInGuest resolves the reserved guest identity, creating it on first use.
// The stored credential is reset to the reserved password every time.
func (b *Backend) SignInGuest(ctx context.Context) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := loadList[storedUser](ctx, b.kv, keyUsers)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(users, func(u storedUser) bool { return u.Email == common.GuestEmail })
	if i < 0 {
		users = append(users, storedUser{
			User: models.User{
				ID:          b.newID(),
				Email:       common.GuestEmail,
				DisplayName: common.GuestDisplayName,
				CreatedAt:   b.now(),
			},
		})
		i = len(users) - 1
	}
	users[i].Credential = cryptox.NewCredential(common.GuestPassword)

	if err := storeList(ctx, b.kv, keyUsers, users); err != nil {
		return nil, err
	}
	b.session.Set(users[i].ID)
	user := users[i].User
	return &user, nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	b.session.Clear()
	return nil
}

func (b *Backend) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email = models.NormalizeEmail(email)
	users, err := loadList[storedUser](ctx, b.kv, keyUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			user := u.User
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, common.ErrNotFound)
}

func (b *Backend) InsertRecord(ctx context.Context, rec *models.PoRecord) (*models.PoRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := loadList[storedRecord](ctx, b.kv, keyRecords)
	if err != nil {
		return nil, err
	}

	r := rec.Clone()
	r.ID = b.newID()
	r.CreatedAt = b.now()
	r.UpdatedAt = r.CreatedAt
	if r.Assignees == nil {
		r.Assignees = []string{}
	}
	r.LatestFile = ""

	if err := storeList(ctx, b.kv, keyRecords, append(records, storedRecord{PoRecord: *r})); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

func (b *Backend) GetRecord(ctx context.Context, id string) (*models.PoRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := loadList[storedRecord](ctx, b.kv, keyRecords)
	if err != nil {
		return nil, err
	}
	i := indexRecord(records, id)
	if i < 0 {
		return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	return records[i].PoRecord.Clone(), nil
}

func (b *Backend) UpdateRecord(ctx context.Context, rec *models.PoRecord) (*models.PoRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := loadList[storedRecord](ctx, b.kv, keyRecords)
	if err != nil {
		return nil, err
	}
	i := indexRecord(records, rec.ID)
	if i < 0 {
		return nil, fmt.Errorf("record %s: %w", rec.ID, common.ErrNotFound)
	}

	stored := &records[i].PoRecord
	stored.Status = rec.Status
	stored.Assignees = slices.Clone(rec.Assignees)
	if stored.Assignees == nil {
		stored.Assignees = []string{}
	}
	stored.UpdatedAt = b.now()

	if err := storeList(ctx, b.kv, keyRecords, records); err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

func (b *Backend) ListOwnedRecords(ctx context.Context, ownerID string) ([]*models.PoRecord, error) {
	return b.listRecords(ctx, func(r *models.PoRecord) bool {
		return r.OwnerID == ownerID
	})
}

func (b *Backend) ListAssignedRecords(ctx context.Context, userID string) ([]*models.PoRecord, error) {
	return b.listRecords(ctx, func(r *models.PoRecord) bool {
		return r.OwnerID != userID && r.HasAssignee(userID)
	})
}

func (b *Backend) listRecords(ctx context.Context, match func(*models.PoRecord) bool) ([]*models.PoRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := loadList[storedRecord](ctx, b.kv, keyRecords)
	if err != nil {
		return nil, err
	}

	out := make([]*models.PoRecord, 0)
	// Walk backwards so that equal timestamps keep the newest insert first.
	for i := len(records) - 1; i >= 0; i-- {
		if match(&records[i].PoRecord) {
			out = append(out, records[i].PoRecord.Clone())
		}
	}
	slices.SortStableFunc(out, func(x, y *models.PoRecord) int {
		return y.UpdatedAt.Compare(x.UpdatedAt)
	})
	return out, nil
}

func (b *Backend) InsertNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := loadList[models.Notification](ctx, b.kv, keyNotifications)
	if err != nil {
		return nil, err
	}

	stored := *n
	stored.ID = b.newID()
	stored.CreatedAt = b.now()
	stored.Read = false
	stored.Payload = slices.Clone(n.Payload)

	if err := storeList(ctx, b.kv, keyNotifications, append(list, stored)); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (b *Backend) ListNotifications(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := loadList[models.Notification](ctx, b.kv, keyNotifications)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Notification, 0)
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].RecipientID == recipientID {
			n := list[i]
			out = append(out, &n)
		}
	}
	slices.SortStableFunc(out, func(x, y *models.Notification) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	return out, nil
}

func (b *Backend) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := loadList[models.Notification](ctx, b.kv, keyNotifications)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(list, func(n models.Notification) bool {
		return n.ID == id && n.RecipientID == recipientID
	})
	if i < 0 || list[i].Read {
		return nil
	}
	list[i].Read = true
	return storeList(ctx, b.kv, keyNotifications, list)
}

func (b *Backend) PutFile(ctx context.Context, recordID, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := loadList[storedRecord](ctx, b.kv, keyRecords)
	if err != nil {
		return err
	}
	i := indexRecord(records, recordID)
	if i < 0 {
		return fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
	}
	records[i].LatestFile = name
	records[i].FileData = slices.Clone(data)
	return storeList(ctx, b.kv, keyRecords, records)
}

func (b *Backend) GetFile(ctx context.Context, recordID string) (*models.AttachedFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := loadList[storedRecord](ctx, b.kv, keyRecords)
	if err != nil {
		return nil, err
	}
	i := indexRecord(records, recordID)
	if i < 0 || records[i].LatestFile == "" {
		return nil, fmt.Errorf("file for record %s: %w", recordID, common.ErrNotFound)
	}
	return &models.AttachedFile{
		RecordID: recordID,
		Name:     records[i].LatestFile,
		Data:     records[i].FileData,
	}, nil
}

func indexRecord(records []storedRecord, id string) int {
	return slices.IndexFunc(records, func(r storedRecord) bool { return r.ID == id })
}
