package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/dmitrijs2005/poreview/internal/cryptox"
	"github.com/dmitrijs2005/poreview/internal/dbx"
	"github.com/dmitrijs2005/poreview/internal/models"
	"github.com/google/uuid"
)

const (
	authRole    = "po_authenticated"
	userSetting = "app.user_id"
)

// Config selects and configures the remote store.
//
// Endpoint is a Postgres DSN (pgx); Key signs session tokens. With Migrate
// set, Open applies the embedded schema before returning.
type Config struct {
	Endpoint   string
	Key        string
	SessionTTL time.Duration
	Migrate    bool

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// TokenStore persists the session token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

type Backend struct {
	db      *sql.DB
	key     []byte
	ttl     time.Duration
	tokens  TokenStore
	objects *ObjectStore
	newID   func() string
	now     func() time.Time

	mu     sync.Mutex
	token  string
	userID string

	subsMu  sync.Mutex
	subs    map[int]func(*models.User)
	nextSub int
}

var (
	_ backend.Backend      = (*Backend)(nil)
	_ backend.AuthNotifier = (*Backend)(nil)
)

func New(db *sql.DB, cfg Config, tokens TokenStore, objects *ObjectStore) *Backend {
	return &Backend{
		db:      db,
		key:     []byte(cfg.Key),
		ttl:     cfg.SessionTTL,
		tokens:  tokens,
		objects: objects,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
		subs:    make(map[int]func(*models.User)),
	}
}

// Open connects to the remote store and checks it is reachable. Every
// failure is reported as common.ErrBackendUnavailable.
func Open(ctx context.Context, cfg Config, tokens TokenStore) (*Backend, error) {
	if cfg.Endpoint == "" || cfg.Key == "" {
		return nil, fmt.Errorf("%w: endpoint and key are required", common.ErrBackendUnavailable)
	}

	db, err := sql.Open("pgx", cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrBackendUnavailable, err)
	}

	fail := func(stage string, err error) (*Backend, error) {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %w", common.ErrBackendUnavailable, stage, err)
	}

	if err := db.PingContext(ctx); err != nil {
		return fail("ping", err)
	}
	if cfg.Migrate {
		if err := RunMigrations(ctx, db); err != nil {
			return fail("migrate", err)
		}
	}
	objects, err := NewS3ObjectStore(ctx, cfg)
	if err != nil {
		return fail("storage", err)
	}

	return New(db, cfg, tokens, objects), nil
}

func (b *Backend) Mode() backend.Mode {
	return backend.ModeRemote
}

func (b *Backend) Close() error {
	return b.db.Close()
}

// SubscribeAuth registers fn for session changes the backend makes on its
// own, currently token expiry (fn receives nil).
func (b *Backend) SubscribeAuth(fn func(*models.User)) func() {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn

	return func() {
		b.subsMu.Lock()
		defer b.subsMu.Unlock()
		delete(b.subs, id)
	}
}

func (b *Backend) notify(u *models.User) {
	b.subsMu.Lock()
	fns := make([]func(*models.User), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subsMu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func (b *Backend) setSession(token, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token, b.userID = token, userID
}

func (b *Backend) startSession(ctx context.Context, userID string) error {
	token, err := GenerateToken(userID, b.key, b.ttl)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}
	if err := b.tokens.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	b.setSession(token, userID)
	return nil
}

// principal returns the user id of the current session. An expired session
// is ended and reported to subscribers.
func (b *Backend) principal(ctx context.Context) (string, error) {
	b.mu.Lock()
	token, userID := b.token, b.userID
	b.mu.Unlock()

	if token == "" {
		return "", common.ErrAuthRequired
	}
	if _, err := GetUserIDFromToken(token, b.key); err != nil {
		b.setSession("", "")
		_ = b.tokens.ClearToken(ctx)
		b.notify(nil)
		return "", fmt.Errorf("%w: session expired", common.ErrAuthRequired)
	}
	return userID, nil
}

func (b *Backend) withPolicy(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	userID, err := b.principal(ctx)
	if err != nil {
		return err
	}
	p := dbx.Policy{Role: authRole, Setting: userSetting, Value: userID}
	return mapError(dbx.WithPolicyTx(ctx, b.db, p, fn))
}

func (b *Backend) RestoreSession(ctx context.Context) (*models.User, error) {
	token, err := b.tokens.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	userID, err := GetUserIDFromToken(token, b.key)
	if err != nil {
		// Expired or signed with another key: there is no session to restore.
		_ = b.tokens.ClearToken(ctx)
		return nil, nil
	}
	b.setSession(token, userID)

	u, err := b.profileByID(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		b.setSession("", "")
		_ = b.tokens.ClearToken(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (b *Backend) SignUp(ctx context.Context, email, password, displayName string) (*models.User, error) {
	u := &models.User{Email: models.NormalizeEmail(email), DisplayName: displayName}
	cred := cryptox.NewCredential(password)

	err := dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO auth_users (email, salt, verifier)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			u.Email, cred.Salt, cred.Verifier).Scan(&u.ID, &u.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (id, email, display_name, created_at)
			 VALUES ($1, $2, $3, $4)`,
			u.ID, u.Email, u.DisplayName, u.CreatedAt)
		return err
	})
	if isUniqueViolation(err) {
		return nil, common.ErrEmailTaken
	}
	if err != nil {
		return nil, mapError(err)
	}

	if err := b.startSession(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	u := &models.User{}
	var cred cryptox.Credential

	err := b.db.QueryRowContext(ctx,
		`SELECT a.id, a.email, p.display_name, a.created_at, a.salt, a.verifier
		 FROM auth_users a JOIN profiles p ON p.id = a.id
		 WHERE a.email = $1`,
		models.NormalizeEmail(email)).Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt, &cred.Salt, &cred.Verifier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrAuth
	}
	if err != nil {
		return nil, mapError(err)
	}
	if !cred.Matches(password) {
		return nil, common.ErrAuth
	}

	if err := b.startSession(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	b.setSession("", "")
	if err := b.tokens.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

const profileColumns = `id, email, display_name, created_at`

func (b *Backend) profileByID(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	err := b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id).
			Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (b *Backend) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	u := &models.User{}
	err := b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email).
			Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt)
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("user %q: %w", email, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

const recordColumns = `id, owner_id, created_at, updated_at, status, title, po_number, summary, metadata, assignees, latest_file`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.PoRecord, error) {
	r := &models.PoRecord{}
	var status string
	var assignees []byte

	err := row.Scan(&r.ID, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt, &status,
		&r.Title, &r.PONumber, &r.Summary, &r.Metadata, &assignees, &r.LatestFile)
	if err != nil {
		return nil, err
	}
	r.Status = models.Status(status)

	r.Assignees = []string{}
	if len(assignees) > 0 {
		if err := json.Unmarshal(assignees, &r.Assignees); err != nil {
			return nil, fmt.Errorf("decode assignees: %w", err)
		}
	}
	return r, nil
}

func encodeAssignees(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode assignees: %w", err)
	}
	return string(raw), nil
}

func (b *Backend) InsertRecord(ctx context.Context, rec *models.PoRecord) (*models.PoRecord, error) {
	assignees, err := encodeAssignees(rec.Assignees)
	if err != nil {
		return nil, err
	}

	var out *models.PoRecord
	err = b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = scanRecord(tx.QueryRowContext(ctx,
			`INSERT INTO po_records (owner_id, status, title, po_number, summary, metadata, assignees)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
			 RETURNING `+recordColumns,
			rec.OwnerID, string(rec.Status), rec.Title, rec.PONumber, rec.Summary, rec.Metadata, assignees))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) GetRecord(ctx context.Context, id string) (*models.PoRecord, error) {
	var out *models.PoRecord
	err := b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = scanRecord(tx.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM po_records WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecord reports common.ErrPolicyDenied when the policies hide the row
// from the current identity.
func (b *Backend) UpdateRecord(ctx context.Context, rec *models.PoRecord) (*models.PoRecord, error) {
	assignees, err := encodeAssignees(rec.Assignees)
	if err != nil {
		return nil, err
	}

	var out *models.PoRecord
	err = b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = scanRecord(tx.QueryRowContext(ctx,
			`UPDATE po_records SET status = $2, assignees = $3::jsonb, updated_at = now()
			 WHERE id = $1
			 RETURNING `+recordColumns,
			rec.ID, string(rec.Status), assignees))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: record %s cannot be updated", common.ErrPolicyDenied, rec.ID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) ListOwnedRecords(ctx context.Context, ownerID string) ([]*models.PoRecord, error) {
	return b.listRecords(ctx,
		`SELECT `+recordColumns+` FROM po_records
		 WHERE owner_id = $1
		 ORDER BY updated_at DESC`, ownerID)
}

func (b *Backend) ListAssignedRecords(ctx context.Context, userID string) ([]*models.PoRecord, error) {
	return b.listRecords(ctx,
		`SELECT `+recordColumns+` FROM po_records
		 WHERE assignees @> jsonb_build_array($1::text) AND owner_id <> $1::uuid
		 ORDER BY updated_at DESC`, userID)
}

func (b *Backend) listRecords(ctx context.Context, query string, arg string) ([]*models.PoRecord, error) {
	out := make([]*models.PoRecord, 0)
	err := b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// InsertNotification assigns the id client side: the sender cannot read the
// row back through the policies.
func (b *Backend) InsertNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	out := *n
	out.ID = b.newID()
	out.CreatedAt = b.now()
	out.Read = false

	err := b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (id, recipient_id, sender_id, type, record_id, created_at, payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
			out.ID, out.RecipientID, out.SenderID, string(out.Type), out.RecordID, out.CreatedAt, nullableJSON(out.Payload))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) ListNotifications(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	out := make([]*models.Notification, 0)
	err := b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, recipient_id, sender_id, type, record_id, created_at, read, payload
			 FROM notifications
			 WHERE recipient_id = $1
			 ORDER BY created_at DESC`, recipientID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			n := &models.Notification{}
			var typ string
			var payload []byte
			if err := rows.Scan(&n.ID, &n.RecipientID, &n.SenderID, &typ, &n.RecordID, &n.CreatedAt, &n.Read, &payload); err != nil {
				return err
			}
			n.Type = models.NotificationType(typ)
			if len(payload) > 0 {
				n.Payload = json.RawMessage(payload)
			}
			out = append(out, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead relies on the policies to hide foreign rows; an
// update that matches nothing is not an error.
func (b *Backend) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	return b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE notifications SET read = true WHERE id = $1 AND recipient_id = $2`, id, recipientID)
		return err
	})
}

// PutFile records name as the latest file and uploads data in the same
// transaction; a failed upload leaves the previous file current.
func (b *Backend) PutFile(ctx context.Context, recordID, name string, data []byte) error {
	return b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE po_records SET latest_file = $2 WHERE id = $1`, recordID, name)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("record %s: %w", recordID, common.ErrNotFound)
		}
		return b.objects.Put(ctx, recordID, name, data)
	})
}

func (b *Backend) GetFile(ctx context.Context, recordID string) (*models.AttachedFile, error) {
	var name string
	err := b.withPolicy(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT latest_file FROM po_records WHERE id = $1`, recordID).Scan(&name)
	})
	if err == nil && name == "" {
		err = common.ErrNotFound
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("file for record %s: %w", recordID, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	data, err := b.objects.Get(ctx, recordID, name)
	if err != nil {
		return nil, err
	}
	return &models.AttachedFile{RecordID: recordID, Name: name, Data: data}, nil
}
