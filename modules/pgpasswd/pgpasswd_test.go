package pgpasswd

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/factor"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/MrEthical07/mfabridge/password"
)

type userRow struct {
	hash   string
	roles  []string
	active bool
}

type fakeRow struct {
	row *userRow
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.row == nil {
		return pgx.ErrNoRows
	}
	*dest[0].(*string) = r.row.hash
	*dest[1].(*[]string) = r.row.roles
	*dest[2].(*bool) = r.row.active
	return nil
}

type fakeDB struct {
	users   map[string]userRow
	err     error
	lastSQL string
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.lastSQL = sql
	if db.err != nil {
		return fakeRow{err: db.err}
	}
	u, ok := db.users[args[0].(string)]
	if !ok {
		return fakeRow{}
	}
	return fakeRow{row: &u}
}

func testHasher(t *testing.T) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func login(m module.Module, username, secret string) (module.PrincipalSet, error) {
	return m.Login(context.Background(), callback.NewBridge(username, factor.NewSecretList([]byte(secret))))
}

func newFixture(t *testing.T) (*Module, *fakeDB) {
	t.Helper()
	h := testHasher(t)
	hash, err := h.Hash([]byte("s3cr3t"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	db := &fakeDB{users: map[string]userRow{
		"alice": {hash: hash, roles: []string{"ops"}, active: true},
		"dave":  {hash: hash, active: false},
	}}
	m, err := New(db, h, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, db
}

func TestPGLogin(t *testing.T) {
	m, db := newFixture(t)
	ps, err := login(m, "alice", "s3cr3t")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := ps.Names(module.PrincipalRole); len(got) != 1 || got[0] != "ops" {
		t.Fatalf("unexpected roles %v", got)
	}
	if db.lastSQL != DefaultQuery {
		t.Fatalf("unexpected query %q", db.lastSQL)
	}
}

func TestPGRejections(t *testing.T) {
	m, _ := newFixture(t)
	if _, err := login(m, "alice", "nope"); !errors.Is(err, module.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := login(m, "nobody", "s3cr3t"); !errors.Is(err, module.ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
	if _, err := login(m, "dave", "s3cr3t"); !errors.Is(err, module.ErrAccountExpired) {
		t.Fatalf("inactive user: got %v", err)
	}
}

func TestPGDatabaseErrorIsSystemError(t *testing.T) {
	m, db := newFixture(t)
	db.err = errors.New("connection refused")
	_, err := login(m, "alice", "s3cr3t")
	if err == nil || errors.Is(err, module.ErrLoginFailed) {
		t.Fatalf("expected system error, got %v", err)
	}
}

func TestPGFactoryCustomQuery(t *testing.T) {
	_, db := newFixture(t)
	f := Factory(db, testHasher(t))
	mod, err := f(map[string]any{"query": "SELECT h, r, a FROM u WHERE n = $1"})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	_, _ = login(mod, "alice", "s3cr3t")
	if db.lastSQL != "SELECT h, r, a FROM u WHERE n = $1" {
		t.Fatalf("custom query not used: %q", db.lastSQL)
	}
	if _, err := Factory(nil, testHasher(t))(nil); err == nil {
		t.Fatal("expected nil database error")
	}
}
