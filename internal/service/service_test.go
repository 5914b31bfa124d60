package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/assist"
	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/cache"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// testEnv is a full server over a temp database and an in-memory Redis.
type testEnv struct {
	store    *sqlite.SQLiteStore
	redis    *miniredis.Miniredis
	auth     apiconnect.AuthServiceClient
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
	assists  apiconnect.AssistServiceClient

	// clockSkew shifts the assist service's clock, in nanoseconds.
	clockSkew *atomic.Int64
}

// account is a registered user and their bearer token.
type account struct {
	ID    string
	Token string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	categorizer := assist.NewKeywordCategorizer()
	ledger := NewLedger(store, cache.NewRedisCache(rdb, time.Minute), logger)
	assistSvc := NewAssistService(store, ledger, categorizer, logger)
	skew := new(atomic.Int64)
	assistSvc.now = func() time.Time { return time.Now().Add(time.Duration(skew.Load())) }

	authOpt := connect.WithInterceptors(middleware.RequireAuth(jwtManager))
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(
		NewAuthService(authenticator, jwtManager, store, logger),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)),
	))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store, ledger, logger), authOpt))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, ledger, categorizer, logger), authOpt))
	mux.Handle(apiconnect.NewAssistServiceHandler(assistSvc, authOpt))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:     store,
		redis:     mr,
		auth:      apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:    apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses:  apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		assists:   apiconnect.NewAssistServiceClient(http.DefaultClient, server.URL),
		clockSkew: skew,
	}
}

// register creates an account named name with email <name>@example.com.
func (e *testEnv) register(t *testing.T, name string) account {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "correct horse",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return account{ID: resp.Msg.User.ID, Token: resp.Msg.Token}
}

// createGroup creates a group owned by owner with the other members.
func (e *testEnv) createGroup(t *testing.T, owner account, others ...account) string {
	t.Helper()
	ids := make([]string, len(others))
	for i, o := range others {
		ids[i] = o.ID
	}
	resp, err := e.groups.CreateGroup(context.Background(), as(owner, &api.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: ids,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group.ID
}

// as builds a request authenticated as a.
func as[T any](a account, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+a.Token)
	return req
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}
