package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
)

type ping struct{}

// captureUser is a terminal handler that reports who the interceptor chain
// decided the caller was.
func captureUser(seen *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*seen = GetUserID(ctx)
		return connect.NewResponse(&ping{}), nil
	}
}

func requestWithAuth(header string) *connect.Request[ping] {
	req := connect.NewRequest(&ping{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u-1", Email: "alice@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantUser string
		wantErr  bool
	}{
		{name: "valid token", header: "Bearer " + token, wantUser: "u-1"},
		{name: "lowercase scheme", header: "bearer " + token, wantUser: "u-1"},
		{name: "missing header", wantErr: true},
		{name: "wrong scheme", header: "Basic " + token, wantErr: true},
		{name: "garbage token", header: "Bearer not-a-jwt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequireAuth(jwtManager)(captureUser(&seen))

			_, err := handler(context.Background(), requestWithAuth(tt.header))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
				assert.Empty(t, seen)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, seen)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u-2", Email: "bob@example.com"})
	require.NoError(t, err)

	var seen string
	handler := OptionalAuth(jwtManager)(captureUser(&seen))

	_, err = handler(context.Background(), requestWithAuth("Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, "u-2", seen)

	_, err = handler(context.Background(), requestWithAuth("Bearer expired-or-bad"))
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestWithUser(t *testing.T) {
	ctx := WithUser(context.Background(), "u-3", "cleo@example.com")
	assert.Equal(t, "u-3", GetUserID(ctx))
	assert.Equal(t, "cleo@example.com", GetEmail(ctx))
	assert.Empty(t, GetUserID(context.Background()))
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	failing := func(code connect.Code) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, connect.NewError(code, errors.New("boom"))
		}
	}

	_, err := LoggingInterceptor(logger)(failing(connect.CodeNotFound))(context.Background(), requestWithAuth(""))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "code=not_found")

	buf.Reset()
	_, err = LoggingInterceptor(logger)(failing(connect.CodeInternal))(context.Background(), requestWithAuth(""))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	var seen string
	ctx := WithUser(context.Background(), "u-4", "")
	_, err = LoggingInterceptor(logger)(captureUser(&seen))(ctx, requestWithAuth(""))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "RPC ok")
	assert.Contains(t, buf.String(), "user_id=u-4")
}

func TestLoggingInterceptor_WrapsAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u-42", Email: "dev@example.com"})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tests := []struct {
		name     string
		auth     connect.UnaryInterceptorFunc
		header   string
		wantLine string
	}{
		{name: "required auth", auth: RequireAuth(jwtManager), header: "Bearer " + token, wantLine: "user_id=u-42"},
		{name: "optional auth", auth: OptionalAuth(jwtManager), header: "Bearer " + token, wantLine: "user_id=u-42"},
		{name: "anonymous optional auth", auth: OptionalAuth(jwtManager), wantLine: `user_id=""`},
		{name: "rejected auth is still logged", auth: RequireAuth(jwtManager), header: "Bearer nope", wantLine: "code=unauthenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			var seen string
			// Same order as the server: logging outside, auth inside.
			handler := LoggingInterceptor(logger)(tt.auth(captureUser(&seen)))
			_, _ = handler(context.Background(), requestWithAuth(tt.header))
			assert.Contains(t, buf.String(), tt.wantLine)
		})
	}
}

func TestMetricsInterceptor(t *testing.T) {
	// connect.NewRequest leaves the procedure empty.
	okBefore := testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("", "ok"))
	errBefore := testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("", "invalid_argument"))

	var seen string
	_, err := MetricsInterceptor()(captureUser(&seen))(context.Background(), requestWithAuth(""))
	require.NoError(t, err)

	failing := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("bad"))
	}
	_, err = MetricsInterceptor()(failing)(context.Background(), requestWithAuth(""))
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(metrics.RPCRequests.WithLabelValues("", "invalid_argument")))
}

func TestCORS(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/settleup.v1.GroupService/GetGroup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called, "preflight should not reach the handler")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/settleup.v1.GroupService/GetGroup", nil))
	assert.True(t, called)
}
