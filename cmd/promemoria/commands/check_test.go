package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notexe/promemoria-bot/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.TokenEnv, "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Storage.Dir = t.TempDir()
	return cfg
}

func TestRunCheck_MissingToken(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := runCheck(context.Background(), &out, cfg, true)
	require.Error(t, err)
	assert.Contains(t, out.String(), "TELEGRAM_BOT_TOKEN: NOT SET")
	assert.Contains(t, out.String(), "✓ config: valid")
}

func TestRunCheck_CallsGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123456:ABCDEFGHIJKLMNOP/getMe", r.URL.Path)
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"P","username":"promemoria_bot"}}`)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Telegram.BotToken = "123456:ABCDEFGHIJKLMNOP"
	cfg.Telegram.APIURL = srv.URL
	var out bytes.Buffer

	require.NoError(t, runCheck(context.Background(), &out, cfg, false))
	assert.Contains(t, out.String(), "@promemoria_bot (id 99)")
	assert.Contains(t, out.String(), "123456:ABC...MNOP")
	assert.NotContains(t, out.String(), cfg.Telegram.BotToken)
}

func TestRunCheck_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "redis"
	cfg.Telegram.BotToken = "x"
	var out bytes.Buffer

	require.Error(t, runCheck(context.Background(), &out, cfg, true))
	assert.Contains(t, out.String(), "❌ config")
}

func TestOpenStore_Backends(t *testing.T) {
	ctx := context.Background()

	t.Run("json", func(t *testing.T) {
		cfg := testConfig(t)
		store, closeFn, err := openStore(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer func() { _ = closeFn() }()
		assert.Equal(t, 0, store.PendingReminders())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Backend = config.BackendSQLite
		cfg.Storage.SQLitePath = t.TempDir() + "/nested/promemoria.db"
		store, closeFn, err := openStore(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer func() { _ = closeFn() }()
		assert.Equal(t, 0, store.PendingReminders())
	})
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "1234567890...WXYZ", maskToken("1234567890abcdefWXYZ"))
}
