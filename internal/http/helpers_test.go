package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/IngKendrys/scrap-backend/internal/blob"
	"github.com/IngKendrys/scrap-backend/internal/config"
	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/http/handlers"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/repos"
)

const testPassword = "secreto123"

type testApp struct {
	app        *fiber.App
	cfg        config.Config
	deps       *handlers.Deps
	adminToken string
}

// newTestApp builds the full app over an in-memory database with an admin
// already logged in. mutate may adjust the config before wiring.
func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDriver:        repos.DriverSQLite,
		DBDSN:           ":memory:",
		MediaDir:        t.TempDir(),
		MediaBaseURL:    "/media/",
		TokenBackend:    config.TokenBackendSQL,
		MaxBodyBytes:    1 << 20,
		LoginRateMax:    100,
		LoginRateWindow: time.Minute,
		BcryptCost:      bcrypt.MinCost,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, cfg, repos.NewTokenRepo(db), blob.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL))
	ta := &testApp{app: handlers.NewApp(cfg, deps), cfg: cfg, deps: deps}

	_, err = deps.AuthService.CreateSuperuser(context.Background(), domain.Registration{
		BusinessName: "Admin", Email: "admin@scrap.test", Password: testPassword, Phone: "0000000000", Address: "-",
	})
	require.NoError(t, err)
	ta.adminToken = ta.login(t, "admin@scrap.test", testPassword)
	return ta
}

// do sends a JSON request and returns the response with its body read.
func (ta *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			r = strings.NewReader(raw)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			r = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Token "+token)
	}
	return ta.send(t, req)
}

func (ta *testApp) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp, readAll(t, resp)
}

func (ta *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	resp, body := ta.do(t, http.MethodPost, "/api/usuarios/login/", "", map[string]string{"correo": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Token string `json:"token"`
	}
	decode(t, body, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

// business registers a business through the admin and logs it in.
func (ta *testApp) business(t *testing.T, name, email, phone string) (int64, string) {
	t.Helper()
	resp, body := ta.do(t, http.MethodPost, "/api/usuarios/registro/", ta.adminToken, map[string]string{
		"nombre_negocio": name,
		"correo":         email,
		"password":       testPassword,
		"telefono":       phone,
		"direccion":      "Calle 1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct {
		User domain.User `json:"user"`
	}
	decode(t, body, &out)
	return out.User.ID, ta.login(t, email, testPassword)
}

func (ta *testApp) category(t *testing.T, name string) int64 {
	t.Helper()
	resp, body := ta.do(t, http.MethodPost, "/api/productos/categorias/", ta.adminToken, map[string]string{"nombre": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var c domain.Category
	decode(t, body, &c)
	return c.ID
}

func (ta *testApp) product(t *testing.T, token string, in map[string]any) productView {
	t.Helper()
	resp, body := ta.do(t, http.MethodPost, "/api/productos/crear/", token, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p productView
	decode(t, body, &p)
	return p
}

// productView mirrors the wire shape with the price kept as text.
type productView struct {
	ID         int64      `json:"id_producto"`
	Name       string     `json:"nombre"`
	Price      string     `json:"precio"`
	Quantity   int        `json:"cantidad"`
	Condition  string     `json:"estado"`
	Sold       bool       `json:"vendido"`
	SoldAt     *time.Time `json:"fecha_vendido"`
	OwnerID    int64      `json:"id_negocio"`
	CategoryID int64      `json:"id_categoria"`
	Images     []struct {
		ID  int64  `json:"id_imagen"`
		URL string `json:"imagen_url"`
	} `json:"imagenes"`
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

type logEntry struct {
	Level  string `json:"level"`
	Msg    string `json:"msg"`
	Kind   string `json:"kind"`
	Action string `json:"action"`
	UserID *int64 `json:"user_id"`
	Status int    `json:"status"`
	Error  string `json:"error"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// captureLogs swaps the app logger output for the duration of fn and
// returns every JSON entry written.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	prev := applog.L.Out
	applog.SetOutput(w)
	defer applog.SetOutput(prev)

	fn()

	w.mu.Lock()
	defer w.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}
