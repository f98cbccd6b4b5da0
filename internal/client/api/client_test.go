package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meucrm/crmdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory SessionStore.
type memStore struct {
	sess    models.Session
	ok      bool
	loadErr error
	saveErr error
	saves   int
	clears  int
}

func (m *memStore) Load() (models.Session, bool, error) {
	return m.sess, m.ok, m.loadErr
}

func (m *memStore) Save(token string, user models.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.sess = models.Session{Token: token, User: &user}
	m.ok = true
	return nil
}

func (m *memStore) Clear() error {
	m.clears++
	m.sess = models.Session{}
	m.ok = false
	return nil
}

func loggedIn(token string) *memStore {
	return &memStore{sess: models.Session{Token: token, User: &models.User{ID: "u1", Name: "A"}}, ok: true}
}

func newTestServer(t *testing.T, r chi.Router) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRequest_AttachesBearerWhenSessionExists(t *testing.T) {
	var gotAuth, gotType string
	r := chi.NewRouter()
	r.Get("/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		writeJSON(w, http.StatusOK, models.DashboardStats{TotalClientes: 3})
	})
	srv := newTestServer(t, r)

	c := New(srv.URL, loggedIn("t1"))
	stats, err := c.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer t1", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, int64(3), stats.TotalClientes)
}

func TestRequest_NoAuthorizationWithoutSession(t *testing.T) {
	var hadAuth bool
	r := chi.NewRouter()
	r.Get("/clientes", func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		writeJSON(w, http.StatusOK, []models.Customer{})
	})
	srv := newTestServer(t, r)

	c := New(srv.URL, &memStore{})
	_, err := c.ListCustomers(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestRequest_CallerHeadersMergeButCannotReplaceAuthorization(t *testing.T) {
	var got http.Header
	r := chi.NewRouter()
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	})
	srv := newTestServer(t, r)

	c := New(srv.URL, loggedIn("t1"))
	err := c.Request(context.Background(), "/ping", RequestOptions{Header: http.Header{
		"X-Trace":       {"abc"},
		"Content-Type":  {"application/vnd.crm+json"},
		"Authorization": {"Basic Zm9v"},
	}}, nil)
	require.NoError(t, err)

	assert.Equal(t, "abc", got.Get("X-Trace"))
	assert.Equal(t, "application/vnd.crm+json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer t1", got.Get("Authorization"))
}

func TestRequest_CallerAuthorizationDroppedWithoutSession(t *testing.T) {
	var hadAuth bool
	r := chi.NewRouter()
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	})
	srv := newTestServer(t, r)

	c := New(srv.URL, &memStore{})
	err := c.Request(context.Background(), "/ping", RequestOptions{Header: http.Header{
		"Authorization": {"Bearer forged"},
	}}, nil)
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestRequest_UnauthorizedClearsSessionAndNotifies(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/clientes", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	})
	srv := newTestServer(t, r)

	store := loggedIn("t1")
	c := New(srv.URL, store)
	var reasons []error
	c.OnSessionInvalidated(func(reason error) { reasons = append(reasons, reason) })

	_, err := c.ListCustomers(context.Background(), nil)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, authErr.SessionDropped)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "session expired, please log in again", err.Error())

	assert.False(t, c.HasSession())
	assert.Equal(t, 1, store.clears)
	_, ok, _ := store.Load()
	assert.False(t, ok)
	require.Len(t, reasons, 1)
	assert.ErrorIs(t, reasons[0], ErrUnauthenticated)
}

func TestRequest_HTTPError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/clientes/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "customer not found", http.StatusNotFound)
	})
	srv := newTestServer(t, r)

	c := New(srv.URL, loggedIn("t1"))
	_, err := c.GetCustomer(context.Background(), "42")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Not Found", httpErr.StatusText)
	assert.Equal(t, "customer not found", httpErr.Body)
	assert.Equal(t, "error 404: Not Found", err.Error())
	assert.True(t, c.HasSession(), "non-401 errors keep the session")
}

func TestRequest_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base, loggedIn("t1"), WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := c.DashboardStats(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.MethodGet, netErr.Method)
	assert.Equal(t, "/dashboard/stats", netErr.Endpoint)
	assert.True(t, c.HasSession())
}

func TestRequest_ContextCanceledIsNetworkError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.DashboardStats{})
	})
	srv := newTestServer(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, loggedIn("t1"))
	_, err := c.DashboardStats(ctx)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequest_DecodeError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/clientes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	})
	r.Get("/empty", func(w http.ResponseWriter, r *http.Request) {})
	r.Delete("/clientes/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not-json")
	})
	srv := newTestServer(t, r)
	c := New(srv.URL, loggedIn("t1"))

	_, err := c.ListCustomers(context.Background(), nil)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "/clientes", decErr.Endpoint)

	var out map[string]any
	err = c.Request(context.Background(), "/empty", RequestOptions{}, &out)
	require.ErrorAs(t, err, &decErr)

	err = c.DeleteCustomer(context.Background(), "1")
	require.ErrorAs(t, err, &decErr)
}

func TestLogin_PersistsTokenAndUser(t *testing.T) {
	var creds models.Credentials
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&creds)
		writeJSON(w, http.StatusOK, models.LoginResponse{Token: "t1", User: models.User{Name: "A"}})
	})
	srv := newTestServer(t, r)

	store := &memStore{}
	c := New(srv.URL, store)
	resp, err := c.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	assert.Equal(t, models.Credentials{Email: "a@b.com", Password: "x"}, creds)
	assert.Equal(t, "t1", resp.Token)
	assert.Equal(t, "t1", c.Token())
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "t1", store.sess.Token)
	assert.Equal(t, "A", store.sess.User.Name)
}

func TestLogin_SaveFailureLeavesNoSession(t *testing.T) {
	var statsAuth string
	var hadAuth bool
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.LoginResponse{Token: "t1", User: models.User{Name: "A"}})
	})
	r.Get("/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		statsAuth, hadAuth = r.Header.Get("Authorization"), r.Header["Authorization"] != nil
		writeJSON(w, http.StatusOK, models.DashboardStats{})
	})
	srv := newTestServer(t, r)

	c := New(srv.URL, &memStore{saveErr: errors.New("disk full")})
	_, err := c.Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist session: disk full")
	assert.False(t, c.HasSession())
	assert.Empty(t, c.Token())

	_, err = c.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.False(t, hadAuth, "unexpected Authorization %q", statsAuth)
}

func TestLogin_RejectedPersistsNothing(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	})
	srv := newTestServer(t, r)

	store := &memStore{}
	c := New(srv.URL, store)
	notified := false
	c.OnSessionInvalidated(func(error) { notified = true })

	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "authentication failed: invalid credentials", err.Error())
	assert.Zero(t, store.saves)
	assert.False(t, c.HasSession())
	assert.False(t, notified, "no session existed, nothing to invalidate")
}

func TestLogin_MissingToken(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"name": "A"}})
	})
	srv := newTestServer(t, r)

	store := &memStore{}
	c := New(srv.URL, store)
	_, err := c.Login(context.Background(), "a@b.com", "x")
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Zero(t, store.saves)
}

func TestLogout_ClearsAndNotifies(t *testing.T) {
	store := loggedIn("t1")
	c := New("http://unused", store)
	require.True(t, c.HasSession())

	var reasons []error
	c.OnSessionInvalidated(func(reason error) { reasons = append(reasons, reason) })

	require.NoError(t, c.Logout())
	assert.False(t, c.HasSession())
	assert.Equal(t, 1, store.clears)
	require.Len(t, reasons, 1)
	assert.NoError(t, reasons[0])
}

func TestNew_UnreadableStoreMeansNoSession(t *testing.T) {
	c := New("http://unused", &memStore{loadErr: errors.New("corrupt")})
	assert.False(t, c.HasSession())
}

func TestCustomerEndpoints(t *testing.T) {
	var (
		listQuery   url.Values
		created     models.Customer
		patchBody   map[string]any
		deletedID   string
		gotMethodID string
	)
	r := chi.NewRouter()
	r.Route("/clientes", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			listQuery = r.URL.Query()
			writeJSON(w, http.StatusOK, []models.Customer{{ID: "1", Name: "Ana", Email: "ana@x.com", Status: models.StatusLead}})
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&created)
			resp := created
			resp.ID = "new"
			writeJSON(w, http.StatusCreated, resp)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			gotMethodID = chi.URLParam(r, "id")
			writeJSON(w, http.StatusOK, models.Customer{ID: gotMethodID, Name: "Bia"})
		})
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&patchBody)
			writeJSON(w, http.StatusOK, models.Customer{ID: chi.URLParam(r, "id"), Name: "Bia B"})
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			deletedID = chi.URLParam(r, "id")
			w.WriteHeader(http.StatusNoContent)
		})
	})
	srv := newTestServer(t, r)
	c := New(srv.URL, loggedIn("t1"))
	ctx := context.Background()

	list, err := c.ListCustomers(ctx, url.Values{"q": {"ana"}, "status": {"lead"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ana", listQuery.Get("q"))
	assert.Equal(t, "lead", listQuery.Get("status"))

	out, err := c.CreateCustomer(ctx, models.Customer{ID: "ignored", Name: "Caio", Email: "caio@x.com", Status: models.StatusLead})
	require.NoError(t, err)
	assert.Empty(t, created.ID, "client never sends an ID on create")
	assert.Equal(t, "new", out.ID)
	assert.Equal(t, "Caio", created.Name)

	got, err := c.GetCustomer(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "7", gotMethodID)
	assert.Equal(t, "Bia", got.Name)

	name := "Bia B"
	updated, err := c.UpdateCustomer(ctx, "7", models.CustomerPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"nome": "Bia B"}, patchBody)
	assert.Equal(t, "Bia B", updated.Name)

	require.NoError(t, c.DeleteCustomer(ctx, "7"))
	assert.Equal(t, "7", deletedID)
}

func TestSalesEndpoints(t *testing.T) {
	var (
		query url.Values
		body  models.Sale
	)
	r := chi.NewRouter()
	r.Get("/vendas", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		writeJSON(w, http.StatusOK, []models.Sale{{ID: "s1", CustomerID: "1", Amount: 99.9}})
	})
	r.Post("/vendas", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		body.ID = "s2"
		writeJSON(w, http.StatusCreated, body)
	})
	srv := newTestServer(t, r)
	c := New(srv.URL, loggedIn("t1"))

	sales, err := c.ListSales(context.Background(), url.Values{"clienteId": {"1"}})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "1", query.Get("clienteId"))

	sale, err := c.CreateSale(context.Background(), models.Sale{CustomerID: "1", Amount: 10, Description: "setup"})
	require.NoError(t, err)
	assert.Equal(t, "s2", sale.ID)
	assert.Equal(t, "setup", body.Description)
}

func TestCustomerPathEscapesID(t *testing.T) {
	assert.Equal(t, "/clientes/a%2Fb", customerPath("a/b"))
	assert.True(t, strings.HasPrefix(customerPath("x"), "/clientes/"))
}
