package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulist/tabulist/pkg/flags"
	"github.com/tabulist/tabulist/pkg/todo"
)

func setupServer(t *testing.T) (*Server, *flags.Memory) {
	t.Helper()
	mem := flags.NewMemory()
	store := todo.New(mem)
	return New(":0", store, mem, nil), mem
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody[map[string]string](t, rec))
}

func TestUserLifecycle(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/users", map[string]string{"name": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decodeBody[flags.User](t, rec)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Name)

	rec = doRequest(t, srv, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeBody[[]flags.User](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, user.ID, users[0].ID)

	rec = doRequest(t, srv, http.MethodDelete, "/api/users/"+user.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/users/"+user.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUserValidation(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/users", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/users", map[string]string{"unexpected": "field"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToDoLifecycle(t *testing.T) {
	srv, mem := setupServer(t)
	user, err := mem.CreateUser(context.Background(), "alice")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/users/"+user.ID+"/todos",
		map[string]interface{}{"label": "buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[todo.ToDo](t, rec)
	assert.Len(t, created.ID, todo.IDLength)
	assert.Equal(t, user.ID, created.UserID)
	assert.Equal(t, "buy milk", created.Label)
	assert.False(t, created.Done)

	rec = doRequest(t, srv, http.MethodGet, "/api/users/"+user.ID+"/todos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	col := decodeBody[map[string]todo.ToDo](t, rec)
	require.Len(t, col, 1)
	assert.Equal(t, created, col[created.ID])

	created.Done = true
	rec = doRequest(t, srv, http.MethodPut, "/api/todos/"+created.ID, created)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[todo.ToDo](t, rec)
	assert.True(t, updated.Done)

	rec = doRequest(t, srv, http.MethodDelete, "/api/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/todos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[map[string]todo.ToDo](t, rec))
}

func TestListAllAggregates(t *testing.T) {
	srv, mem := setupServer(t)
	ctx := context.Background()

	alice, _ := mem.CreateUser(ctx, "alice")
	bob, _ := mem.CreateUser(ctx, "bob")

	rec := doRequest(t, srv, http.MethodPost, "/api/users/"+alice.ID+"/todos",
		map[string]interface{}{"label": "alice task"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(t, srv, http.MethodPost, "/api/users/"+bob.ID+"/todos",
		map[string]interface{}{"label": "bob task", "isDone": true})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/todos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[map[string]todo.ToDo](t, rec)
	assert.Len(t, all, 2)
}

func TestUnknownUserAndID(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/users/nope/todos", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/users/nope/todos",
		map[string]interface{}{"label": "orphan"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/api/todos/missingmissing00",
		map[string]interface{}{"label": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/todos/missingmissing00", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateToDoValidation(t *testing.T) {
	srv, mem := setupServer(t)
	user, err := mem.CreateUser(context.Background(), "alice")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/users/"+user.ID+"/todos",
		map[string]interface{}{"label": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/users/"+user.ID+"/todos",
		bytes.NewBufferString("{not json"))
	recRaw := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recRaw, req)
	assert.Equal(t, http.StatusBadRequest, recRaw.Code)
}

func TestIDConflictReturns409(t *testing.T) {
	mem := flags.NewMemory()
	ctx := context.Background()

	alice, _ := mem.CreateUser(ctx, "alice")
	bob, _ := mem.CreateUser(ctx, "bob")

	store := todo.New(mem, todo.WithIDFunc(func() string { return "fixedfixedfixed1" }))
	srv := New(":0", store, mem, nil)

	_, err := store.Create(ctx, alice.ID, todo.Draft{Label: "first"})
	require.NoError(t, err)
	_, err = store.Create(ctx, bob.ID, todo.Draft{Label: "second"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/todos", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteUserDropsTodos(t *testing.T) {
	srv, mem := setupServer(t)
	user, err := mem.CreateUser(context.Background(), "alice")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/users/"+user.ID+"/todos",
		map[string]interface{}{"label": "doomed"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/users/"+user.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/todos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[map[string]todo.ToDo](t, rec))
}
