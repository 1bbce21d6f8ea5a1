package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/testhelpers"
	"github.com/poofware/listings-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() SessionStore {
	return NewCacheSessionStore(time.Minute, time.Minute)
}

func echoCaller(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(id.String()))
	})
}

func serve(h http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != "" {
		req.Header.Set(constants.UserIDHeader, userID)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCallerMiddleware_Anonymous(t *testing.T) {
	mem := testhelpers.NewMemStore()
	h := CallerMiddleware(newStore(), mem.Repos().Users)(echoCaller(t))

	rr := serve(h, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestCallerMiddleware_ResolvesAndCaches(t *testing.T) {
	mem := testhelpers.NewMemStore()
	owner := mem.AddUser(models.RoleOwner)
	store := newStore()
	h := CallerMiddleware(store, mem.Repos().Users)(echoCaller(t))

	rr := serve(h, owner.ID.String())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, owner.ID.String(), rr.Body.String())

	sess, ok := store.Get(owner.ID)
	require.True(t, ok)
	assert.Equal(t, models.RoleOwner, sess.Role)

	// cached: the user lookup is not needed again
	mem.FailOn("Users.GetByID", errors.New("must not be called"))
	rr = serve(h, owner.ID.String())
	assert.Equal(t, http.StatusOK, rr.Code)

	store.Invalidate(owner.ID)
	_, ok = store.Get(owner.ID)
	assert.False(t, ok)
}

func TestCallerMiddleware_Rejections(t *testing.T) {
	mem := testhelpers.NewMemStore()
	h := CallerMiddleware(newStore(), mem.Repos().Users)(echoCaller(t))

	rr := serve(h, "not-a-uuid")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, uuid.NewString())
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, utils.ErrCodeUnauthorized, body.Code)
}

func TestRequireRoles(t *testing.T) {
	mem := testhelpers.NewMemStore()
	owner := mem.AddUser(models.RoleOwner)
	admin := mem.AddUser(models.RoleAdmin)
	user := mem.AddUser(models.RoleUser)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := CallerMiddleware(newStore(), mem.Repos().Users)(
		RequireRoles(models.RoleOwner, models.RoleAdmin)(ok),
	)

	assert.Equal(t, http.StatusOK, serve(h, owner.ID.String()).Code)
	assert.Equal(t, http.StatusOK, serve(h, admin.ID.String()).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, user.ID.String()).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
}
