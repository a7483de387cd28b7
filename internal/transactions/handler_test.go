package transactions

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/warelane/warelane/internal/shared"
)

func newHandlerFixture(t *testing.T) (*chi.Mux, *Service, *memoryRepo) {
	t.Helper()
	svc, repo, _ := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(router)
	return router, svc, repo
}

func doJSON(router *chi.Mux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess := &shared.Session{}
	sess.SetUser("user-2", "admin")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerUpdateHeaderCarriesWarehouse(t *testing.T) {
	router, svc, repo := newHandlerFixture(t)

	header, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)

	body := `{"transaction_date":"2024-03-06","warehouse":"Main DC","comments":"carrier rebooked"}`
	rec := doJSON(router, http.MethodPut, "/"+header.ID, body)
	require.Equal(t, http.StatusOK, rec.Code)

	stored := repo.headers[header.ID]
	require.Equal(t, "Main DC", stored.Warehouse)
	require.Equal(t, "carrier rebooked", stored.Comments)
	require.Equal(t, "user-2", stored.LastEditedBy)
}

func TestHandlerUpdateDetailEditsLine(t *testing.T) {
	router, svc, repo := newHandlerFixture(t)

	header, err := svc.Create(context.Background(), baseCreateInput())
	require.NoError(t, err)
	detail := repo.details[header.ID][0]

	body := `{"quantity":7,"inventory_status":"Stock","detail_status":"Received"}`
	rec := doJSON(router, http.MethodPut, "/"+header.ID+"/details/"+detail.ID, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(7), repo.details[header.ID][0].Quantity)
}

func TestHandlerUpdateMissingHeaderIsNotFound(t *testing.T) {
	router, _, _ := newHandlerFixture(t)

	body := `{"transaction_date":"2024-03-06","warehouse":"Main DC"}`
	rec := doJSON(router, http.MethodPut, "/no-such-id", body)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
