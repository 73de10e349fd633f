package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/dao"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/pkg/logger"
	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
)

type fakeReader struct {
	records []*dao.ReportRecord
	err     error
	limit   uint64
	owner   model.AccountID
}

func (f *fakeReader) ListByDevice(_ context.Context, _ model.PublicKey, limit uint64) ([]*dao.ReportRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func (f *fakeReader) ListByOwner(_ context.Context, owner model.AccountID, limit uint64) ([]*dao.ReportRecord, error) {
	f.owner, f.limit = owner, limit
	return f.records, f.err
}

func auditRouter(r ReportReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	NewAuditHandler(r, logger.NewNoop()).Register(e)
	return e
}

func get(t *testing.T, e *gin.Engine, path string) (int, response) {
	t.Helper()
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestAuditHandler(t *testing.T) {
	reader := &fakeReader{records: []*dao.ReportRecord{{EventID: 7, Reward: 900}}}
	e := auditRouter(reader)

	status, resp := get(t, e, "/api/v1/accounts/"+alice.String()+"/reports?limit=5")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, alice, reader.owner)
	assert.Equal(t, uint64(5), reader.limit)

	var recs []dao.ReportRecord
	require.NoError(t, json.Unmarshal(resp.Data, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, int64(7), recs[0].EventID)

	reader.records = nil
	pk := "02" + alice.String()[:64]
	status, resp = get(t, e, "/api/v1/devices/"+pk+"/reports")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(0), reader.limit)
	assert.JSONEq(t, "[]", string(resp.Data))
}

func TestAuditHandlerErrors(t *testing.T) {
	e := auditRouter(&fakeReader{err: errors.New("db down")})

	tests := []struct {
		name   string
		path   string
		status int
		code   int
	}{
		{"backend failure", "/api/v1/accounts/" + alice.String() + "/reports", http.StatusInternalServerError, weberrors.CodeInternalError},
		{"bad limit", "/api/v1/accounts/" + alice.String() + "/reports?limit=x", http.StatusBadRequest, weberrors.CodeInvalidParams},
		{"bad account", "/api/v1/accounts/zz/reports", http.StatusBadRequest, weberrors.CodeInvalidParams},
		{"bad device", "/api/v1/devices/zz/reports", http.StatusUnauthorized, weberrors.CodeUnAuthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := get(t, e, tt.path)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}
