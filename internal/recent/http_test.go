// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recent_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/localmart/internal/platform/ctxutil"
	"github.com/taibuivan/localmart/internal/platform/sec"
	"github.com/taibuivan/localmart/internal/platform/storage"
	"github.com/taibuivan/localmart/internal/recent"
	"github.com/taibuivan/localmart/internal/tab"
)

type viewsEnvelope struct {
	Data  []recent.View `json:"data"`
	Error string        `json:"error"`
}

func call(t *testing.T, routes http.Handler, claims *sec.TabClaims, method, path, body string) (int, viewsEnvelope) {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request = request.WithContext(ctxutil.WithTab(request.Context(), claims))
	recorder := httptest.NewRecorder()
	routes.ServeHTTP(recorder, request)

	var envelope viewsEnvelope
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	}
	return recorder.Code, envelope
}

/*
TestHandler_DeviceList verifies two tabs of one device share the list, ages are
labelled, and remove/clear behave.
*/
func TestHandler_DeviceList(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	scopes := tab.NewScopes(storage.NewMemoryStore(), storage.NewMemoryStore())
	routes := recent.NewHandler(scopes, func() time.Time { return now }).Routes()

	tabOne := &sec.TabClaims{TabID: "tab-1", DeviceID: "device-1"}
	tabTwo := &sec.TabClaims{TabID: "tab-2", DeviceID: "device-1"}
	otherDevice := &sec.TabClaims{TabID: "tab-3", DeviceID: "device-2"}

	status, envelope := call(t, routes, tabOne, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, envelope.Data)
	assert.Empty(t, envelope.Data)

	status, envelope = call(t, routes, tabOne, http.MethodPost, "/", `{"id":"p-1","title":"Honey","price":6.5,"seller":"Hive Co","isAvailable":true}`)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Just now", envelope.Data[0].Age)

	call(t, routes, tabOne, http.MethodPost, "/", `{"id":"p-2","title":"Bread","price":3}`)

	_, envelope = call(t, routes, tabTwo, http.MethodGet, "/", "")
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "p-2", envelope.Data[0].ID)

	_, envelope = call(t, routes, otherDevice, http.MethodGet, "/", "")
	assert.Empty(t, envelope.Data)

	_, envelope = call(t, routes, tabTwo, http.MethodDelete, "/p-2", "")
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "p-1", envelope.Data[0].ID)

	status, _ = call(t, routes, tabOne, http.MethodDelete, "/", "")
	assert.Equal(t, http.StatusNoContent, status)

	_, envelope = call(t, routes, tabOne, http.MethodGet, "/", "")
	assert.Empty(t, envelope.Data)
}

func TestHandler_UpsertValidation(t *testing.T) {
	scopes := tab.NewScopes(storage.NewMemoryStore(), storage.NewMemoryStore())
	routes := recent.NewHandler(scopes, nil).Routes()
	claims := &sec.TabClaims{TabID: "tab-1", DeviceID: "device-1"}

	status, _ := call(t, routes, claims, http.MethodPost, "/", `{"title":"No id"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, routes, claims, http.MethodPost, "/", `{"id":"p-1","title":"Refund","price":-1}`)
	assert.Equal(t, http.StatusBadRequest, status)
}
