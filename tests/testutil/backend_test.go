package testutil

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/model"
)

func TestBackendHandlersSeeRequestBody(t *testing.T) {
	be := NewBackend(t)

	req, err := http.NewRequest(http.MethodPatch, be.URL+"/entity/7/move-status",
		strings.NewReader(`{"new_status":"em_crescimento"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, model.ColumnGrowing, be.Status())
	reqs := be.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"new_status": "em_crescimento"}, reqs[0].Body)
}
