package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/facet/pkg/camera"
	"github.com/chazu/facet/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRefineEndpoint(t *testing.T) {
	h := newRouter(NewApp())

	w := do(t, h, http.MethodPost, "/refine", `(mesh :shape :octahedron) (surface :kind :sphere :radius 2) (project :mode :ray) (stop :edges 20)`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res RefineResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Errors)
	require.Len(t, res.Meshes, 1)
	require.NotNil(t, res.Stats)
	assert.Greater(t, res.Stats.Edges, 20)
	assert.LessOrEqual(t, res.Stats.Edges, 23)
	assert.Equal(t, 9*res.Stats.Faces, len(res.Meshes[0].Vertices))
}

func TestRefineEndpointYAML(t *testing.T) {
	h := newRouter(NewApp())

	body := "surface:\n  kind: flat\n"
	w := do(t, h, http.MethodPost, "/refine?format=yaml", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res RefineResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Stats.Splits)
}

func TestRefineEndpointRejectsBadRecipe(t *testing.T) {
	h := newRouter(NewApp())

	w := do(t, h, http.MethodPost, "/refine", `(mesh :shape :cube)`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var res RefineResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "MESH_SHAPE_UNKNOWN", res.Errors[0].Code)
	assert.Empty(t, res.Meshes)
}

func TestCameraEndpoint(t *testing.T) {
	h := newRouter(NewApp())

	req := CameraRequest{
		State:    camera.State{AngleX: 1.5},
		Input:    camera.Input{DX: 10, DY: 100, Dragging: true},
		Viewport: camera.Viewport{Width: 640, Height: 480},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/camera", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res CameraResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	want := camera.Update(req.State, req.Input)
	assert.InDelta(t, want.AngleX, res.State.AngleX, 1e-12)
	assert.InDelta(t, 0.1, res.State.AngleZ, 1e-12)
	assert.Equal(t, camera.Compute(want, req.Viewport).Buffer(), res.MVP)
}

func TestCameraEndpointBadJSON(t *testing.T) {
	h := newRouter(NewApp())
	w := do(t, h, http.MethodPost, "/camera", `{"state":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunsEndpoint(t *testing.T) {
	h := newRouter(NewApp())
	w := do(t, h, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "history disabled without a store")

	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"), false)
	require.NoError(t, err)
	defer st.Close()
	h = newRouter(NewAppWithOptions(Options{Store: st}))

	for _, n := range []string{"a", "b"} {
		w := do(t, h, http.MethodPost, "/refine", `(title "`+n+`") (max-splits 2)`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = do(t, h, http.MethodGet, "/runs?n=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []store.Run
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].Name)

	w = do(t, h, http.MethodGet, "/runs?n=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
