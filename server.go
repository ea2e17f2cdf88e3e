package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/chazu/facet/pkg/camera"
	"github.com/gin-gonic/gin"
)

// CameraRequest carries the viewer's current angles and one pointer event.
type CameraRequest struct {
	State    camera.State    `json:"state"`
	Input    camera.Input    `json:"input"`
	Viewport camera.Viewport `json:"viewport"`
}

// CameraResponse is the updated state and the matrix to draw with.
type CameraResponse struct {
	State camera.State `json:"state"`
	MVP   [16]float32  `json:"mvp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// newRouter exposes the App over HTTP.
//
//	POST /refine  body is the recipe source; ?format=lisp|yaml
//	POST /camera  CameraRequest -> CameraResponse
//	GET  /runs    recent runs, ?n=20
func newRouter(a *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/refine", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		result := a.RefineContext(c.Request.Context(), string(body), Format(c.Query("format")))
		status := http.StatusOK
		if len(result.Errors) > 0 && result.Stats == nil {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, result)
	})

	r.POST("/camera", func(c *gin.Context) {
		var req CameraRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s := camera.Update(req.State, req.Input)
		c.JSON(http.StatusOK, CameraResponse{
			State: s,
			MVP:   camera.Compute(s, req.Viewport).Buffer(),
		})
	})

	r.GET("/runs", func(c *gin.Context) {
		if a.store == nil {
			c.JSON(http.StatusNotFound, errorResponse{Error: "run history is disabled"})
			return
		}
		n, err := strconv.Atoi(c.DefaultQuery("n", "20"))
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "n must be a positive integer"})
			return
		}
		runs, err := a.store.Recent(n)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	return r
}
