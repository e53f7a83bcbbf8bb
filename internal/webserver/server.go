// Package webserver exposes the registry over HTTP, replacing the
// interactive menu the system grew out of.
package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"botfleet/internal/core"
	"botfleet/internal/events"
	"botfleet/internal/registry"
	"botfleet/internal/stats"
)

// removeWait bounds how long a DELETE waits for the worker to wind down.
// Longer than executor timeout plus the backoff ceiling so a removal never
// times out under normal operation.
const removeWait = 60 * time.Second

type Handler struct {
	reg *registry.Registry
	mem *events.Memory
}

// Attach mounts the fleet control API onto the engine.
func Attach(r *gin.Engine, reg *registry.Registry, mem *events.Memory) {
	h := Handler{reg: reg, mem: mem}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/bots", h.addBot)
		v1.GET("/bots", h.listBots)
		v1.GET("/bots/:id", h.getBot)
		v1.DELETE("/bots/:id", h.removeBot)
		v1.POST("/bots/:id/activities", h.enqueue)
		v1.GET("/bots/:id/activities", h.listActivities)
		v1.GET("/bots/:id/activities/:aid", h.getActivity)
		v1.DELETE("/bots/:id/activities", h.purgeActivities)
		v1.GET("/fleet/stats", h.fleetStats)
	}
}

func (h Handler) addBot(c *gin.Context) {
	var req struct {
		Name       string          `json:"name" binding:"required"`
		Credential json.RawMessage `json:"credential"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	id, err := h.reg.AddBot(core.AccountSpec{Name: req.Name, Credential: req.Credential})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, registry.ErrDuplicateAccount) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h Handler) listBots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bots": h.reg.ListBots()})
}

func (h Handler) getBot(c *gin.Context) {
	summary, err := h.reg.Bot(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h Handler) removeBot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), removeWait)
	defer cancel()

	err := h.reg.RemoveBot(ctx, c.Param("id"))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, registry.ErrUnknownBot):
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}

func (h Handler) enqueue(c *gin.Context) {
	var spec core.RequestSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	id, err := h.reg.Enqueue(c.Param("id"), spec)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"id": id})
	case errors.Is(err, registry.ErrUnknownBot):
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
	case errors.Is(err, registry.ErrBotNotAcceptingWork):
		c.JSON(http.StatusConflict, gin.H{"err": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
	}
}

func (h Handler) listActivities(c *gin.Context) {
	activities, err := h.reg.Activities(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (h Handler) getActivity(c *gin.Context) {
	act, err := h.reg.Activity(c.Param("id"), c.Param("aid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, act)
}

func (h Handler) purgeActivities(c *gin.Context) {
	removed, err := h.reg.PurgeActivities(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": removed})
}

func (h Handler) fleetStats(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Compute(h.mem.Events()))
}
