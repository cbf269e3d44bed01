package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusOK        = "ok"
	statusRefreshed = "refresh_requested"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get controller state
// @Description  Returns the latest polled snapshot of the whole controller.
// @Tags         controller
// @Produce      json
// @Success      200  {object}  models.ControllerSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/controller/state [get]
// @Security     BearerAuth
func (h *Handler) getControllerState(c *gin.Context) {
	snap, err := h.services.Monitoring.Snapshot()
	if err != nil {
		h.writeServiceError(c, "controller_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Request refresh
// @Description  Asks the poller for an out-of-cycle refresh. Returns immediately; the new snapshot arrives asynchronously.
// @Tags         controller
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/controller/refresh [post]
// @Security     BearerAuth
func (h *Handler) requestRefresh(c *gin.Context) {
	h.services.Monitoring.RequestRefresh()
	c.JSON(http.StatusAccepted, gin.H{"status": statusRefreshed})
}
