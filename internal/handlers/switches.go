package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bmrbridge/internal/models"
)

// SetSwitchRequest is the payload for toggling a controller-wide switch.
type SetSwitchRequest struct {
	On *bool `json:"on" binding:"required" example:"true"`
}

// @Summary      Get away switch
// @Tags         switches
// @Produce      json
// @Success      200  {object}  models.SwitchState
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/switches/away [get]
// @Security     BearerAuth
func (h *Handler) getAwaySwitch(c *gin.Context) {
	h.getSwitch(c, h.services.Switches.Away)
}

// @Summary      Set away switch
// @Description  Mirrors low mode and its assignment set across all configured circuits.
// @Tags         switches
// @Accept       json
// @Produce      json
// @Param        body  body  SetSwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/switches/away [put]
// @Security     BearerAuth
func (h *Handler) setAwaySwitch(c *gin.Context) {
	h.setSwitch(c, "away", h.services.Switches.SetAway)
}

// @Summary      Get power switch
// @Tags         switches
// @Produce      json
// @Success      200  {object}  models.SwitchState
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/switches/power [get]
// @Security     BearerAuth
func (h *Handler) getPowerSwitch(c *gin.Context) {
	h.getSwitch(c, h.services.Switches.Power)
}

// @Summary      Set power switch
// @Description  Off assigns every configured circuit to summer mode; on reverses it.
// @Tags         switches
// @Accept       json
// @Produce      json
// @Param        body  body  SetSwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/switches/power [put]
// @Security     BearerAuth
func (h *Handler) setPowerSwitch(c *gin.Context) {
	h.setSwitch(c, "power", h.services.Switches.SetPower)
}

func (h *Handler) getSwitch(c *gin.Context, get func() (models.SwitchState, error)) {
	state, err := get()
	if err != nil {
		h.writeServiceError(c, "switch_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) setSwitch(c *gin.Context, name string, set func(ctx context.Context, on bool) error) {
	var req SetSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	if err := set(c.Request.Context(), *req.On); err != nil {
		h.writeServiceError(c, "switch_set_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "switch_set", "switch": name, "on": *req.On})
}
