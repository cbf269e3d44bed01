package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bmrbridge/internal/models"
	"bmrbridge/internal/service"
)

const errInvalidBody = "invalid body: "

// SetModeRequest is the payload for changing a circuit's operating mode.
type SetModeRequest struct {
	// Mode to set. Allowed: auto, heat, heat_cool, off
	Mode string `json:"mode" binding:"required" example:"heat"`
}

// SetPresetRequest is the payload for changing a circuit's preset.
type SetPresetRequest struct {
	// Preset to set. Allowed: none, away
	Preset string `json:"preset" binding:"required" example:"away"`
}

// SetTemperatureRequest is the payload for changing a circuit's target.
type SetTemperatureRequest struct {
	// Target temperature in degrees Celsius
	Temperature float64 `json:"temperature" binding:"required" example:"21.5"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// circuitID parses the :id path parameter; writes 400 on failure.
func (h *Handler) circuitID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid circuit id"})
		return 0, false
	}
	return id, true
}

// writeServiceError maps service errors to HTTP status codes.
func (h *Handler) writeServiceError(c *gin.Context, logKey string, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownCircuit):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoSnapshot), errors.Is(err, service.ErrCircuitUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidMode), errors.Is(err, service.ErrInvalidPreset):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), logKey, err)
	}
}

// @Summary      Get climate state
// @Tags         circuits
// @Produce      json
// @Param        id   path      int  true  "Circuit ID"
// @Success      200  {object}  models.ClimateState
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/circuits/{id}/climate [get]
// @Security     BearerAuth
func (h *Handler) getClimate(c *gin.Context) {
	id, ok := h.circuitID(c)
	if !ok {
		return
	}
	state, err := h.services.Climate.State(id)
	if err != nil {
		h.writeServiceError(c, "climate_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary      Set climate mode
// @Tags         circuits
// @Accept       json
// @Produce      json
// @Param        id    path  int             true  "Circuit ID"
// @Param        body  body  SetModeRequest  true  "Mode payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/circuits/{id}/climate/mode [put]
// @Security     BearerAuth
func (h *Handler) setClimateMode(c *gin.Context) {
	id, ok := h.circuitID(c)
	if !ok {
		return
	}
	var req SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	if err := h.services.Climate.SetMode(c.Request.Context(), id, models.HVACMode(req.Mode)); err != nil {
		h.writeServiceError(c, "climate_set_mode_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "mode_set", "mode": req.Mode})
}

// @Summary      Set climate preset
// @Tags         circuits
// @Accept       json
// @Produce      json
// @Param        id    path  int               true  "Circuit ID"
// @Param        body  body  SetPresetRequest  true  "Preset payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/circuits/{id}/climate/preset [put]
// @Security     BearerAuth
func (h *Handler) setClimatePreset(c *gin.Context) {
	id, ok := h.circuitID(c)
	if !ok {
		return
	}
	var req SetPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	if err := h.services.Climate.SetPreset(c.Request.Context(), id, models.Preset(req.Preset)); err != nil {
		h.writeServiceError(c, "climate_set_preset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "preset_set", "preset": req.Preset})
}

// @Summary      Set target temperature
// @Description  Rewrites the circuit's manual override schedule to a constant target.
// @Tags         circuits
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "Circuit ID"
// @Param        body  body  SetTemperatureRequest  true  "Temperature payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/circuits/{id}/climate/temperature [put]
// @Security     BearerAuth
func (h *Handler) setClimateTemperature(c *gin.Context) {
	id, ok := h.circuitID(c)
	if !ok {
		return
	}
	var req SetTemperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	if err := h.services.Climate.SetTargetTemperature(c.Request.Context(), id, req.Temperature); err != nil {
		h.writeServiceError(c, "climate_set_temperature_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "temperature_set", "temperature": req.Temperature})
}

// @Summary      Get circuit sensors
// @Tags         circuits
// @Produce      json
// @Param        id   path      int  true  "Circuit ID"
// @Success      200  {object}  models.CircuitSensors
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/circuits/{id}/sensors [get]
// @Security     BearerAuth
func (h *Handler) getCircuitSensors(c *gin.Context) {
	id, ok := h.circuitID(c)
	if !ok {
		return
	}
	sensors, err := h.services.Monitoring.CircuitSensors(id)
	if err != nil {
		h.writeServiceError(c, "sensors_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, sensors)
}
