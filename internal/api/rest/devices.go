package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/KevinKickass/ModbusCore/internal/modbus"
	"github.com/KevinKickass/ModbusCore/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/v1/devices
func (s *Server) listDevices(c *gin.Context) {
	devices := s.lm.DeviceManager().ListDevices()

	response := make([]gin.H, 0, len(devices))
	for _, device := range devices {
		response = append(response, gin.H{
			"id":        device.ID,
			"name":      device.Name,
			"profile":   device.Profile.DeviceProfile.Model,
			"connected": device.Connected(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": response,
		"count":   len(response),
	})
}

// GET /api/v1/devices/:id
func (s *Server) getDevice(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        device.ID,
		"name":      device.Name,
		"profile":   device.Profile.DeviceProfile,
		"registers": device.Profile.Registers,
		"connected": device.Connected(),
	})
}

// POST /api/v1/devices/:id/read
func (s *Server) readRegister(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}

	var req struct {
		Register string `json:"register" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("DEVICE_400", "Invalid request body", err.Error()))
		return
	}

	value, err := device.ReadRegister(c.Request.Context(), req.Register)
	if err != nil {
		s.codecError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"register":  req.Register,
		"value":     value,
		"timestamp": time.Now().Unix(),
	})
}

// POST /api/v1/devices/:id/write
func (s *Server) writeRegister(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}

	var req struct {
		Register string      `json:"register" binding:"required"`
		Value    interface{} `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("DEVICE_400", "Invalid request body", err.Error()))
		return
	}

	if err := device.WriteRegister(c.Request.Context(), req.Register, req.Value); err != nil {
		s.codecError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Register written successfully",
		"register": req.Register,
		"value":    req.Value,
	})
}

// GET /api/v1/devices/:id/samples?register=...&limit=...
func (s *Server) getSamples(c *gin.Context) {
	device, ok := s.deviceFromParam(c)
	if !ok {
		return
	}

	store := s.lm.Storage()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse("HISTORY_503", "Sample history is disabled", nil))
		return
	}

	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	samples, err := store.RecentSamples(c.Request.Context(), device.ID, c.Query("register"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("HISTORY_500", "Failed to query samples", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"samples": samples,
		"count":   len(samples),
	})
}

func (s *Server) deviceFromParam(c *gin.Context) (*modbus.Device, bool) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("DEVICE_400", "Invalid device ID", nil))
		return nil, false
	}

	device, exists := s.lm.DeviceManager().GetDevice(deviceID)
	if !exists {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("DEVICE_404", "Device not found", nil))
		return nil, false
	}

	return device, true
}

// codecError mappt die Codec-Taxonomie auf HTTP: Geräteablehnung mit
// Exception-Art, Transport/Framing als Connectivity Fault, Eingabefehler
// als Bad Request.
func (s *Server) codecError(c *gin.Context, err error) {
	if exc, ok := modbus.AsException(err); ok {
		c.JSON(http.StatusBadGateway, types.NewErrorResponse("MODBUS_EXCEPTION",
			"Device rejected request", exc.Code.String()))
		return
	}

	if errors.Is(err, modbus.ErrInvalidArgument) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("MODBUS_400", "Invalid argument", err.Error()))
		return
	}

	if errors.Is(err, modbus.ErrMalformedResponse) ||
		errors.Is(err, modbus.ErrConnectionClosed) ||
		errors.Is(err, modbus.ErrNotConnected) {
		c.JSON(http.StatusBadGateway, types.NewErrorResponse("MODBUS_502", "Connectivity fault", err.Error()))
		return
	}

	c.JSON(http.StatusInternalServerError, types.NewErrorResponse("DEVICE_500", err.Error(), nil))
}
