package handlers

import (
	"github.com/amaumene/exercisedb-sync/internal/cache"
	"github.com/amaumene/exercisedb-sync/internal/controllers"
	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	statsCtrl *controllers.StatsController
	cursor    cache.Store
	logger    *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(statsCtrl *controllers.StatsController, cursor cache.Store, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		statsCtrl: statsCtrl,
		cursor:    cursor,
		logger:    logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	*controllers.Stats
	ImportCursor string `json:"import_cursor,omitempty"` // Last committed category of an unfinished import
}

// Handle handles the status endpoint
func (h *StatusHandler) Handle(c *fiber.Ctx) error {
	stats, err := h.statsCtrl.Collect(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("Failed to collect statistics")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	response := StatusResponse{Stats: stats}
	cursor, found, err := h.cursor.Get(c.UserContext(), models.CursorKey)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read import cursor")
	} else if found {
		response.ImportCursor = cursor
	}

	return c.JSON(response)
}
