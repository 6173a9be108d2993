package handlers

import (
	"errors"

	"github.com/amaumene/exercisedb-sync/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
	compoundMuscles = 2
)

// ExercisesHandler serves the stored catalog
type ExercisesHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewExercisesHandler creates a new exercises handler
func NewExercisesHandler(db *models.Database, logger *logrus.Logger) *ExercisesHandler {
	return &ExercisesHandler{
		db:     db,
		logger: logger,
	}
}

// ExerciseResponse is the API representation of an exercise
type ExerciseResponse struct {
	ExternalID       string   `json:"external_id"`
	Name             string   `json:"name"`
	MediaURL         string   `json:"media_url"`
	TargetMuscles    []string `json:"target_muscles"`
	BodyParts        []string `json:"body_parts"`
	Equipment        []string `json:"equipment"`
	SecondaryMuscles []string `json:"secondary_muscles"`
	Instructions     []string `json:"instructions"`
	Category         string   `json:"category"`
}

func newExerciseResponse(e *models.Exercise) ExerciseResponse {
	return ExerciseResponse{
		ExternalID:       e.ExternalID,
		Name:             e.Name,
		MediaURL:         e.MediaURL,
		TargetMuscles:    e.TargetMuscles,
		BodyParts:        e.BodyParts,
		Equipment:        e.Equipment,
		SecondaryMuscles: e.SecondaryMuscles,
		Instructions:     e.FormattedInstructions(),
		Category:         e.Category.String(),
	}
}

// List handles GET /api/exercises.
// Supported filters: muscle, equipment, category, compound, beginner, limit and offset.
func (h *ExercisesHandler) List(c *fiber.Ctx) error {
	filter := models.ExerciseFilter{
		Muscle:    c.Query("muscle"),
		Equipment: c.Query("equipment"),
		Beginner:  c.QueryBool("beginner"),
		Limit:     c.QueryInt("limit", defaultPageSize),
		Offset:    c.QueryInt("offset"),
	}

	if raw := c.Query("category"); raw != "" {
		category, ok := models.ParseCategory(raw)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown category")
		}
		filter.Category = category
	}
	if c.QueryBool("compound") {
		filter.MinMuscles = compoundMuscles
	}
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	exercises, err := h.db.FindExercises(c.UserContext(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query exercises")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	response := make([]ExerciseResponse, 0, len(exercises))
	for _, exercise := range exercises {
		response = append(response, newExerciseResponse(exercise))
	}
	return c.JSON(fiber.Map{
		"count": len(response),
		"data":  response,
	})
}

// Get handles GET /api/exercises/:externalID
func (h *ExercisesHandler) Get(c *fiber.Ctx) error {
	externalID := c.Params("externalID")

	exercise, err := h.db.GetExerciseByExternalID(c.UserContext(), externalID)
	if errors.Is(err, models.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Exercise not found")
	}
	if err != nil {
		h.logger.WithError(err).WithField("external_id", externalID).Error("Failed to get exercise")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(newExerciseResponse(exercise))
}
