package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yellowcard-api/internal/models"
	appErrors "github.com/noah-isme/yellowcard-api/pkg/errors"
)

func studentIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Validation("invalid student id")
	}
	return id, nil
}

func gradeParam(c *gin.Context) (int, error) {
	grade, err := strconv.Atoi(c.Param("grade"))
	if err != nil || !models.ValidGrade(grade) {
		return 0, appErrors.Validation("grade must be between 1 and 12")
	}
	return grade, nil
}

// optionalIntQuery parses an integer query parameter, returning fallback when absent.
func optionalIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Validation(key + " must be an integer")
	}
	return v, nil
}
