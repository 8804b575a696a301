package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/ovchar/tradejournal/internal/middleware/auth"
	"github.com/ovchar/tradejournal/internal/models"
)

type ProjectHandler struct {
	DB *gorm.DB
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	project := models.Project{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.DB.Create(&project).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) GetProjects(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}

	var projects []models.Project
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&projects).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}

	project, err := h.ownedProject(c, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) PatchProject(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}

	project, err := h.ownedProject(c, userID)
	if err != nil {
		return err
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := h.DB.Save(project).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}

	project, err := h.ownedProject(c, userID)
	if err != nil {
		return err
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Trade{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedProject loads the path project and enforces ownership: unknown id is
// 404, someone else's project is 403.
func (h *ProjectHandler) ownedProject(c echo.Context, userID uint) (*models.Project, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid project id")
	}

	var project models.Project
	if err := h.DB.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if project.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not your project")
	}
	return &project, nil
}
