package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/ovchar/tradejournal/internal/middleware/auth"
	"github.com/ovchar/tradejournal/internal/models"
	"github.com/ovchar/tradejournal/internal/mykafka"
	"github.com/ovchar/tradejournal/internal/util"
)

type TradeHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type tradeRequest struct {
	ProjectID  uint       `json:"project_id"`
	Symbol     string     `json:"symbol"`
	Strategy   string     `json:"strategy"`
	OptionType string     `json:"option_type"`
	Strike     float64    `json:"strike"`
	Expiry     time.Time  `json:"expiry"`
	Quantity   int        `json:"quantity"`
	OpenPrice  float64    `json:"open_price"`
	ClosePrice float64    `json:"close_price"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at"`
	Fees       float64    `json:"fees"`
	Notes      string     `json:"notes"`
}

func (h *TradeHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "trade_events", fmt.Sprint(event["tradeID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *TradeHandler) CreateTrade(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}

	var req tradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Symbol == "" || req.Strategy == "" || req.Quantity == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "symbol, strategy and quantity are required")
	}

	if err := h.checkProject(c, req.ProjectID, userID); err != nil {
		return err
	}

	trade := models.Trade{
		ProjectID:  req.ProjectID,
		UserID:     userID,
		Symbol:     req.Symbol,
		Strategy:   req.Strategy,
		OptionType: req.OptionType,
		Strike:     req.Strike,
		Expiry:     req.Expiry,
		Quantity:   req.Quantity,
		OpenPrice:  req.OpenPrice,
		ClosePrice: req.ClosePrice,
		OpenedAt:   req.OpenedAt,
		ClosedAt:   req.ClosedAt,
		Fees:       req.Fees,
		Notes:      req.Notes,
	}
	if err := h.DB.Create(&trade).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":    "trade_created",
		"tradeID": trade.ID,
		"symbol":  trade.Symbol,
	})

	return c.JSON(http.StatusCreated, trade)
}

func (h *TradeHandler) GetTrades(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Trade{}).Where("user_id = ?", userID)
	if pid := c.QueryParam("project_id"); pid != "" {
		q = q.Where("project_id = ?", pid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.Trade
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *TradeHandler) GetTrade(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}
	trade, err := h.ownedTrade(c, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trade)
}

func (h *TradeHandler) PatchTrade(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}
	trade, err := h.ownedTrade(c, userID)
	if err != nil {
		return err
	}

	var req struct {
		Symbol     *string    `json:"symbol"`
		Strategy   *string    `json:"strategy"`
		OptionType *string    `json:"option_type"`
		Strike     *float64   `json:"strike"`
		Expiry     *time.Time `json:"expiry"`
		Quantity   *int       `json:"quantity"`
		OpenPrice  *float64   `json:"open_price"`
		ClosePrice *float64   `json:"close_price"`
		ClosedAt   *time.Time `json:"closed_at"`
		Fees       *float64   `json:"fees"`
		Notes      *string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Symbol != nil {
		trade.Symbol = *req.Symbol
	}
	if req.Strategy != nil {
		trade.Strategy = *req.Strategy
	}
	if req.OptionType != nil {
		trade.OptionType = *req.OptionType
	}
	if req.Strike != nil {
		trade.Strike = *req.Strike
	}
	if req.Expiry != nil {
		trade.Expiry = *req.Expiry
	}
	if req.Quantity != nil {
		trade.Quantity = *req.Quantity
	}
	if req.OpenPrice != nil {
		trade.OpenPrice = *req.OpenPrice
	}
	if req.ClosePrice != nil {
		trade.ClosePrice = *req.ClosePrice
	}
	if req.ClosedAt != nil {
		trade.ClosedAt = req.ClosedAt
	}
	if req.Fees != nil {
		trade.Fees = *req.Fees
	}
	if req.Notes != nil {
		trade.Notes = *req.Notes
	}

	if err := h.DB.Save(trade).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":    "trade_updated",
		"tradeID": trade.ID,
		"symbol":  trade.Symbol,
	})

	return c.JSON(http.StatusOK, trade)
}

func (h *TradeHandler) DeleteTrade(c echo.Context) error {
	userID, err := mwauth.UserID(c)
	if err != nil {
		return err
	}
	trade, err := h.ownedTrade(c, userID)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(trade).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":    "trade_deleted",
		"tradeID": trade.ID,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *TradeHandler) ownedTrade(c echo.Context, userID uint) (*models.Trade, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid trade id")
	}

	var trade models.Trade
	if err := h.DB.First(&trade, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "trade not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if trade.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not your trade")
	}
	return &trade, nil
}

func (h *TradeHandler) checkProject(c echo.Context, projectID, userID uint) error {
	var project models.Project
	if err := h.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if project.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "not your project")
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
