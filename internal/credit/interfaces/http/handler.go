package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/KostasCherv/protocol-analysis/internal/credit/application"
	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
	"github.com/KostasCherv/protocol-analysis/pkg/response"
)

// CreditHandler 负责处理信贷账户相关的 HTTP 请求
type CreditHandler struct {
	app *application.CreditAppService
}

// NewCreditHandler 创建 HTTP 处理器
func NewCreditHandler(app *application.CreditAppService) *CreditHandler {
	return &CreditHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *CreditHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/credit")
	{
		api.POST("/accounts", h.OpenAccount)
		api.GET("/accounts", h.ListAccounts)
		api.GET("/accounts/:id", h.GetAccount)
		api.POST("/accounts/:id/collateral", h.AddCollateral)
		api.POST("/accounts/:id/borrow", h.IncreaseDebt)
		api.POST("/accounts/:id/deploy", h.DeployToStrategy)
		api.POST("/accounts/:id/withdraw", h.WithdrawFromStrategy)
		api.POST("/accounts/:id/repay", h.Repay)
		api.POST("/accounts/:id/close", h.CloseAccount)
		api.POST("/accounts/:id/liquidate", h.Liquidate)
		api.GET("/pool", h.GetPool)
		api.POST("/time/advance", h.AdvanceTime)
		api.POST("/prices/drop", h.DropPrice)
		api.POST("/prices/revert", h.RevertPrice)
	}
}

type openAccountRequest struct {
	Owner           string          `json:"owner" binding:"required"`
	CollateralAsset string          `json:"collateral_asset" binding:"required"`
	Collateral      decimal.Decimal `json:"collateral" binding:"required"`
	InitialBorrow   decimal.Decimal `json:"initial_borrow"`
}

type amountRequest struct {
	Owner  string          `json:"owner" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type ownerRequest struct {
	Owner string `json:"owner" binding:"required"`
}

type liquidateRequest struct {
	Beneficiary string `json:"beneficiary"`
}

type advanceTimeRequest struct {
	Days int `json:"days" binding:"required"`
}

type priceRequest struct {
	Asset   string          `json:"asset" binding:"required"`
	Percent decimal.Decimal `json:"percent"`
}

// OpenAccount 开设信贷账户
func (h *CreditHandler) OpenAccount(c *gin.Context) {
	var req openAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	view, err := h.app.OpenAccount(c.Request.Context(), application.OpenAccountCommand{
		Owner:           req.Owner,
		CollateralAsset: req.CollateralAsset,
		Collateral:      req.Collateral,
		InitialBorrow:   req.InitialBorrow,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// ListAccounts 列出全部未关闭账户
func (h *CreditHandler) ListAccounts(c *gin.Context) {
	response.Success(c, h.app.ListAccounts(c.Request.Context()))
}

// GetAccount 查询账户
func (h *CreditHandler) GetAccount(c *gin.Context) {
	view, err := h.app.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// AddCollateral 追加抵押品
func (h *CreditHandler) AddCollateral(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	view, err := h.app.AddCollateral(c.Request.Context(), req.Owner, c.Param("id"), req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// IncreaseDebt 追加借款
func (h *CreditHandler) IncreaseDebt(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	view, err := h.app.IncreaseDebt(c.Request.Context(), req.Owner, c.Param("id"), req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// DeployToStrategy 投放闲置现金到收益策略；amount 省略时全额投放
func (h *CreditHandler) DeployToStrategy(c *gin.Context) {
	var req struct {
		Owner  string          `json:"owner" binding:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	var (
		view *application.AccountView
		err  error
	)
	if req.Amount.IsZero() {
		view, err = h.app.DeployAllToStrategy(c.Request.Context(), req.Owner, c.Param("id"))
	} else {
		view, err = h.app.DeployToStrategy(c.Request.Context(), req.Owner, c.Param("id"), req.Amount)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// WithdrawFromStrategy 全额赎回策略仓位
func (h *CreditHandler) WithdrawFromStrategy(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	view, err := h.app.WithdrawFromStrategy(c.Request.Context(), req.Owner, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// Repay 还款；amount 省略时清偿全部债务
func (h *CreditHandler) Repay(c *gin.Context) {
	var req struct {
		Owner  string          `json:"owner" binding:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	var (
		view *application.AccountView
		err  error
	)
	if req.Amount.IsZero() {
		view, err = h.app.RepayAll(c.Request.Context(), req.Owner, c.Param("id"))
	} else {
		view, err = h.app.Repay(c.Request.Context(), req.Owner, c.Param("id"), req.Amount)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, view)
}

// CloseAccount 关闭账户
func (h *CreditHandler) CloseAccount(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	result, err := h.app.CloseAccount(c.Request.Context(), req.Owner, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, result)
}

// Liquidate 清算账户
func (h *CreditHandler) Liquidate(c *gin.Context) {
	var req liquidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	result, err := h.app.Liquidate(c.Request.Context(), c.Param("id"), req.Beneficiary)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, result)
}

// GetPool 借贷池状态
func (h *CreditHandler) GetPool(c *gin.Context) {
	response.Success(c, h.app.GetPool(c.Request.Context()))
}

// AdvanceTime 推进模拟时钟
func (h *CreditHandler) AdvanceTime(c *gin.Context) {
	var req advanceTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	result, err := h.app.AdvanceDays(c.Request.Context(), req.Days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, result)
}

// DropPrice 压测：下调资产价格
func (h *CreditHandler) DropPrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.Percent.LessThanOrEqual(decimal.Zero) || req.Percent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		response.ErrorWithStatus(c, http.StatusBadRequest, "percent must be in (0, 100)", "")
		return
	}
	h.app.DropPrice(c.Request.Context(), req.Asset, req.Percent)
	response.Success(c, gin.H{"asset": req.Asset, "percent": req.Percent})
}

// RevertPrice 恢复资产初始价格
func (h *CreditHandler) RevertPrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	h.app.RevertPrice(c.Request.Context(), req.Asset)
	response.Success(c, gin.H{"asset": req.Asset})
}

// writeError 把领域错误映射为 HTTP 状态码
func (h *CreditHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrPoolNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrNotAccountOwner):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidAmount):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrInsufficientLiquidity),
		errors.Is(err, domain.ErrInsufficientCash),
		errors.Is(err, domain.ErrBelowOpenThreshold),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrNotLiquidatable):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}
