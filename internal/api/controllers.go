package api

import (
	"net/http"
	"strconv"
	"time"

	"risk-core/internal/account"
	"risk-core/internal/monitor"
	"risk-core/internal/profile"
	"risk-core/internal/risk"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) manager(c *gin.Context) (*account.Manager, bool) {
	userID := CurrentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":  "UNAUTHORIZED",
			"error": "no authenticated user",
		})
		return nil, false
	}
	mgr, err := s.Accounts.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return nil, false
	}
	return mgr, true
}

// calculateSize runs the pure sizing calculator. Invalid inputs still return
// 200 with is_valid=false so the UI can show every field error at once.
func (s *Server) calculateSize(c *gin.Context) {
	var req risk.PositionSizeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}
	c.JSON(http.StatusOK, risk.Size(req))
}

func (s *Server) getRiskSnapshot(c *gin.Context) {
	mgr, ok := s.manager(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, mgr.Snapshot())
}

// enforceTrade runs the admission gate against the caller's live account.
func (s *Server) enforceTrade(c *gin.Context) {
	mgr, ok := s.manager(c)
	if !ok {
		return
	}

	var req risk.TradeEnforcementRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}
	if req.Side != risk.SideLong && req.Side != risk.SideShort {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_SIDE",
			"error": "side must be LONG or SHORT",
		})
		return
	}
	if req.EntryPrice <= 0 || req.Size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_TRADE",
			"error": "entry price and size must be positive",
		})
		return
	}

	var timer *monitor.Timer
	if s.Metrics != nil {
		s.Metrics.IncrementEnforceChecks()
		timer = monitor.NewTimer(s.Metrics.EnforceLatency)
	}

	res, snap := mgr.EnforceTrade(req)

	if timer != nil {
		timer.Stop()
	}
	if s.Metrics != nil {
		if res.Blocked {
			s.Metrics.IncrementEnforceBlocks()
		} else if res.AdjustedSize < req.Size {
			s.Metrics.IncrementEnforceResizes()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"result":   res,
		"snapshot": snap,
	})
}

func (s *Server) getRiskSettings(c *gin.Context) {
	mgr, ok := s.manager(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, mgr.Settings())
}

func validateSettings(st risk.Settings) (string, bool) {
	if st.DailyLossLimitPct <= 0 || st.DailyLossLimitPct > 100 {
		return "daily_loss_limit_pct must be in (0, 100]", false
	}
	if st.MaxRiskPerTradePct <= 0 || st.MaxRiskPerTradePct > 100 {
		return "max_risk_per_trade_pct must be in (0, 100]", false
	}
	if st.MaxLeverage < 1 {
		return "max_leverage must be at least 1", false
	}
	if st.MDLPercent < 0 || st.MLPercent < 0 {
		return "mdl_percent and ml_percent must be non-negative", false
	}
	return "", true
}

func (s *Server) updateRiskSettings(c *gin.Context) {
	mgr, ok := s.manager(c)
	if !ok {
		return
	}

	var req risk.Settings
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}
	if msg, valid := validateSettings(req); !valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_SETTINGS",
			"error": msg,
		})
		return
	}

	if err := mgr.UpdateSettings(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, mgr.Settings())
}

func (s *Server) listRiskProfiles(c *gin.Context) {
	rows, err := s.DB.ListRiskProfiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, profile.FromRow(r))
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// applyRiskProfile overlays a named preset onto the caller's settings.
func (s *Server) applyRiskProfile(c *gin.Context) {
	mgr, ok := s.manager(c)
	if !ok {
		return
	}

	name := c.Param("name")
	row, err := s.DB.GetRiskProfile(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":  "PROFILE_NOT_FOUND",
			"error": "unknown risk profile: " + name,
		})
		return
	}

	next := profile.Apply(profile.FromRow(*row), mgr.Settings())
	if err := mgr.UpdateSettings(c.Request.Context(), next); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":  name,
		"settings": mgr.Settings(),
	})
}

func (s *Server) getAccount(c *gin.Context) {
	mgr, ok := s.manager(c)
	if !ok {
		return
	}
	eq := mgr.Equity()
	snap := mgr.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"starting_capital": eq.StartingCapital,
		"current_equity":   eq.CurrentEquity,
		"daily_pnl":        snap.DailyPnL,
		"status":           snap.Status,
	})
}

func (s *Server) listTrades(c *gin.Context) {
	userID := CurrentUserID(c)
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":  "INVALID_LIMIT",
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	trades, err := s.DB.ListJournalTrades(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

type recordTradeRequest struct {
	Symbol     string    `json:"symbol"`
	Side       risk.Side `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   *float64  `json:"stop_loss,omitempty"`
	ExitPrice  *float64  `json:"exit_price,omitempty"`
	Size       float64   `json:"size"`
	Leverage   float64   `json:"leverage,omitempty"`
	PnL        float64   `json:"pnl"`
	Closed     bool      `json:"closed"`
}

// recordTrade commits a journal entry and returns the post-commit snapshot.
func (s *Server) recordTrade(c *gin.Context) {
	mgr, ok := s.manager(c)
	if !ok {
		return
	}

	var req recordTradeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_PAYLOAD",
			"error": "invalid request payload",
		})
		return
	}
	if req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "MISSING_SYMBOL",
			"error": "symbol is required",
		})
		return
	}
	if req.Side != risk.SideLong && req.Side != risk.SideShort {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_SIDE",
			"error": "side must be LONG or SHORT",
		})
		return
	}
	if req.EntryPrice <= 0 || req.Size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  "INVALID_TRADE",
			"error": "entry price and size must be positive",
		})
		return
	}

	trade := account.Trade{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		ExitPrice:  req.ExitPrice,
		Size:       req.Size,
		Leverage:   req.Leverage,
		PnL:        req.PnL,
		Closed:     req.Closed,
	}

	var timer *monitor.Timer
	if s.Metrics != nil {
		timer = monitor.NewTimer(s.Metrics.DBLatency)
	}
	snap, err := mgr.RecordTrade(c.Request.Context(), trade)
	if timer != nil {
		timer.Stop()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"trade_id": trade.ID,
		"snapshot": snap,
	})
}

func (s *Server) getMetrics(c *gin.Context) {
	if s.Metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	s.Metrics.SetActiveAccounts(s.Accounts.Count())
	snap := s.Metrics.GetSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"metrics":   snap,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
