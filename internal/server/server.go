package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pix-backend/internal/config"
	"pix-backend/internal/domain"
	"pix-backend/internal/infrastructure/registry"
	"pix-backend/internal/usecase"
)

// OrderCache is the projection cache for the status-query path. It is
// populated by the mutation handlers only; a cache entry never outlives the
// next write for its key.
type OrderCache interface {
	Get(ctx context.Context, transactionID string) (*domain.Order, bool)
	Set(ctx context.Context, o *domain.Order)
	Invalidate(ctx context.Context, transactionID string)
	Ping(ctx context.Context) error
}

type Server struct {
	cfg       config.Config
	checkout  *usecase.CheckoutService
	reconcile *usecase.ReconcileService
	auth      *usecase.AuthService
	registry  *registry.Client
	cache     OrderCache
	dbPing    func() error
	engine    *gin.Engine
}

func New(cfg config.Config, checkout *usecase.CheckoutService, reconcile *usecase.ReconcileService, auth *usecase.AuthService, reg *registry.Client, orderCache OrderCache, dbPing func() error) *Server {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:       cfg,
		checkout:  checkout,
		reconcile: reconcile,
		auth:      auth,
		registry:  reg,
		cache:     orderCache,
		dbPing:    dbPing,
		engine:    gin.New(),
	}
	s.engine.Use(gin.Logger(), gin.Recovery(), cors())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/payments", s.handleCreatePayment)
	v1.POST("/webhooks/payment", s.handleWebhook)
	v1.GET("/payments/transaction/:transaction_id", s.handleGetPayment)
	v1.GET("/orders", s.requireAuth(), s.handleListOrders)

	s.engine.GET("/api/cnpj/:cnpj", s.handleCNPJ)
	s.engine.GET("/api/cnpj", s.handleCNPJ)
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.auth == nil || s.auth.JWTSecret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "diagnostics disabled"})
			return
		}
		h := c.GetHeader("Authorization")
		token := strings.TrimPrefix(h, "Bearer ")
		if token == "" || token == h {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}
		if _, err := s.auth.Verify(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}
	if s.dbPing != nil {
		if err := s.dbPing(); err != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(c.Request.Context()); err != nil {
			checks["cache"] = "down"
		} else {
			checks["cache"] = "ok"
		}
	}
	c.JSON(status, gin.H{"status": statusWord(status), "checks": checks})
}

func statusWord(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "degraded"
}

func (s *Server) handleCreatePayment(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	in := usecase.CheckoutInput{
		Amount:    amountString(raw["amount"]),
		Name:      stringField(raw, "name"),
		Email:     stringField(raw, "email"),
		Phone:     stringField(raw, "phone"),
		Document:  stringField(raw, "document"),
		Reference: stringField(raw, "reference"),
		IP:        c.ClientIP(),
	}
	if in.Document == "" {
		in.Document = stringField(raw, "cpf")
	}
	if in.Phone == "" {
		in.Phone = stringField(raw, "telephone")
	}
	if tp, ok := raw["tracking_params"].(map[string]any); ok {
		in.Tracking = tp
	} else if tp, ok := raw["utm_params"].(map[string]any); ok {
		in.Tracking = tp
	} else {
		// attribution keys may also arrive at the top level
		in.Tracking = raw
	}

	out, err := s.checkout.CreateOrder(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.cache != nil {
		if o, err := s.checkout.GetOrder(out.TransactionID); err == nil {
			s.cache.Set(c.Request.Context(), o)
		}
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction_id": out.TransactionID,
		"status":         out.Status,
		"amount":         out.AmountCents,
		"pix_code":       out.PixCode,
		"qr_code_url":    out.QRCodeURL,
		"txid":           out.Txid,
	})
}

func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if s.cfg.WebhookSecret != "" && !validSignature(s.cfg.WebhookSecret, body, c.GetHeader("X-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad signature"})
		return
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := s.reconcile.ApplyWebhook(payload)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.cache != nil {
		s.cache.Invalidate(c.Request.Context(), res.TransactionID)
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction_id": res.TransactionID,
		"status":         res.Status,
	})
}

func validSignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}

// handleGetPayment never populates the cache: a miss-read racing a webhook's
// invalidation would otherwise pin the stale projection for the full TTL.
func (s *Server) handleGetPayment(c *gin.Context) {
	id := c.Param("transaction_id")
	if s.cache != nil {
		if o, ok := s.cache.Get(c.Request.Context(), id); ok {
			c.JSON(http.StatusOK, o)
			return
		}
	}
	o, err := s.checkout.GetOrder(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleListOrders(c *gin.Context) {
	ids, err := s.checkout.ListOrders()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction_ids": ids, "count": len(ids)})
}

func (s *Server) handleCNPJ(c *gin.Context) {
	cnpj := c.Param("cnpj")
	if cnpj == "" {
		cnpj = c.Query("cnpj")
	}
	cnpj = onlyDigits(cnpj)
	if len(cnpj) != 14 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cnpj must have 14 digits"})
		return
	}
	raw, err := s.registry.Lookup(c.Request.Context(), cnpj)
	if err != nil {
		var nf registry.ErrNotFound
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cnpj not found"})
			return
		}
		log.Printf("cnpj lookup %s: %v", cnpj, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registry unavailable"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) fail(c *gin.Context, err error) {
	var bad usecase.ErrBadRequest
	var nf usecase.ErrNotFound
	var conflict usecase.ErrConflict
	var up usecase.ErrUpstream
	switch {
	case errors.As(err, &bad):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &up):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("server: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// amountString renders an amount that may arrive as a JSON string or number.
func amountString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
