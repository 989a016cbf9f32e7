package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/pkg/config"
	"finanzas/pkg/logging"
	"finanzas/pkg/movimientos"
	"finanzas/pkg/store"
)

const msgInternal = "Error interno del servidor"

// server holds the dependencies shared by every handler.
type server struct {
	cfg     *config.Config
	db      *store.DB
	auth    *authService
	jwt     *JWTManager
	repo    *movimientos.Repository
	dash    *movimientos.Dashboard
	metrics *metrics
}

// newServer wires the handlers over db. now is the dashboard clock; nil means time.Now.
func newServer(cfg *config.Config, db *store.DB, now func() time.Time) *server {
	jm := NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	return &server{
		cfg:     cfg,
		db:      db,
		jwt:     jm,
		auth:    &authService{db: db.Gorm(), jwt: jm, refreshTTL: cfg.RefreshTTL},
		repo:    movimientos.NewRepository(db),
		dash:    movimientos.NewDashboard(db, now),
		metrics: newMetrics(),
	}
}

func (s *server) setupRoutes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), recovery(), accessLog(), s.metrics.middleware(), cors(s.cfg.AllowedOrigins()))

	r.GET("/healthz", s.healthHandler)
	r.GET("/metrics", s.metrics.handler())

	api := r.Group("/api")
	api.POST("/auth/login", s.loginHandler)
	api.POST("/auth/refresh", s.refreshHandler)
	api.POST("/auth/revoke", s.revokeHandler)

	authGroup := api.Group("")
	authGroup.Use(authRequired(s.jwt))
	authGroup.GET("/me", s.meHandler)

	tx := authGroup.Group("/transacciones")
	tx.GET("", s.listHandler)
	tx.POST("", s.createHandler)
	tx.GET("/catalogos", s.catalogosHandler)
	tx.GET("/dashboard", s.dashboardHandler)
	tx.GET("/resumen", s.resumenHandler)
	tx.PUT("/:tipo/:id", s.updateHandler)
	tx.DELETE("/:tipo/:id", s.deleteHandler)
	return r
}

// writeError maps domain errors onto status codes. Anything unexpected is
// logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, movimientos.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Transacción no encontrada"})
	case errors.Is(err, movimientos.ErrTipo):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo inválido"})
	case errors.Is(err, movimientos.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			logging.Err(err),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(ctxRequestID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

func (s *server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		slog.Warn("health check failed", logging.Err(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dialect": s.db.Dialect()})
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email y contraseña son requeridos"})
		return
	}
	ctx := c.Request.Context()
	user, err := s.auth.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(c, err)
		return
	}
	refresh, err := s.auth.createRefreshToken(ctx, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refresh,
		"user":          gin.H{"id": user.ID, "nombre": user.Nombre, "email": user.Email},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func (s *server) refreshHandler(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token es requerido"})
		return
	}
	user, refresh, err := s.auth.rotateRefreshToken(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, ErrInvalidToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token inválido o expirado"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := s.jwt.Generate(user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "refresh_token": refresh})
}

// revokeHandler revokes a refresh token (used on logout)
func (s *server) revokeHandler(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token es requerido"})
		return
	}
	err := s.auth.revokeRefreshToken(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, ErrRefreshNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Refresh token no encontrado"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Refresh token revocado"})
}

func (s *server) meHandler(c *gin.Context) {
	claims := claimsFrom(c)
	c.JSON(http.StatusOK, gin.H{"id": claims.ID, "email": claims.Email, "nombre": claims.Nombre})
}

func (s *server) listHandler(c *gin.Context) {
	rng := movimientos.Range{Desde: c.Query("desde"), Hasta: c.Query("hasta")}
	out, err := s.repo.List(c.Request.Context(), rng)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) createHandler(c *gin.Context) {
	var req struct {
		Tipo string `json:"tipo"`
		movimientos.Input
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la solicitud inválido"})
		return
	}
	tipo, err := movimientos.ParseTipo(req.Tipo)
	if err != nil {
		writeError(c, err)
		return
	}
	var userID int64
	if claims := claimsFrom(c); claims != nil {
		userID = int64(claims.ID)
	}
	id, err := s.repo.Create(c.Request.Context(), tipo, req.Input, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	s.metrics.movements.WithLabelValues(string(tipo), "create").Inc()
	c.JSON(http.StatusCreated, gin.H{"message": "Transacción guardada exitosamente", "id": id})
}

// target parses the :tipo and :id path parameters.
func target(c *gin.Context) (movimientos.Tipo, int64, bool) {
	tipo, err := movimientos.ParseTipo(c.Param("tipo"))
	if err != nil {
		writeError(c, err)
		return "", 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return "", 0, false
	}
	return tipo, id, true
}

func (s *server) updateHandler(c *gin.Context) {
	tipo, id, ok := target(c)
	if !ok {
		return
	}
	var in movimientos.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la solicitud inválido"})
		return
	}
	if err := s.repo.Update(c.Request.Context(), tipo, id, in); err != nil {
		writeError(c, err)
		return
	}
	s.metrics.movements.WithLabelValues(string(tipo), "update").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Actualizado exitosamente"})
}

func (s *server) deleteHandler(c *gin.Context) {
	tipo, id, ok := target(c)
	if !ok {
		return
	}
	if err := s.repo.Delete(c.Request.Context(), tipo, id); err != nil {
		writeError(c, err)
		return
	}
	s.metrics.movements.WithLabelValues(string(tipo), "delete").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Eliminado exitosamente"})
}

func (s *server) catalogosHandler(c *gin.Context) {
	out, err := s.repo.Catalogos(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) dashboardHandler(c *gin.Context) {
	rng := movimientos.Range{Desde: c.Query("desde"), Hasta: c.Query("hasta")}
	out, err := s.dash.Metrics(c.Request.Context(), rng)
	if err != nil {
		writeError(c, err)
		return
	}
	for _, g := range out.Failed() {
		slog.ErrorContext(c.Request.Context(), "dashboard grouping failed",
			"grouping", g.Name,
			logging.Err(g.Err),
			"request_id", c.GetString(ctxRequestID),
		)
		s.metrics.dashboardFailures.WithLabelValues(g.Name).Inc()
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) resumenHandler(c *gin.Context) {
	out, err := s.repo.Totales(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
