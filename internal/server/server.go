package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aveekpatra/BestClient-sub000/internal/config"
	"github.com/aveekpatra/BestClient-sub000/internal/ledger"
)

// Server exposes the ledger over HTTP.
type Server struct {
	ledger *ledger.Service
	logger *logrus.Logger
}

func New(ledgerService *ledger.Service, logger *logrus.Logger) *Server {
	return &Server{ledger: ledgerService, logger: logger}
}

// Router wires all routes onto a gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/clients", s.createClient)
	router.GET("/clients", s.listClients)
	router.DELETE("/clients/:id", s.deleteClient)
	router.GET("/clients/:id/balance", s.getClientBalance)
	router.GET("/clients/:id/works", s.listClientWorks)
	router.GET("/clients/:id/history", s.getHistory)
	router.GET("/clients/:id/timeline", s.getTimeline)
	router.GET("/clients/:id/balance/validate", s.validateBalance)
	router.POST("/clients/:id/balance/repair", s.repairBalance)
	router.POST("/clients/:id/adjustments", s.manualAdjustment)
	router.POST("/balance/repair-all", s.repairAll)

	router.POST("/works", s.createWork)
	router.PUT("/works/:id", s.updateWork)
	router.DELETE("/works/:id", s.deleteWork)
	router.GET("/works", s.listWorks)

	return router
}

// writeError maps the ledger error taxonomy onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, funcName string, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ledger.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		config.LogError(s.logger, "server", funcName, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
