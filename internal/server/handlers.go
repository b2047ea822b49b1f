package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aveekpatra/BestClient-sub000/internal/ledger"
	"github.com/aveekpatra/BestClient-sub000/internal/models"
)

func (s *Server) createClient(c *gin.Context) {
	var input ledger.ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	client, err := s.ledger.CreateClient(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, "createClient", err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (s *Server) listClients(c *gin.Context) {
	clients, err := s.ledger.ListClients(c.Request.Context())
	if err != nil {
		s.writeError(c, "listClients", err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (s *Server) deleteClient(c *gin.Context) {
	if err := s.ledger.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, "deleteClient", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getClientBalance(c *gin.Context) {
	clientID := c.Param("id")
	balance, err := s.ledger.GetClientBalance(c.Request.Context(), clientID)
	if err != nil {
		s.writeError(c, "getClientBalance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client_id": clientID, "balance": balance})
}

func (s *Server) createWork(c *gin.Context) {
	var input ledger.WorkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	work, err := s.ledger.CreateWork(c.Request.Context(), input)
	if err != nil {
		s.writeError(c, "createWork", err)
		return
	}
	c.JSON(http.StatusCreated, work)
}

func (s *Server) updateWork(c *gin.Context) {
	var input ledger.WorkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	work, err := s.ledger.UpdateWork(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		s.writeError(c, "updateWork", err)
		return
	}
	c.JSON(http.StatusOK, work)
}

func (s *Server) deleteWork(c *gin.Context) {
	if err := s.ledger.DeleteWork(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, "deleteWork", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listWorks(c *gin.Context) {
	filter := models.WorkFilter{
		ClientID: c.Query("client_id"),
		Status:   models.PaymentStatus(c.Query("status")),
	}
	switch filter.Status {
	case "", models.PaymentStatusUnpaid, models.PaymentStatusPartial, models.PaymentStatusPaid:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return
		}
		filter.To = &to
	}

	works, err := s.ledger.ListWorks(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, "listWorks", err)
		return
	}
	if works == nil {
		works = []models.WorkTransaction{}
	}
	c.JSON(http.StatusOK, gin.H{"works": works})
}

func (s *Server) listClientWorks(c *gin.Context) {
	works, err := s.ledger.ListWorksByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "listClientWorks", err)
		return
	}
	if works == nil {
		works = []models.WorkTransaction{}
	}
	c.JSON(http.StatusOK, gin.H{"works": works})
}

func (s *Server) getHistory(c *gin.Context) {
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)

	page, err := s.ledger.GetHistory(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		s.writeError(c, "getHistory", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getTimeline(c *gin.Context) {
	timeline, err := s.ledger.GetTimeline(c.Request.Context(), c.Param("id"), intQuery(c, "limit", 0))
	if err != nil {
		s.writeError(c, "getTimeline", err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (s *Server) validateBalance(c *gin.Context) {
	result, err := s.ledger.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, "validateBalance", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) repairBalance(c *gin.Context) {
	clientID := c.Param("id")
	if _, err := s.ledger.GetClient(c.Request.Context(), clientID); err != nil {
		s.writeError(c, "repairBalance", err)
		return
	}

	correction, err := s.ledger.Repair(c.Request.Context(), clientID)
	if err != nil {
		s.writeError(c, "repairBalance", err)
		return
	}

	corrections := []ledger.Correction{}
	if correction != nil {
		corrections = append(corrections, *correction)
	}
	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

func (s *Server) repairAll(c *gin.Context) {
	corrections, err := s.ledger.RepairAll(c.Request.Context())
	if err != nil {
		s.writeError(c, "repairAll", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

func (s *Server) manualAdjustment(c *gin.Context) {
	var input ledger.AdjustmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := s.ledger.ManualAdjustment(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		s.writeError(c, "manualAdjustment", err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
