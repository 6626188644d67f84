package handler

import (
	"errors"
	"net/http"
	"time"

	"counsel-backend/internal/domain"
	"counsel-backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type RuleSetHandler struct {
	store storage.Storage
}

func NewRuleSetHandler(store storage.Storage) *RuleSetHandler {
	return &RuleSetHandler{store: store}
}

func (h *RuleSetHandler) Create(c *gin.Context) {
	var rs domain.RuleSet
	if err := c.ShouldBindJSON(&rs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	rs.CreatedAt = now
	rs.UpdatedAt = now

	if err := h.store.SaveRuleSet(&rs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rs)
}

func (h *RuleSetHandler) Get(c *gin.Context) {
	rs, err := h.store.GetRuleSet(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rs)
}

func (h *RuleSetHandler) List(c *gin.Context) {
	rulesets, err := h.store.ListRuleSets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rulesets": rulesets})
}

func (h *RuleSetHandler) Update(c *gin.Context) {
	name := c.Param("name")

	existing, err := h.store.GetRuleSet(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var rs domain.RuleSet
	if err := c.ShouldBindJSON(&rs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rs.Name = name
	rs.CreatedAt = existing.CreatedAt
	rs.UpdatedAt = time.Now()

	if err := h.store.SaveRuleSet(&rs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rs)
}

func (h *RuleSetHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteRuleSet(c.Param("name")); err != nil {
		if errors.Is(err, storage.ErrRuleSetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ruleset deleted successfully"})
}
