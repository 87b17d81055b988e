package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vsinha/fulfillment/pkg/application/services/session"
	"github.com/vsinha/fulfillment/pkg/domain/entities"
	"github.com/vsinha/fulfillment/pkg/domain/services/allocation"
)

type openRequest struct {
	DemandID string `json:"demand_id" binding:"required"`
}

type locationRequest struct {
	LocationID int64           `json:"location_id" binding:"required"`
	Qty        decimal.Decimal `json:"qty"`
}

type quantityRequest struct {
	Qty decimal.Decimal `json:"qty"`
}

func (s *Server) openSession(c *gin.Context) {
	var input openRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess, err := s.sessions.Open(c.Request.Context(), entities.DemandID(input.DemandID))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusCreated, "session opened", sess.View())
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	success(c, http.StatusOK, "session loaded", sess.View())
}

func (s *Server) cancelSession(c *gin.Context) {
	if err := s.sessions.Cancel(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, "session cancelled", nil)
}

func (s *Server) addLocation(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var input locationRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	target := allocation.LocationTarget(entities.LocationID(input.LocationID))
	s.apply(c, sess, allocation.OpAddLocation, target, input.Qty)
}

func (s *Server) editLocation(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	id, ok := locationParam(c)
	if !ok {
		return
	}
	var input quantityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	s.apply(c, sess, allocation.OpEditLocation, allocation.LocationTarget(id), input.Qty)
}

func (s *Server) removeLocation(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	id, ok := locationParam(c)
	if !ok {
		return
	}

	if err := sess.RemoveLocation(id); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, "location removed", sess.View())
}

func (s *Server) setExternal(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var input quantityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		failure(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	// Unknown channels are rejected by the allocation rules as NotFound
	target := allocation.ChannelTarget(entities.Channel(c.Param("channel")))
	s.apply(c, sess, allocation.OpSetExternal, target, input.Qty)
}

func (s *Server) submit(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	records, err := sess.Submit(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, "fulfillment submitted", records)
}

func (s *Server) demandActivity(c *gin.Context) {
	a, ok := s.activity.Get(entities.DemandID(c.Param("demand_id")))
	if !ok {
		failure(c, http.StatusNotFound, "no activity for demand", nil)
		return
	}
	success(c, http.StatusOK, "demand activity", a)
}

func (s *Server) apply(c *gin.Context, sess *session.Session, op allocation.Operation, target allocation.Target, qty decimal.Decimal) {
	if err := sess.Apply(op, target, qty); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, "plan updated", sess.View())
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

func locationParam(c *gin.Context) (entities.LocationID, bool) {
	id, err := strconv.ParseInt(c.Param("location_id"), 10, 64)
	if err != nil || id <= 0 {
		failure(c, http.StatusBadRequest, "invalid location id", err)
		return 0, false
	}
	return entities.LocationID(id), true
}
