package server

import (
	"net/http"
	"strings"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/models"

	"github.com/gin-gonic/gin"
)

type savedLocationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type visitRequest struct {
	PlaceName    string `json:"place_name"`
	PlaceID      string `json:"place_id"`
	ActivityType string `json:"activity_type"`
	Location     string `json:"location"`
}

func (s *Server) ListSavedLocations(c *gin.Context) {
	userID := c.Param("user_id")
	locations, source, err := s.profiles.SavedLocations(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":         userID,
		"saved_locations": locations,
		"source":          source,
	})
}

func (s *Server) AddSavedLocation(c *gin.Context) {
	req, ok := s.bindSavedLocation(c)
	if !ok {
		return
	}

	id, source, err := s.profiles.Add(c.Request.Context(), c.Param("user_id"), req.Name, req.Address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"id":      id,
		"source":  source,
	})
}

func (s *Server) GetSavedLocation(c *gin.Context) {
	id := c.Param("location_id")
	loc, source, err := s.profiles.GetByID(c.Request.Context(), c.Param("user_id"), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if loc == nil {
		s.fail(c, apperrors.NewNotFoundError("Saved location", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location": loc,
		"source":   source,
	})
}

func (s *Server) UpdateSavedLocation(c *gin.Context) {
	req, ok := s.bindSavedLocation(c)
	if !ok {
		return
	}

	id := c.Param("location_id")
	found, source, err := s.profiles.Update(c.Request.Context(), c.Param("user_id"), id, req.Name, req.Address)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !found {
		s.fail(c, apperrors.NewNotFoundError("Saved location", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "source": source})
}

func (s *Server) DeleteSavedLocation(c *gin.Context) {
	id := c.Param("location_id")
	found, source, err := s.profiles.Delete(c.Request.Context(), c.Param("user_id"), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !found {
		s.fail(c, apperrors.NewNotFoundError("Saved location", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "source": source})
}

func (s *Server) ListVisitedPlaces(c *gin.Context) {
	userID := c.Param("user_id")
	visited, source, err := s.profiles.Visited(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":        userID,
		"visited_places": visited,
		"source":         source,
	})
}

func (s *Server) RecordVisitedPlace(c *gin.Context) {
	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.PlaceName) == "" {
		s.fail(c, apperrors.NewValidationError("place_name is required"))
		return
	}

	source, err := s.profiles.RecordVisit(c.Request.Context(), c.Param("user_id"), models.VisitedPlace{
		PlaceName:    req.PlaceName,
		PlaceID:      req.PlaceID,
		ActivityType: req.ActivityType,
		Location:     req.Location,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "source": source})
}

func (s *Server) bindSavedLocation(c *gin.Context) (savedLocationRequest, bool) {
	var req savedLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		s.fail(c, apperrors.NewValidationError("name is required"))
		return req, false
	}
	return req, true
}
