package server

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "rouvia/internal/common/errors"
	"rouvia/internal/models"
	planroute "rouvia/internal/workers/route-planning/plan-route"

	"github.com/gin-gonic/gin"
)

type planTextRequest struct {
	Text     string          `json:"text"`
	Location json.RawMessage `json:"location,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
	OpenNow  *bool           `json:"open_now,omitempty"`
}

// PlanRouteAudio accepts a multipart upload with an "audio" file and optional
// "location" (JSON) and "user_id" fields.
func (s *Server) PlanRouteAudio(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		s.fail(c, apperrors.NewValidationError("audio file is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.fail(c, apperrors.NewValidationError("audio file could not be read"))
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(io.LimitReader(f, s.config.MaxUploadBytes+1))
	if err != nil {
		s.fail(c, apperrors.NewValidationError("audio file could not be read"))
		return
	}
	if int64(len(audio)) > s.config.MaxUploadBytes {
		s.fail(c, apperrors.NewValidationError("audio file exceeds the upload limit"))
		return
	}

	s.plan(c, planroute.Request{
		Audio:       audio,
		ContentType: fh.Header.Get("Content-Type"),
		Origin:      models.ParseLocation(c.PostForm("location")),
		UserID:      c.PostForm("user_id"),
	})
}

func (s *Server) PlanRouteText(c *gin.Context) {
	var req planTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	s.plan(c, planroute.Request{
		Text:    req.Text,
		Origin:  models.ParseLocation(string(req.Location)),
		UserID:  req.UserID,
		OpenNow: req.OpenNow,
	})
}

func (s *Server) plan(c *gin.Context, req planroute.Request) {
	resp, err := s.planner.Run(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
