package handlers

import (
	"net/http"

	"github.com/gilcleber/Controle-Premios-sub000/internal/buildinfo"
	"github.com/gin-gonic/gin"
)

// VersionHandler reports the running build.
type VersionHandler struct{}

// NewVersionHandler constructs a VersionHandler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// VersionResponse is the response for the version endpoint.
type VersionResponse struct {
	CurrentVersion string `json:"current_version"`
	Commit         string `json:"commit,omitempty"`
	BuildDate      string `json:"build_date,omitempty"`
}

// GetVersion returns the version stamped into the binary.
func (h *VersionHandler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		CurrentVersion: buildinfo.Version,
		Commit:         buildinfo.Commit,
		BuildDate:      buildinfo.BuildDate,
	})
}
