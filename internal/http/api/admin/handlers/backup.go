package handlers

import (
	"net/http"
	"time"

	stationhandlers "github.com/gilcleber/Controle-Premios-sub000/internal/http/api/station/handlers"
	"github.com/gilcleber/Controle-Premios-sub000/internal/inventory"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// BackupHandler exports and restores prizes and outputs as JSON.
type BackupHandler struct {
	svc *inventory.Service
}

// NewBackupHandler constructs a BackupHandler.
func NewBackupHandler(svc *inventory.Service) *BackupHandler {
	return &BackupHandler{svc: svc}
}

// Export downloads every prize and output.
func (h *BackupHandler) Export(c *gin.Context) {
	backup, err := h.svc.ExportBackup(c.Request.Context(), inventory.Scope{})
	if err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	filename := "backup_premios_" + time.Now().UTC().Format("2006-01-02") + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, backup)
}

// Restore replaces all prizes and outputs with the uploaded backup.
func (h *BackupHandler) Restore(c *gin.Context) {
	var body inventory.Backup
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.svc.RestoreBackup(c.Request.Context(), &body); err != nil {
		stationhandlers.WriteServiceError(c, err)
		return
	}
	log.WithFields(log.Fields{"prizes": len(body.Prizes), "outputs": len(body.Outputs)}).Warn("backup restored")
	c.JSON(http.StatusOK, gin.H{"ok": true, "prizes": len(body.Prizes), "outputs": len(body.Outputs)})
}
