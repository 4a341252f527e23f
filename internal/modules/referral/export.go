package referral

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/pkg/export"
	"github.com/referrio/core/internal/pkg/response"
	"go.uber.org/zap"
)

// Exporter renders an agency's referrals to CSV and optionally archives the
// artifact to object storage.
type Exporter struct {
	svc      *Service
	uploader *export.Uploader
	log      *zap.Logger
}

func NewExporter(svc *Service, uploader *export.Uploader, log *zap.Logger) *Exporter {
	return &Exporter{svc: svc, uploader: uploader, log: log}
}

var csvHeader = []string{
	"id", "patient_name", "patient_phone", "patient_email",
	"insurance", "care_needs", "source", "status", "notes", "created", "modified",
}

// CSV renders all referrals for the agency.
func (e *Exporter) CSV(ctx context.Context, agencyID string) ([]byte, error) {
	cur, err := e.svc.All(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for cur.Next(ctx) {
		var r Referral
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		row := []string{
			r.ID.Hex(), r.PatientName, r.PatientPhone, r.PatientEmail,
			r.Insurance, r.CareNeeds, r.SourceName, r.Status, r.Notes,
			r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// export streams the CSV to the caller and archives a copy in the background
// when an uploader is configured. Archive failures are logged, never surfaced.
func (h *Handler) export(c *gin.Context) {
	agencyID := h.scopedAgencyID(c)
	data, err := h.exporter.CSV(c.Request.Context(), agencyID)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	if h.exporter.uploader != nil {
		key := fmt.Sprintf("%s/referrals-%s.csv", agencyID, time.Now().Format("20060102-150405"))
		payload := make([]byte, len(data))
		copy(payload, data)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
			defer cancel()
			if _, err := h.exporter.uploader.Upload(ctx, key, payload, "text/csv"); err != nil {
				h.log.Warn("export archive failed", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	filename := fmt.Sprintf("referrals-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, "text/csv; charset=utf-8", data)
}
