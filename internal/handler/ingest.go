package handler

import (
	"net/http"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/service"
)

// IngestHandler exposes the mailer's ingestion callback. Authentication
// is handled by middleware.ServiceAuth; this handler only decodes the body and always
// answers 200 so the mailer is never driven to retry ("Failure semantics").
type IngestHandler struct {
	ingestor service.Ingestor
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(ingestor service.Ingestor) *IngestHandler {
	return &IngestHandler{ingestor: ingestor}
}

// Ingest handles POST /ingest.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req dto.IngestRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.JSON(w, http.StatusOK, dto.IngestResponse{Success: false, RejectedRecipients: []dto.IngestRejection{{Error: "invalid payload"}}})
		return
	}
	if len(req.ProcessedRecords) == 0 {
		pkg.JSON(w, http.StatusOK, dto.IngestResponse{Success: false, RejectedRecipients: []dto.IngestRejection{{Error: "missing processed_records"}}})
		return
	}

	resp := h.ingestor.Ingest(r.Context(), &req)
	pkg.JSON(w, http.StatusOK, resp)
}
