package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/server/middleware"
	"github.com/inboundemail/inbound-core/internal/service"
)

// EmailHandler exposes the outbound send/reply surface (Sender) alongside the
// inbound-record read surface (EmailRecordService) and thread reconstruction
// (ThreadService), matching the combined "/emails" resource.
type EmailHandler struct {
	sender  service.Sender
	records service.EmailRecordService
	threads service.ThreadService
}

// NewEmailHandler creates an EmailHandler.
func NewEmailHandler(sender service.Sender, records service.EmailRecordService, threads service.ThreadService) *EmailHandler {
	return &EmailHandler{sender: sender, records: records, threads: threads}
}

// Send handles POST /emails.
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.SendEmailRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := pkg.Validate(&req); err != nil {
		pkg.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	attachments, err := decodeAttachments(req.Attachments)
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.sender.Send(r.Context(), auth.OwnerUser, service.SendRequest{
		From:            req.From,
		To:              req.To,
		Cc:              req.Cc,
		Bcc:             req.Bcc,
		ReplyTo:         req.ReplyTo,
		Subject:         req.Subject,
		Text:            req.Text,
		HTML:            req.HTML,
		Headers:         req.Headers,
		Attachments:     attachments,
		Tags:            tagsToJSONMap(req.Tags),
		IdempotencyKey:  req.IdempotencyKey,
		MessageIDHeader: req.MessageID,
	})
	if err != nil {
		if msg == nil {
			handleServiceError(w, err)
			return
		}
		pkg.JSON(w, http.StatusInternalServerError, sentMessageToResponse(msg))
		return
	}
	pkg.JSON(w, http.StatusOK, sentMessageToResponse(msg))
}

// Reply handles POST /emails/{emailId}/reply.
func (h *EmailHandler) Reply(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	emailID, err := uuid.Parse(chi.URLParam(r, "emailId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid email id")
		return
	}

	var req dto.ReplyEmailRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := pkg.Validate(&req); err != nil {
		pkg.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	attachments, err := decodeAttachments(req.Attachments)
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.sender.Reply(r.Context(), auth.OwnerUser, service.ReplyRequest{
		SendRequest: service.SendRequest{
			From:           req.From,
			To:             req.To,
			Cc:             req.Cc,
			Bcc:            req.Bcc,
			ReplyTo:        req.ReplyTo,
			Subject:        req.Subject,
			Text:           req.Text,
			HTML:           req.HTML,
			Headers:        req.Headers,
			Attachments:    attachments,
			Tags:           tagsToJSONMap(req.Tags),
			IdempotencyKey: req.IdempotencyKey,
		},
		OriginEmailID:   emailID,
		IncludeOriginal: req.IncludeOriginal,
	})
	if err != nil {
		if msg == nil {
			handleServiceError(w, err)
			return
		}
		pkg.JSON(w, http.StatusInternalServerError, sentMessageToResponse(msg))
		return
	}
	pkg.JSON(w, http.StatusOK, sentMessageToResponse(msg))
}

// List handles GET /emails.
func (h *EmailHandler) List(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := parsePagination(r)

	resp, err := h.records.List(r.Context(), auth.OwnerUser, &params)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Get handles GET /emails/{emailId}.
func (h *EmailHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	emailID, err := uuid.Parse(chi.URLParam(r, "emailId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid email id")
		return
	}

	resp, err := h.records.Get(r.Context(), auth.OwnerUser, emailID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// MarkRead handles POST /emails/{emailId}/read.
func (h *EmailHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	emailID, err := uuid.Parse(chi.URLParam(r, "emailId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid email id")
		return
	}

	isRead := true
	resp, err := h.records.Update(r.Context(), auth.OwnerUser, emailID, &dto.UpdateEmailRecordRequest{IsRead: &isRead})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Thread handles GET /emails/{emailId}/thread.
func (h *EmailHandler) Thread(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	emailID, err := uuid.Parse(chi.URLParam(r, "emailId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid email id")
		return
	}

	messages, err := h.threads.GetThread(r.Context(), auth.OwnerUser, emailID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	data := make([]dto.ThreadMessageResponse, 0, len(messages))
	for _, m := range messages {
		data = append(data, dto.ThreadMessageResponse{
			Kind:      string(m.Kind),
			ID:        m.ID.String(),
			MessageID: m.MessageID,
			From:      m.From,
			To:        m.To,
			Subject:   m.Subject,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	pkg.JSON(w, http.StatusOK, dto.ListResponse[dto.ThreadMessageResponse]{Data: data})
}

// parsePagination extracts page and per_page from query params with defaults.
func parsePagination(r *http.Request) dto.PaginationParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	params := dto.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}
	params.Normalize()
	return params
}

func decodeAttachments(in []dto.Attachment) ([]service.SendAttachment, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]service.SendAttachment, 0, len(in))
	for _, a := range in {
		content, err := base64.StdEncoding.DecodeString(a.Content)
		if err != nil {
			return nil, err
		}
		out = append(out, service.SendAttachment{Filename: a.Filename, Content: content, ContentType: a.ContentType})
	}
	return out, nil
}

func tagsToJSONMap(tags map[string]string) model.JSONMap {
	if len(tags) == 0 {
		return nil
	}
	out := make(model.JSONMap, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func sentMessageToResponse(msg *model.SentMessage) *dto.SentMessageResponse {
	if msg == nil {
		return nil
	}
	resp := &dto.SentMessageResponse{
		ID:                msg.ID.String(),
		From:              msg.From,
		To:                msg.To,
		Cc:                msg.Cc,
		Bcc:               msg.Bcc,
		ReplyTo:           msg.ReplyTo,
		Subject:           msg.Subject,
		Status:            msg.Status,
		MessageID:         msg.MessageID,
		ProviderMessageID: msg.ProviderMessageID,
		FailureReason:     msg.FailureReason,
		CreatedAt:         msg.CreatedAt.Format(time.RFC3339),
	}
	if msg.SentAt != nil {
		sentAt := msg.SentAt.Format(time.RFC3339)
		resp.SentAt = &sentAt
	}
	return resp
}
