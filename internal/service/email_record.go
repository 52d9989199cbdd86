package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// EmailRecordService defines read/update/delete operations for received emails.
type EmailRecordService interface {
	List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EmailRecordResponse], error)
	Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EmailRecordDetailResponse, error)
	Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEmailRecordRequest) (*dto.EmailRecordResponse, error)
}

type emailRecordService struct {
	records postgres.EmailRecordRepository
	parsed  postgres.ParsedEmailRepository
}

// NewEmailRecordService creates an EmailRecordService.
func NewEmailRecordService(records postgres.EmailRecordRepository, parsed postgres.ParsedEmailRepository) EmailRecordService {
	return &emailRecordService{records: records, parsed: parsed}
}

func (s *emailRecordService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EmailRecordResponse], error) {
	params.Normalize()

	recs, total, err := s.records.List(ctx, ownerUser, params.PerPage, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing email records: %w", err)
	}

	data := make([]dto.EmailRecordResponse, 0, len(recs))
	for i := range recs {
		data = append(data, emailRecordToResponse(&recs[i]))
	}

	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}

	return &dto.PaginatedResponse[dto.EmailRecordResponse]{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}, nil
}

// Get returns the full EmailRecord joined with its ParsedEmail content. A record
// whose mail never parsed successfully ("ParseSuccess false") is still
// returned with empty body fields rather than an error — the envelope itself is
// always valid even when the MIME body wasn't.
func (s *emailRecordService) Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EmailRecordDetailResponse, error) {
	rec, err := s.records.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return nil, fmt.Errorf("email record not found: %w", err)
	}

	resp := &dto.EmailRecordDetailResponse{EmailRecordResponse: emailRecordToResponse(rec)}

	parsed, err := s.parsed.GetByEmailRecordID(ctx, rec.ID)
	if err != nil {
		return resp, nil
	}

	resp.ParsedFrom = addressGroupToResponse(parsed.From)
	resp.ParsedTo = addressGroupToResponse(parsed.To)
	resp.ParsedCc = addressGroupToResponse(parsed.Cc)
	resp.TextBody = parsed.TextBody
	resp.HTMLBody = parsed.HTMLBody
	resp.Attachments = make([]dto.AttachmentResponse, 0, len(parsed.Attachments))
	for _, a := range parsed.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Size:        a.Size,
			ContentID:   a.ContentID,
			Disposition: a.Disposition,
		})
	}

	return resp, nil
}

func (s *emailRecordService) Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEmailRecordRequest) (*dto.EmailRecordResponse, error) {
	rec, err := s.records.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return nil, fmt.Errorf("email record not found: %w", err)
	}

	if req.IsRead != nil && *req.IsRead {
		if err := s.records.MarkRead(ctx, id, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("marking email read: %w", err)
		}
		rec, err = s.records.GetByOwnerAndID(ctx, ownerUser, id)
		if err != nil {
			return nil, fmt.Errorf("reloading email record: %w", err)
		}
	}

	resp := emailRecordToResponse(rec)
	return &resp, nil
}

func emailRecordToResponse(r *model.EmailRecord) dto.EmailRecordResponse {
	return dto.EmailRecordResponse{
		ID:         r.ID.String(),
		MessageID:  r.MessageID,
		From:       r.From,
		To:         r.To,
		Recipient:  r.Recipient,
		Subject:    r.Subject,
		Status:     r.Status,
		IsRead:     r.IsRead,
		ReceivedAt: r.ReceivedAt.Format(time.RFC3339),
	}
}

func addressGroupToResponse(g model.AddressGroup) dto.AddressGroupResponse {
	addrs := make([]dto.EmailAddressRefResponse, 0, len(g.Addresses))
	for _, a := range g.Addresses {
		addrs = append(addrs, dto.EmailAddressRefResponse{Name: a.Name, Address: a.Address})
	}
	return dto.AddressGroupResponse{Text: g.Text, Addresses: addrs}
}
