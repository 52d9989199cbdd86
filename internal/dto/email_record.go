package dto

// UpdateEmailRecordRequest marks an EmailRecord read/unread.
type UpdateEmailRecordRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

// EmailAddressRefResponse mirrors model.EmailAddressRef.
type EmailAddressRefResponse struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// AddressGroupResponse mirrors model.AddressGroup.
type AddressGroupResponse struct {
	Text      string                    `json:"text"`
	Addresses []EmailAddressRefResponse `json:"addresses"`
}

// AttachmentResponse mirrors model.Attachment (without the transient raw Content).
type AttachmentResponse struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	ContentID   string `json:"content_id,omitempty"`
	Disposition string `json:"disposition"`
}

// EmailRecordResponse is the summary representation of an EmailRecord (list view).
type EmailRecordResponse struct {
	ID          string   `json:"id"`
	MessageID   string   `json:"message_id"`
	From        string   `json:"from"`
	To          []string `json:"to"`
	Recipient   string   `json:"recipient"`
	Subject     *string  `json:"subject,omitempty"`
	Status      string   `json:"status"`
	IsRead      bool     `json:"is_read"`
	ReceivedAt  string   `json:"received_at"`
}

// EmailRecordDetailResponse is the full representation including parsed content,
// returned from Get.
type EmailRecordDetailResponse struct {
	EmailRecordResponse
	ParsedFrom  AddressGroupResponse `json:"from_parsed"`
	ParsedTo    AddressGroupResponse `json:"to_parsed"`
	ParsedCc    AddressGroupResponse `json:"cc,omitempty"`
	TextBody    *string              `json:"text_body,omitempty"`
	HTMLBody    *string              `json:"html_body,omitempty"`
	Attachments []AttachmentResponse `json:"attachments"`
}
