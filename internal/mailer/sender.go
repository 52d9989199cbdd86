package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SendResult is the cloud mailer's response to a raw send.
type SendResult struct {
	ProviderMessageID string
}

// SendRaw hands a fully-built RFC 5322 message to the cloud mailer.
// Assembling the message itself — headers, MIME parts, the Message-ID/In-Reply-To/
// References chain — is engine.BuildMessage's job; this is transport only, so
// outbound threading headers reach the wire untouched instead of being
// reconstructed by a templated send API that doesn't expose them.
func (c *Client) SendRaw(ctx context.Context, from string, recipients []string, raw []byte) (*SendResult, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients specified")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.sesv2.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sesv2 send raw email: %w", err)
	}

	return &SendResult{ProviderMessageID: aws.ToString(out.MessageId)}, nil
}
