// Package mailer wraps the cloud mailer (AWS SES + S3) as the system's sole
// inbound and outbound email transport: raw-object fetch, receipt-rule
// management, and raw-MIME send.
package mailer

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/inboundemail/inbound-core/internal/config"
)

// Client bundles the three AWS service clients the mailer package needs, all
// constructed from one static-credentials AWS config (grounded on
// DrisanJames-project-jarvis's ses.Client/S3Storage construction idiom).
type Client struct {
	ses   *ses.Client // receipt-rule management (SES v1 API)
	sesv2 *sesv2.Client
	s3    *s3.Client

	rawBucket            string
	processingFunctionID string
	accountID            string
	forwarderSender      string
	requestTimeout       time.Duration
}

// New constructs a Client from MailerConfig.
func New(ctx context.Context, cfg config.MailerConfig) (*Client, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		ses:                  ses.NewFromConfig(awsCfg),
		sesv2:                sesv2.NewFromConfig(awsCfg),
		s3:                   s3.NewFromConfig(awsCfg),
		rawBucket:            cfg.RawBucket,
		processingFunctionID: cfg.ProcessingFunctionID,
		accountID:            cfg.AccountID,
		forwarderSender:      cfg.ForwarderSender,
		requestTimeout:       timeout,
	}, nil
}

// ForwarderSender returns the configured global forwarder "From" address used by
// ForwardExecutor.
func (c *Client) ForwarderSender() string {
	return c.forwarderSender
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.requestTimeout)
}
