package mailer

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FetchRaw downloads the raw MIME blob the cloud mailer stored for an inbound
// message ("fetch raw by key"). bucket is accepted explicitly rather than
// defaulting to rawBucket because the mailer's notification payload names the
// exact bucket it wrote to.
func (c *Client) FetchRaw(ctx context.Context, bucket, key string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch raw object s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read raw object body: %w", err)
	}
	return data, nil
}
