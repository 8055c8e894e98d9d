package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
)

// SQSConfig holds the settings needed to reach the queue provider. Endpoint
// is optional and supports S3/SQS-compatible local stacks.
type SQSConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// SQSClient implements Client on AWS SQS.
type SQSClient struct {
	api *sqs.SQS
}

var _ Client = (*SQSClient)(nil)

// NewSQSClient builds a Client from the given provider configuration.
func NewSQSClient(cfg SQSConfig) (*SQSClient, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create SQS session: %w", err)
	}

	return &SQSClient{api: sqs.New(sess)}, nil
}

func (c *SQSClient) Receive(ctx context.Context, queueURL string, maxMessages int64, wait time.Duration) ([]Message, error) {
	out, err := c.api.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: aws.Int64(maxMessages),
		WaitTimeSeconds:     aws.Int64(int64(wait / time.Second)),
	})
	if err != nil {
		return nil, fmt.Errorf("receive from %s: %w", queueURL, err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			ID:            aws.StringValue(m.MessageId),
			Body:          aws.StringValue(m.Body),
			ReceiptHandle: aws.StringValue(m.ReceiptHandle),
		})
	}
	return messages, nil
}

func (c *SQSClient) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	_, err := c.api.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", queueURL, err)
	}
	return nil
}

func (c *SQSClient) Send(ctx context.Context, queueURL, body string) error {
	_, err := c.api.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", queueURL, err)
	}
	return nil
}
