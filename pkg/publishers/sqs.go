package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// awsSQSSender enqueues events on an SQS queue. FIFO queues get the feed as
// message group and one deduplication ID per record version.
type awsSQSSender struct {
	queueURL string
	fifo     bool
	client   sqsClient
	log      Logger
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.AWSConfig)
	if err != nil {
		return nil, err
	}
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.SQS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.SQS.Endpoint)
		}
	})
	return &queuePublisher{
		id:     cfg.ID,
		typ:    TypeSQS,
		sender: newSQSSender(cfg.SQS.QueueURL, client, log),
	}, nil
}

func newSQSSender(queueURL string, client sqsClient, log Logger) *awsSQSSender {
	return &awsSQSSender{
		queueURL: queueURL,
		fifo:     fifoTarget(queueURL),
		client:   client,
		log:      ensureLogger(log),
	}
}

func (s *awsSQSSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	r := evt.routing()

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: sqsAttributes(r),
	}
	if s.fifo {
		input.MessageGroupId = aws.String(r.group)
		input.MessageDeduplicationId = aws.String(r.dedupKey)
	}

	out, err := s.client.SendMessage(ctx, input)
	if err != nil {
		s.log.ErrorObj("sqs send failed", "publisher_sqs_error", map[string]any{
			"queue_url": s.queueURL,
			"record_id": evt.RecordID,
			"change":    evt.Change,
			"error":     err.Error(),
		})
		return fmt.Errorf("send %s %s to sqs: %w", evt.Kind, evt.RecordID, err)
	}
	s.log.DebugObj("sqs message sent", "publisher_sqs_delivery", map[string]any{
		"queue_url":  s.queueURL,
		"record_id":  evt.RecordID,
		"change":     evt.Change,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}

func sqsAttributes(r routing) map[string]types.MessageAttributeValue {
	attrs := make(map[string]types.MessageAttributeValue, len(r.strings)+len(r.numbers))
	for k, v := range r.strings {
		if v == "" {
			continue
		}
		attrs[k] = types.MessageAttributeValue{DataType: awsDataType(false), StringValue: aws.String(v)}
	}
	for k, v := range r.numbers {
		attrs[k] = types.MessageAttributeValue{DataType: awsDataType(true), StringValue: aws.String(v)}
	}
	return attrs
}
