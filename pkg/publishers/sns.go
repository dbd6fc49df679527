package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// maxSubjectLen is the SNS limit on email-style subjects.
const maxSubjectLen = 100

// awsSNSSender fans events out through an SNS topic. Attributes mirror the
// SQS sender so subscription filter policies can match on kind, feed,
// change, fine_score and status.
type awsSNSSender struct {
	topicARN string
	fifo     bool
	client   snsClient
	log      Logger
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.AWSConfig)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.SNS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.SNS.Endpoint)
		}
	})
	return &queuePublisher{
		id:     cfg.ID,
		typ:    TypeSNS,
		sender: newSNSSender(cfg.SNS.TopicARN, client, log),
	}, nil
}

func newSNSSender(topicARN string, client snsClient, log Logger) *awsSNSSender {
	return &awsSNSSender{
		topicARN: topicARN,
		fifo:     fifoTarget(topicARN),
		client:   client,
		log:      ensureLogger(log),
	}
}

func (s *awsSNSSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	r := evt.routing()

	input := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(payload)),
		Subject:           aws.String(subject(evt)),
		MessageAttributes: snsAttributes(r),
	}
	if s.fifo {
		input.MessageGroupId = aws.String(r.group)
		input.MessageDeduplicationId = aws.String(r.dedupKey)
	}

	out, err := s.client.Publish(ctx, input)
	if err != nil {
		s.log.ErrorObj("sns publish failed", "publisher_sns_error", map[string]any{
			"topic_arn": s.topicARN,
			"record_id": evt.RecordID,
			"change":    evt.Change,
			"error":     err.Error(),
		})
		return fmt.Errorf("publish %s %s to sns: %w", evt.Kind, evt.RecordID, err)
	}
	s.log.DebugObj("sns message published", "publisher_sns_delivery", map[string]any{
		"topic_arn":  s.topicARN,
		"record_id":  evt.RecordID,
		"change":     evt.Change,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}

// subject reads like "falcon incident updated: inc:1".
func subject(evt Event) string {
	s := fmt.Sprintf("falcon %s %s: %s", evt.Kind, evt.Change, evt.RecordID)
	if len(s) > maxSubjectLen {
		s = s[:maxSubjectLen]
	}
	return s
}

func snsAttributes(r routing) map[string]types.MessageAttributeValue {
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
