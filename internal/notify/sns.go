package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	snssvc "github.com/aws/aws-sdk-go-v2/service/sns"
)

// snsAPIClient is the narrow SNS interface used by SNSChannel.
type snsAPIClient interface {
	Publish(ctx context.Context, params *snssvc.PublishInput, optFns ...func(*snssvc.Options)) (*snssvc.PublishOutput, error)
}

// maxSNSSubject is the SNS limit on email subject length.
const maxSNSSubject = 100

// SNSChannel publishes messages to an SNS topic.
type SNSChannel struct {
	topicARN string
	region   string
	client   snsAPIClient
}

// NewSNSChannel returns a channel publishing to topicARN. The client is built
// from a copy of cfg pinned to the topic's region.
func NewSNSChannel(cfg aws.Config, topicARN string) (*SNSChannel, error) {
	parsed, err := arn.Parse(topicARN)
	if err != nil {
		return nil, fmt.Errorf("parse SNS topic ARN %q: %w", topicARN, err)
	}
	if parsed.Service != "sns" || parsed.Region == "" || parsed.Resource == "" {
		return nil, fmt.Errorf("invalid SNS topic ARN %q: want arn:<partition>:sns:<region>:<account>:<topic>", topicARN)
	}
	regional := cfg.Copy()
	regional.Region = parsed.Region
	ch := newSNSChannelWithClient(snssvc.NewFromConfig(regional), topicARN)
	ch.region = parsed.Region
	return ch, nil
}

func newSNSChannelWithClient(client snsAPIClient, topicARN string) *SNSChannel {
	return &SNSChannel{topicARN: topicARN, client: client}
}

// Region is the region the channel's client publishes from.
func (s *SNSChannel) Region() string { return s.region }

func (s *SNSChannel) Name() string { return "sns" }

// Send publishes msg as a plain-text SNS message.
func (s *SNSChannel) Send(ctx context.Context, msg Message) error {
	subject := msg.Subject
	if len(subject) > maxSNSSubject {
		subject = subject[:maxSNSSubject]
	}
	in := &snssvc.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(msg.Text),
	}
	if subject != "" {
		in.Subject = aws.String(subject)
	}
	if _, err := s.client.Publish(ctx, in); err != nil {
		return fmt.Errorf("SNS Publish %s: %w", s.topicARN, err)
	}
	return nil
}
