package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// webhookRetryMax bounds webhook retries; the dispatcher timeout still caps
// total time spent.
const webhookRetryMax = 2

// NewSummaryChannel returns the chat webhook channel for target.
func NewSummaryChannel(target string) (Channel, error) {
	if !strings.HasPrefix(target, "https://") && !strings.HasPrefix(target, "http://") {
		return nil, fmt.Errorf("summary channel target must be an http(s) URL, got %q", target)
	}
	return NewWebhookChannel(target, webhookRetryMax), nil
}

// NewAlertChannel selects the pub/sub binding from the target format:
// an SNS topic ARN or a Pub/Sub topic name.
func NewAlertChannel(ctx context.Context, target string, awsCfg aws.Config) (Channel, error) {
	switch {
	case strings.HasPrefix(target, "arn:"):
		ch, err := NewSNSChannel(awsCfg, target)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case strings.HasPrefix(target, "projects/"):
		ch, err := NewPubSubChannel(ctx, target)
		if err != nil {
			return nil, err
		}
		return ch, nil
	default:
		return nil, fmt.Errorf("unsupported alert channel target %q: want an SNS topic ARN or projects/<p>/topics/<t>", target)
	}
}
