package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/sirupsen/logrus"
)

// snsPublisher is the part of *sns.Client the notifier uses.
type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes notifications to an SNS topic.
type SNSNotifier struct {
	Log      *logrus.Entry
	TopicARN string
	SNS      snsPublisher
}

// NewSNSNotifier loads the default AWS configuration and targets topicARN.
func NewSNSNotifier(ctx context.Context, topicARN string, log *logrus.Entry) (*SNSNotifier, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("error creating SNS notifier: topic ARN is empty")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config %w", err)
	}
	return &SNSNotifier{
		Log:      log,
		TopicARN: topicARN,
		SNS:      sns.NewFromConfig(awsCfg),
	}, nil
}

func (s *SNSNotifier) Notify(ctx context.Context, n Notification) error {
	input := &sns.PublishInput{
		Message:  aws.String(n.Text),
		Subject:  aws.String("Study reminder " + n.Date),
		TopicArn: aws.String(s.TopicARN),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"date": {DataType: aws.String("String"), StringValue: aws.String(n.Date)},
		},
	}

	out, err := s.SNS.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("error publishing to AWS SNS topic %s: %w", s.TopicARN, err)
	}
	if s.Log != nil {
		s.Log.WithField("message_id", aws.ToString(out.MessageId)).Debug("reminder published to SNS")
	}
	return nil
}
