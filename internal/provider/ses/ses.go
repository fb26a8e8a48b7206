// Package ses implements a Provider that sends mail via AWS SES v2.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/simplemail-relay/internal/email"
	"github.com/shineum/simplemail-relay/internal/parser"
)

const charset = "UTF-8"

// Config holds the configuration for creating a Provider.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Defaults is the sender identity; its email must be verified in SES.
	Defaults email.Sender
}

// Provider sends mail via the AWS SES v2 API.
type Provider struct {
	defaults email.Sender
	client   SendEmailAPI
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new Provider with the given configuration. Static credentials
// are used when both keys are set, otherwise the default AWS chain applies.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(cfg.Defaults, sesv2.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a Provider with a custom client, used for testing.
func NewWithClient(defaults email.Sender, client SendEmailAPI) *Provider {
	return &Provider{
		defaults: defaults,
		client:   client,
	}
}

// Send delivers the request as a simple SES message with HTML and derived
// text parts.
func (p *Provider) Send(ctx context.Context, req *email.SendRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("ses: %w", err)
	}

	if _, err := p.client.SendEmail(ctx, buildInput(p.defaults, req)); err != nil {
		return fmt.Errorf("SES API request failed: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ses"
}

// buildInput creates a SES SendEmailInput for a request.
func buildInput(defaults email.Sender, req *email.SendRequest) *sesv2.SendEmailInput {
	from := parser.ResolveSender(req.Headers, defaults)

	body := &types.Body{
		Text: &types.Content{
			Data:    aws.String(parser.StripMarkup(req.HTMLBody)),
			Charset: aws.String(charset),
		},
	}
	if req.HTMLBody != "" {
		body.Html = &types.Content{
			Data:    aws.String(req.HTMLBody),
			Charset: aws.String(charset),
		}
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from.String()),
		Destination: &types.Destination{
			ToAddresses: req.Addresses(),
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(req.Subject),
					Charset: aws.String(charset),
				},
				Body: body,
			},
		},
	}
}
