package ses

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"voltscan/internal/domain"
	"voltscan/internal/port"
)

type sesSender struct {
	client        *sesv2.Client
	fromAddress   string
	fromName      string
	reviewAddress string
	dashboardURL  string
}

// NewSESSender creates a new SES-backed EmailSender for review alerts.
func NewSESSender(region, fromAddress, fromName, reviewAddress, dashboardURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:        client,
		fromAddress:   fromAddress,
		fromName:      fromName,
		reviewAddress: reviewAddress,
		dashboardURL:  dashboardURL,
	}, nil
}

func (s *sesSender) SendReviewAlert(ctx context.Context, doc *domain.BillDocument, result *domain.ValidationResult) error {
	if s.reviewAddress == "" {
		return nil
	}

	subject := fmt.Sprintf("Bill %s flagged for review (variance %.1f%%)", doc.ID, result.TotalVariance*100)
	link := fmt.Sprintf("%s/bills/%s", strings.TrimRight(s.dashboardURL, "/"), doc.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "Bill document %s (%s) exceeded the charge reconciliation tolerance.\n\n", doc.ID, doc.FileName)
	fmt.Fprintf(&b, "Variance between itemized charges and stated total: %.2f%%\n", result.TotalVariance*100)
	fmt.Fprintf(&b, "Overall confidence: %.2f\n", result.Confidence)
	if len(result.MissingFields) > 0 {
		fmt.Fprintf(&b, "Missing fields: %s\n", strings.Join(result.MissingFields, ", "))
	}
	fmt.Fprintf(&b, "\nReview it at %s\n", link)
	textBody := b.String()

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.reviewAddress},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending review alert: %w", err)
	}
	return nil
}
