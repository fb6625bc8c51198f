package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/elektroprotokolle/pruefprotokoll/internal/domain"
)

// SNSClient publishes defect alerts for protocols with ergebnis "maengel".
type SNSClient struct {
	svc      *sns.Client
	topicArn string
}

func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	result, err := c.svc.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Debug().Str("message_id", aws.ToString(result.MessageId)).Msg("alert sent")
	return nil
}

// Committed alerts when the verdict of a protocol is "maengel".
func (c *SNSClient) Committed(ctx context.Context, p domain.Protocol, created bool) error {
	if p.Ergebnis() != domain.ErgebnisMaengel {
		return nil
	}
	subject, message := defectAlert(p)
	return c.SendAlert(ctx, subject, message)
}

func (c *SNSClient) Removed(ctx context.Context, id string) error { return nil }

// defectAlert formats the alert for a protocol with defects. Checklist items
// marked "nio" are listed by label.
func defectAlert(p domain.Protocol) (string, string) {
	d := p.Draft()

	var failed []string
	for _, k := range domain.InspectionKeys() {
		if d.BesichtigungItems.Get(k) == domain.StatusNIO {
			failed = append(failed, "- "+k.Label())
		}
	}
	if len(failed) == 0 {
		failed = []string{"- (keine Einzelpunkte markiert)"}
	}

	subject := fmt.Sprintf("Prüfprotokoll: Mängel an %s", d.Anlage)
	message := fmt.Sprintf(
		"Mängel festgestellt\n\n"+
			"Anlage: %s\n"+
			"Auftraggeber: %s\n"+
			"Auftrag-Nr.: %s\n"+
			"Ort: %s\n"+
			"Protokoll-ID: %s\n"+
			"Geprüft: %s\n\n"+
			"Nicht in Ordnung:\n%s\n",
		d.Anlage,
		d.Auftraggeber,
		d.AuftragNr,
		d.Ort,
		p.ID(),
		p.UpdatedAt().Format(domain.DateLayout),
		strings.Join(failed, "\n"),
	)
	if d.Bemerkung != "" {
		message += "\nBemerkung:\n" + d.Bemerkung + "\n"
	}
	return subject, message
}
