package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektroprotokolle/pruefprotokoll/internal/cloud"
	"github.com/elektroprotokolle/pruefprotokoll/internal/config"
)

// cloudCheckCmd probes the configured AWS resources one by one.
func cloudCheckCmd() *cobra.Command {
	var alert bool
	cmd := &cobra.Command{
		Use:   "cloud-check",
		Short: "Probe the configured S3 bucket, SNS topic and DynamoDB table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			region := config.AWSRegion()

			fmt.Fprintf(out, "=== S3 %s ===\n", config.S3Bucket())
			s3, err := cloud.NewS3Client(ctx, region, config.S3Bucket())
			if err != nil {
				return err
			}
			key := "checks/probe-" + time.Now().UTC().Format("20060102T150405") + ".txt"
			url, err := s3.UploadExport(ctx, key, []byte("cloud-check "+time.Now().UTC().Format(time.RFC3339)))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "uploaded %s\npresigned: %s\n", key, url)
			keys, err := s3.ListExports(ctx, "protocols/")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d stored exports\n", len(keys))

			if arn := config.SNSTopicArn(); arn != "" && alert {
				fmt.Fprintf(out, "=== SNS %s ===\n", arn)
				sns, err := cloud.NewSNSClient(ctx, region, arn)
				if err != nil {
					return err
				}
				if err := sns.SendAlert(ctx, "Prüfprotokoll: Test", "Testnachricht von protokoll cloud-check"); err != nil {
					return err
				}
				fmt.Fprintln(out, "alert sent")
			}

			fmt.Fprintf(out, "=== DynamoDB %s ===\n", config.DynamoDBTable())
			archive, err := cloud.NewDynamoDBArchive(ctx, region, config.DynamoDBTable())
			if err != nil {
				return err
			}
			ps, err := archive.Load(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d archived protocols\n", len(ps))
			return nil
		},
	}
	cmd.Flags().BoolVar(&alert, "alert", false, "also publish a test alert to AWS_SNS_TOPIC_ARN")
	return cmd
}
