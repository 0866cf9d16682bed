// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"battle-room-system/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// objectPutter is the slice of the S3 client the archiver needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Archiver stores the JSON projection of every finished match in a
// Cloudflare R2 bucket.
type R2Archiver struct {
	client     objectPutter
	bucket     string
	cdnBaseURL string
}

func NewR2Archiver(ctx context.Context, cfg R2Config) (*R2Archiver, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = endpoint + "/" + cfg.Bucket
	}
	return &R2Archiver{client: client, bucket: cfg.Bucket, cdnBaseURL: cdn}, nil
}

// MatchArchiveKey files a match under the month it finished,
// e.g. "matches/2026/03/room1.json".
func MatchArchiveKey(m models.Match) string {
	at := m.UpdatedAt
	if m.FinishedAt != nil {
		at = *m.FinishedAt
	}
	return fmt.Sprintf("matches/%04d/%02d/%s.json", at.Year(), int(at.Month()), m.ID)
}

func (a *R2Archiver) ArchiveMatch(ctx context.Context, m models.Match) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode match %s: %w", m.ID, err)
	}

	key := MatchArchiveKey(m)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	log.Printf("[Archive] match %s stored at %s", m.ID, a.URL(m))
	return nil
}

// URL returns the public address of an archived match.
func (a *R2Archiver) URL(m models.Match) string {
	return fmt.Sprintf("%s/%s", a.cdnBaseURL, MatchArchiveKey(m))
}
