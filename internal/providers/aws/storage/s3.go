package awsstorage

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/scan"
)

// errCodeSSENotFound is returned by GetBucketEncryption when the bucket has
// no default encryption configuration.
const errCodeSSENotFound = "ServerSideEncryptionConfigurationNotFoundError"

// S3BucketSource lists the account's buckets and resolves each bucket's
// default encryption with a per-bucket lookup.
type S3BucketSource struct {
	factory  S3ClientFactory
	region   string
	pageSize int32

	mu      sync.Mutex
	clients map[string]S3BucketsClient
}

// NewS3BucketSource returns a source that lists buckets from region and
// reads each bucket's encryption through a client for the bucket's region.
func NewS3BucketSource(factory S3ClientFactory, region string) *S3BucketSource {
	return &S3BucketSource{
		factory:  factory,
		region:   region,
		pageSize: s3PageSize,
		clients:  make(map[string]S3BucketsClient),
	}
}

func (s *S3BucketSource) Kind() models.ResourceType { return models.ResourceS3Bucket }

// ListPage fetches one ListBuckets page starting at cursor. Every record is
// marked for a secondary encryption lookup.
func (s *S3BucketSource) ListPage(ctx context.Context, cursor *string) (scan.Page, error) {
	out, err := s.client(s.region).ListBuckets(ctx, &s3svc.ListBucketsInput{
		ContinuationToken: cursor,
		MaxBuckets:        aws.Int32(s.pageSize),
	})
	if err != nil {
		return scan.Page{}, &models.ProviderError{Kind: s.Kind(), Op: "ListBuckets", Err: err}
	}

	records := make([]models.ResourceRecord, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		records = append(records, s.toRecord(b))
	}
	return scan.Page{Records: records, NextCursor: normalizeCursor(out.ContinuationToken)}, nil
}

func (s *S3BucketSource) toRecord(b s3types.Bucket) models.ResourceRecord {
	name := aws.ToString(b.Name)
	attrs := map[string]any{}
	if b.CreationDate != nil {
		attrs["created_at"] = b.CreationDate.UTC()
	}
	return models.ResourceRecord{
		Kind:        models.ResourceS3Bucket,
		ID:          name,
		Name:        name,
		Region:      aws.ToString(b.BucketRegion),
		NeedsLookup: true,
		Attributes:  attrs,
	}
}

// LookupEncryption reads the bucket's default encryption configuration.
//
// A missing configuration is reported as NotConfigured. Any other failure,
// including access denied and throttling, is LookupFailed.
func (s *S3BucketSource) LookupEncryption(ctx context.Context, rec models.ResourceRecord) models.EncryptionStatus {
	region := rec.Region
	if region == "" {
		region = s.region
	}
	out, err := s.client(region).GetBucketEncryption(ctx, &s3svc.GetBucketEncryptionInput{
		Bucket: aws.String(rec.ID),
	})
	if err != nil {
		return classifyEncryptionError(rec.ID, err)
	}
	if hasEncryptionRule(out.ServerSideEncryptionConfiguration) {
		return models.Configured()
	}
	return models.NotConfigured()
}

// client returns the cached S3 client for region, creating it on first use.
func (s *S3BucketSource) client(region string) S3BucketsClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[region]
	if !ok {
		c = s.factory(region)
		s.clients[region] = c
	}
	return c
}

// classifyEncryptionError separates the "no configuration" signal from real
// lookup failures.
func classifyEncryptionError(bucket string, err error) models.EncryptionStatus {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == errCodeSSENotFound {
		return models.NotConfigured()
	}
	return models.LookupFailed(&models.ProviderError{
		Kind:       models.ResourceS3Bucket,
		Op:         "GetBucketEncryption",
		ResourceID: bucket,
		Err:        err,
	})
}

// hasEncryptionRule reports whether cfg holds at least one rule that applies
// a default encryption algorithm.
func hasEncryptionRule(cfg *s3types.ServerSideEncryptionConfiguration) bool {
	if cfg == nil {
		return false
	}
	for _, r := range cfg.Rules {
		if r.ApplyServerSideEncryptionByDefault != nil &&
			r.ApplyServerSideEncryptionByDefault.SSEAlgorithm != "" {
			return true
		}
	}
	return false
}
