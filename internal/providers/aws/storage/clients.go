// Package awsstorage binds the scanner's Source contract to the AWS storage
// services: EBS volumes, S3 buckets and RDS instances.
package awsstorage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// EC2VolumesClient is the subset of EC2 used to list volumes.
type EC2VolumesClient interface {
	DescribeVolumes(ctx context.Context, params *ec2svc.DescribeVolumesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error)
}

// S3BucketsClient is the subset of S3 used to list buckets and read their
// default encryption configuration.
type S3BucketsClient interface {
	ListBuckets(ctx context.Context, params *s3svc.ListBucketsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3svc.GetBucketEncryptionInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error)
}

// RDSInstancesClient is the subset of RDS used to list DB instances.
type RDSInstancesClient interface {
	DescribeDBInstances(ctx context.Context, params *rdssvc.DescribeDBInstancesInput, optFns ...func(*rdssvc.Options)) (*rdssvc.DescribeDBInstancesOutput, error)
}

// S3ClientFactory returns an S3 client bound to region. Bucket encryption
// must be read from the bucket's own region.
type S3ClientFactory func(region string) S3BucketsClient

// newS3ClientFactory is the production S3ClientFactory.
func newS3ClientFactory(cfg aws.Config) S3ClientFactory {
	return func(region string) S3BucketsClient {
		regional := cfg.Copy()
		if region != "" {
			regional.Region = region
		}
		return s3svc.NewFromConfig(regional)
	}
}
