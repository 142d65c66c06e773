package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClient is the subset of STS operations used by the loader.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// STSFactory creates an STSClient from an aws.Config.
// Swap this in tests to inject a mock client.
type STSFactory func(cfg aws.Config) STSClient

// NewSTSClient is the production STSFactory.
func NewSTSClient(cfg aws.Config) STSClient {
	return sts.NewFromConfig(cfg)
}

// EC2RegionsClient is the subset of EC2 operations used for region discovery.
type EC2RegionsClient interface {
	DescribeRegions(
		ctx context.Context,
		params *ec2.DescribeRegionsInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeRegionsOutput, error)
}

// EC2Factory creates an EC2RegionsClient from an aws.Config.
type EC2Factory func(cfg aws.Config) EC2RegionsClient

// NewEC2RegionsClient is the production EC2Factory.
func NewEC2RegionsClient(cfg aws.Config) EC2RegionsClient {
	return ec2.NewFromConfig(cfg)
}
