package awsstorage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/scan"
)

// RDSInstanceSource lists RDS DB instances in one region.
type RDSInstanceSource struct {
	client   RDSInstancesClient
	region   string
	pageSize int32
}

// NewRDSInstanceSource returns a source listing DB instances through client.
func NewRDSInstanceSource(client RDSInstancesClient, region string) *RDSInstanceSource {
	return &RDSInstanceSource{client: client, region: region, pageSize: rdsPageSize}
}

func (s *RDSInstanceSource) Kind() models.ResourceType { return models.ResourceRDS }

// ListPage fetches one DescribeDBInstances page starting at cursor.
func (s *RDSInstanceSource) ListPage(ctx context.Context, cursor *string) (scan.Page, error) {
	out, err := s.client.DescribeDBInstances(ctx, &rdssvc.DescribeDBInstancesInput{
		MaxRecords: aws.Int32(s.pageSize),
		Marker:     cursor,
	})
	if err != nil {
		return scan.Page{}, &models.ProviderError{Kind: s.Kind(), Op: "DescribeDBInstances", Err: err}
	}

	records := make([]models.ResourceRecord, 0, len(out.DBInstances))
	for _, db := range out.DBInstances {
		records = append(records, s.toRecord(db))
	}
	return scan.Page{Records: records, NextCursor: normalizeCursor(out.Marker)}, nil
}

func (s *RDSInstanceSource) toRecord(db rdstypes.DBInstance) models.ResourceRecord {
	id := aws.ToString(db.DBInstanceIdentifier)
	attrs := map[string]any{
		"engine":            aws.ToString(db.Engine),
		"engine_version":    aws.ToString(db.EngineVersion),
		"instance_class":    aws.ToString(db.DBInstanceClass),
		"status":            aws.ToString(db.DBInstanceStatus),
		"allocated_storage": aws.ToInt32(db.AllocatedStorage),
		"multi_az":          aws.ToBool(db.MultiAZ),
	}
	if arn := aws.ToString(db.DBInstanceArn); arn != "" {
		attrs["arn"] = arn
	}
	return models.ResourceRecord{
		Kind:       models.ResourceRDS,
		ID:         id,
		Name:       id,
		Region:     s.region,
		Encrypted:  db.StorageEncrypted,
		Attributes: attrs,
	}
}
