package awsstorage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/scan"
)

// EBSVolumeSource lists EBS volumes in one region.
type EBSVolumeSource struct {
	client   EC2VolumesClient
	region   string
	pageSize int32
}

// NewEBSVolumeSource returns a source listing volumes through client.
func NewEBSVolumeSource(client EC2VolumesClient, region string) *EBSVolumeSource {
	return &EBSVolumeSource{client: client, region: region, pageSize: ebsPageSize}
}

func (s *EBSVolumeSource) Kind() models.ResourceType { return models.ResourceEBSVolume }

// ListPage fetches one DescribeVolumes page starting at cursor.
func (s *EBSVolumeSource) ListPage(ctx context.Context, cursor *string) (scan.Page, error) {
	out, err := s.client.DescribeVolumes(ctx, &ec2svc.DescribeVolumesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("status"),
				Values: []string{"available", "in-use", "creating", "error"},
			},
		},
		MaxResults: aws.Int32(s.pageSize),
		NextToken:  cursor,
	})
	if err != nil {
		return scan.Page{}, &models.ProviderError{Kind: s.Kind(), Op: "DescribeVolumes", Err: err}
	}

	records := make([]models.ResourceRecord, 0, len(out.Volumes))
	for _, v := range out.Volumes {
		records = append(records, s.toRecord(v))
	}
	return scan.Page{Records: records, NextCursor: normalizeCursor(out.NextToken)}, nil
}

func (s *EBSVolumeSource) toRecord(v ec2types.Volume) models.ResourceRecord {
	id := aws.ToString(v.VolumeId)
	tags := tagsFromEC2(v.Tags)

	attrs := map[string]any{
		"size_gb":           aws.ToInt32(v.Size),
		"state":             string(v.State),
		"volume_type":       string(v.VolumeType),
		"availability_zone": aws.ToString(v.AvailabilityZone),
	}
	if len(v.Attachments) > 0 {
		attrs["instance_id"] = aws.ToString(v.Attachments[0].InstanceId)
	}
	if len(tags) > 0 {
		attrs["tags"] = tags
	}

	return models.ResourceRecord{
		Kind:       models.ResourceEBSVolume,
		ID:         id,
		Name:       tags["Name"],
		Region:     s.region,
		Encrypted:  v.Encrypted,
		Attributes: attrs,
	}
}

// tagsFromEC2 converts EC2 tags to a plain map.
func tagsFromEC2(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return m
}
