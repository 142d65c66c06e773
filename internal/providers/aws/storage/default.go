package awsstorage

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/scan"
)

// Page sizes requested from each service. They are upper bounds; services may
// return fewer records per page.
const (
	ebsPageSize int32 = 500
	s3PageSize  int32 = 1000
	rdsPageSize int32 = 100
)

// NewSources returns the production sources for every supported kind. EBS
// volumes and RDS instances are listed in every config of regional, in order;
// an empty regional lists home's region only. S3 is a global listing made
// from home, and its lookups follow each bucket to its own region.
func NewSources(home aws.Config, regional []aws.Config) []scan.Source {
	if len(regional) == 0 {
		regional = []aws.Config{home}
	}
	byRegion := make(map[string]aws.Config, len(regional))
	regions := make([]string, 0, len(regional))
	for _, c := range regional {
		if _, seen := byRegion[c.Region]; !seen {
			regions = append(regions, c.Region)
		}
		byRegion[c.Region] = c
	}

	return []scan.Source{
		NewRegionalSource(models.ResourceEBSVolume, regions, func(r string) scan.Source {
			return NewEBSVolumeSource(ec2svc.NewFromConfig(byRegion[r]), r)
		}),
		NewS3BucketSource(newS3ClientFactory(home), home.Region),
		NewRegionalSource(models.ResourceRDS, regions, func(r string) scan.Source {
			return NewRDSInstanceSource(rdssvc.NewFromConfig(byRegion[r]), r)
		}),
	}
}

// normalizeCursor maps an empty continuation token to nil so that a blank
// token ends the listing instead of restarting it.
func normalizeCursor(token *string) *string {
	if token == nil || *token == "" {
		return nil
	}
	return token
}
