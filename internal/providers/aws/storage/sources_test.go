package awsstorage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/scan"
)

// ── fakes ────────────────────────────────────────────────────────────────────

type fakeEC2 struct {
	pages map[string]*ec2svc.DescribeVolumesOutput
	err   error
	calls []*ec2svc.DescribeVolumesInput
}

func (f *fakeEC2) DescribeVolumes(_ context.Context, in *ec2svc.DescribeVolumesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[aws.ToString(in.NextToken)], nil
}

type fakeRDS struct {
	out *rdssvc.DescribeDBInstancesOutput
	err error
	in  *rdssvc.DescribeDBInstancesInput
}

func (f *fakeRDS) DescribeDBInstances(_ context.Context, in *rdssvc.DescribeDBInstancesInput, _ ...func(*rdssvc.Options)) (*rdssvc.DescribeDBInstancesOutput, error) {
	f.in = in
	return f.out, f.err
}

type fakeS3 struct {
	list    *s3svc.ListBucketsOutput
	listErr error
	listIn  *s3svc.ListBucketsInput

	enc      map[string]*s3svc.GetBucketEncryptionOutput
	encErr   map[string]error
	lookedUp []string
}

func (f *fakeS3) ListBuckets(_ context.Context, in *s3svc.ListBucketsInput, _ ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error) {
	f.listIn = in
	return f.list, f.listErr
}

func (f *fakeS3) GetBucketEncryption(_ context.Context, in *s3svc.GetBucketEncryptionInput, _ ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error) {
	name := aws.ToString(in.Bucket)
	f.lookedUp = append(f.lookedUp, name)
	if err := f.encErr[name]; err != nil {
		return nil, err
	}
	return f.enc[name], nil
}

func singleClient(c S3BucketsClient, regions *[]string) S3ClientFactory {
	return func(region string) S3BucketsClient {
		if regions != nil {
			*regions = append(*regions, region)
		}
		return c
	}
}

func sseRule(alg s3types.ServerSideEncryption) s3types.ServerSideEncryptionRule {
	return s3types.ServerSideEncryptionRule{
		ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{SSEAlgorithm: alg},
	}
}

// ── EBS ──────────────────────────────────────────────────────────────────────

func TestEBSVolumeSource_ListPageFollowsToken(t *testing.T) {
	client := &fakeEC2{pages: map[string]*ec2svc.DescribeVolumesOutput{
		"": {
			Volumes: []ec2types.Volume{{
				VolumeId:   aws.String("vol-1"),
				Encrypted:  aws.Bool(false),
				Size:       aws.Int32(100),
				State:      ec2types.VolumeStateInUse,
				VolumeType: ec2types.VolumeTypeGp3,
				Attachments: []ec2types.VolumeAttachment{
					{InstanceId: aws.String("i-abc")},
				},
				Tags: []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String("data")}},
			}},
			NextToken: aws.String("t2"),
		},
		"t2": {
			Volumes:   []ec2types.Volume{{VolumeId: aws.String("vol-2")}},
			NextToken: aws.String(""),
		},
	}}
	src := NewEBSVolumeSource(client, "us-east-1")

	first, err := src.ListPage(context.Background(), nil)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if aws.ToString(first.NextCursor) != "t2" {
		t.Fatalf("next cursor: got %v; want t2", first.NextCursor)
	}
	rec := first.Records[0]
	if rec.ID != "vol-1" || rec.Name != "data" || rec.Region != "us-east-1" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Encrypted == nil || *rec.Encrypted {
		t.Errorf("encrypted flag: got %v; want false", rec.Encrypted)
	}
	if rec.Attributes["instance_id"] != "i-abc" || rec.Attributes["size_gb"] != int32(100) {
		t.Errorf("attributes: %+v", rec.Attributes)
	}

	second, err := src.ListPage(context.Background(), first.NextCursor)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if second.NextCursor != nil {
		t.Errorf("empty token must end the listing; got %q", *second.NextCursor)
	}
	if second.Records[0].Encrypted != nil {
		t.Error("absent flag must stay nil")
	}
	if got := aws.ToInt32(client.calls[0].MaxResults); got != ebsPageSize {
		t.Errorf("MaxResults: got %d; want %d", got, ebsPageSize)
	}
}

func TestEBSVolumeSource_ErrorWrapped(t *testing.T) {
	src := NewEBSVolumeSource(&fakeEC2{err: errors.New("InvalidNextToken")}, "us-east-1")
	_, err := src.ListPage(context.Background(), aws.String("stale"))
	var pe *models.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("want ProviderError, got %T", err)
	}
	if pe.Kind != models.ResourceEBSVolume || pe.Op != "DescribeVolumes" {
		t.Errorf("unexpected error fields: %+v", pe)
	}
}

// ── RDS ──────────────────────────────────────────────────────────────────────

func TestRDSInstanceSource_ListPage(t *testing.T) {
	client := &fakeRDS{out: &rdssvc.DescribeDBInstancesOutput{
		DBInstances: []rdstypes.DBInstance{
			{DBInstanceIdentifier: aws.String("orders"), StorageEncrypted: aws.Bool(false), Engine: aws.String("postgres")},
			{DBInstanceIdentifier: aws.String("users"), StorageEncrypted: aws.Bool(true)},
		},
		Marker: aws.String("m2"),
	}}
	src := NewRDSInstanceSource(client, "eu-west-1")

	page, err := src.ListPage(context.Background(), aws.String("m1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(client.in.Marker) != "m1" {
		t.Errorf("marker not forwarded: %v", client.in.Marker)
	}
	if len(page.Records) != 2 || aws.ToString(page.NextCursor) != "m2" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Records[0].Attributes["engine"] != "postgres" {
		t.Errorf("engine attribute: %+v", page.Records[0].Attributes)
	}
	if page.Records[0].Kind != models.ResourceRDS {
		t.Errorf("kind: got %s", page.Records[0].Kind)
	}
}

func TestRDSInstanceSource_ErrorWrapped(t *testing.T) {
	src := NewRDSInstanceSource(&fakeRDS{err: errors.New("AccessDenied")}, "eu-west-1")
	_, err := src.ListPage(context.Background(), nil)
	var pe *models.ProviderError
	if !errors.As(err, &pe) || pe.Op != "DescribeDBInstances" {
		t.Fatalf("want DescribeDBInstances ProviderError, got %v", err)
	}
}

// ── S3 ───────────────────────────────────────────────────────────────────────

func TestS3BucketSource_ListPageMarksLookup(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	client := &fakeS3{list: &s3svc.ListBucketsOutput{
		Buckets: []s3types.Bucket{
			{Name: aws.String("logs"), BucketRegion: aws.String("eu-central-1"), CreationDate: &created},
			{Name: aws.String("assets")},
		},
		ContinuationToken: aws.String("c2"),
	}}
	src := NewS3BucketSource(singleClient(client, nil), "us-east-1")

	page, err := src.ListPage(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(page.NextCursor) != "c2" {
		t.Errorf("next cursor: %v", page.NextCursor)
	}
	if aws.ToInt32(client.listIn.MaxBuckets) != s3PageSize {
		t.Errorf("MaxBuckets: got %d", aws.ToInt32(client.listIn.MaxBuckets))
	}
	for _, r := range page.Records {
		if !r.NeedsLookup {
			t.Errorf("%s: NeedsLookup must be true", r.ID)
		}
		if r.Encrypted != nil {
			t.Errorf("%s: listing carries no encryption flag", r.ID)
		}
	}
	if page.Records[0].Region != "eu-central-1" {
		t.Errorf("bucket region: got %q", page.Records[0].Region)
	}
}

func TestS3BucketSource_ListError(t *testing.T) {
	src := NewS3BucketSource(singleClient(&fakeS3{listErr: errors.New("throttled")}, nil), "us-east-1")
	_, err := src.ListPage(context.Background(), nil)
	var pe *models.ProviderError
	if !errors.As(err, &pe) || pe.Op != "ListBuckets" {
		t.Fatalf("want ListBuckets ProviderError, got %v", err)
	}
}

func TestS3BucketSource_LookupEncryption(t *testing.T) {
	client := &fakeS3{
		enc: map[string]*s3svc.GetBucketEncryptionOutput{
			"kms": {ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
				Rules: []s3types.ServerSideEncryptionRule{sseRule(s3types.ServerSideEncryptionAwsKms)},
			}},
			"empty-rules": {ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
				Rules: []s3types.ServerSideEncryptionRule{{BucketKeyEnabled: aws.Bool(true)}},
			}},
			"nil-config": {},
		},
		encErr: map[string]error{
			"missing": &smithy.GenericAPIError{Code: errCodeSSENotFound, Message: "not found"},
			"denied":  &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"},
			"network": errors.New("connection reset"),
		},
	}
	src := NewS3BucketSource(singleClient(client, nil), "us-east-1")

	tests := []struct {
		bucket string
		want   models.EncryptionState
	}{
		{"kms", models.EncryptionConfigured},
		{"empty-rules", models.EncryptionNotConfigured},
		{"nil-config", models.EncryptionNotConfigured},
		{"missing", models.EncryptionNotConfigured},
		{"denied", models.EncryptionLookupFailed},
		{"network", models.EncryptionLookupFailed},
	}
	for _, tc := range tests {
		t.Run(tc.bucket, func(t *testing.T) {
			st := src.LookupEncryption(context.Background(), models.ResourceRecord{
				Kind: models.ResourceS3Bucket, ID: tc.bucket, NeedsLookup: true,
			})
			if st.State != tc.want {
				t.Fatalf("state: got %s; want %s", st.State, tc.want)
			}
			if tc.want != models.EncryptionLookupFailed {
				if st.Cause != nil {
					t.Errorf("unexpected cause: %v", st.Cause)
				}
				return
			}
			var pe *models.ProviderError
			if !errors.As(st.Cause, &pe) {
				t.Fatalf("cause must be ProviderError, got %T", st.Cause)
			}
			if pe.ResourceID != tc.bucket || pe.Op != "GetBucketEncryption" {
				t.Errorf("unexpected cause fields: %+v", pe)
			}
		})
	}
}

func TestS3BucketSource_LookupUsesBucketRegion(t *testing.T) {
	client := &fakeS3{enc: map[string]*s3svc.GetBucketEncryptionOutput{"b": {}}}
	var regions []string
	src := NewS3BucketSource(singleClient(client, &regions), "us-east-1")

	ctx := context.Background()
	src.LookupEncryption(ctx, models.ResourceRecord{ID: "b", Region: "ap-south-1"})
	src.LookupEncryption(ctx, models.ResourceRecord{ID: "b", Region: "ap-south-1"})
	src.LookupEncryption(ctx, models.ResourceRecord{ID: "b"})

	want := []string{"ap-south-1", "us-east-1"}
	if len(regions) != len(want) {
		t.Fatalf("factory calls: got %v; want %v", regions, want)
	}
	for i := range want {
		if regions[i] != want[i] {
			t.Errorf("factory call %d: got %q; want %q", i, regions[i], want[i])
		}
	}
}

func TestNewSources_CoversEveryKind(t *testing.T) {
	srcs := NewSources(aws.Config{Region: "us-east-1"}, nil)
	seen := map[models.ResourceType]bool{}
	for _, s := range srcs {
		seen[s.Kind()] = true
		if rs, ok := s.(*RegionalSource); ok {
			if got := rs.Regions(); len(got) != 1 || got[0] != "us-east-1" {
				t.Errorf("%s regions: got %v; want [us-east-1]", s.Kind(), got)
			}
		}
	}
	for _, k := range []models.ResourceType{models.ResourceEBSVolume, models.ResourceS3Bucket, models.ResourceRDS} {
		if !seen[k] {
			t.Errorf("missing source for %s", k)
		}
	}
}

func TestNewSources_ListsEveryRegion(t *testing.T) {
	regional := []aws.Config{{Region: "us-east-1"}, {Region: "eu-west-1"}, {Region: "us-east-1"}}
	for _, s := range NewSources(aws.Config{Region: "us-east-1"}, regional) {
		rs, ok := s.(*RegionalSource)
		if !ok {
			continue
		}
		got := rs.Regions()
		if len(got) != 2 || got[0] != "us-east-1" || got[1] != "eu-west-1" {
			t.Errorf("%s regions: got %v; want [us-east-1 eu-west-1]", s.Kind(), got)
		}
	}
}

func TestRegionalSource_WalksRegionsInOrder(t *testing.T) {
	clients := map[string]*fakeEC2{
		"us-east-1": {pages: map[string]*ec2svc.DescribeVolumesOutput{
			"": {Volumes: []ec2types.Volume{{VolumeId: aws.String("vol-use1"), Encrypted: aws.Bool(true)}}},
		}},
		"eu-west-1": {pages: map[string]*ec2svc.DescribeVolumesOutput{
			"":   {Volumes: []ec2types.Volume{{VolumeId: aws.String("vol-euw1-a"), Encrypted: aws.Bool(false)}}, NextToken: aws.String("t2")},
			"t2": {Volumes: []ec2types.Volume{{VolumeId: aws.String("vol-euw1-b"), Encrypted: aws.Bool(false)}}},
		}},
	}
	src := NewRegionalSource(models.ResourceEBSVolume, []string{"us-east-1", "eu-west-1"}, func(r string) scan.Source {
		return NewEBSVolumeSource(clients[r], r)
	})

	var ids, regions []string
	var cursor *string
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("listing did not terminate")
		}
		page, err := src.ListPage(context.Background(), cursor)
		if err != nil {
			t.Fatalf("ListPage: %v", err)
		}
		for _, r := range page.Records {
			ids = append(ids, r.ID)
			regions = append(regions, r.Region)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	wantIDs := []string{"vol-use1", "vol-euw1-a", "vol-euw1-b"}
	wantRegions := []string{"us-east-1", "eu-west-1", "eu-west-1"}
	if len(ids) != len(wantIDs) {
		t.Fatalf("ids: got %v; want %v", ids, wantIDs)
	}
	for i := range wantIDs {
		if ids[i] != wantIDs[i] || regions[i] != wantRegions[i] {
			t.Errorf("record %d: got %s in %s; want %s in %s", i, ids[i], regions[i], wantIDs[i], wantRegions[i])
		}
	}
	if n := len(clients["eu-west-1"].calls); n != 2 {
		t.Errorf("eu-west-1 DescribeVolumes calls: got %d; want 2", n)
	}
	if tok := aws.ToString(clients["eu-west-1"].calls[0].NextToken); tok != "" {
		t.Errorf("eu-west-1 first call token: got %q; want empty", tok)
	}
}

func TestRegionalSource_RejectsUnknownRegionCursor(t *testing.T) {
	src := NewRegionalSource(models.ResourceRDS, []string{"us-east-1"}, func(r string) scan.Source {
		return NewRDSInstanceSource(&fakeRDS{out: &rdssvc.DescribeDBInstancesOutput{}}, r)
	})
	for _, c := range []string{"ap-south-1|tok", "no-separator"} {
		if _, err := src.ListPage(context.Background(), aws.String(c)); err == nil {
			t.Errorf("cursor %q: expected error", c)
		}
	}
}
