package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/rulepacks/dataprotection"
)

var fixedClock = models.FixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

// ── test doubles ──────────────────────────────────────────────────────────────

// fakeSource serves pre-built pages keyed by cursor. Page i is returned for
// cursor "p<i>" (nil for page 0).
type fakeSource struct {
	kind    models.ResourceType
	pages   [][]models.ResourceRecord
	failAt  int // page index that fails; -1 disables
	err     error
	calls   int
	cursors []string
}

func (f *fakeSource) Kind() models.ResourceType { return f.kind }

func (f *fakeSource) ListPage(_ context.Context, cursor *string) (Page, error) {
	f.calls++
	idx := 0
	if cursor != nil {
		f.cursors = append(f.cursors, *cursor)
		if _, err := fmt.Sscanf(*cursor, "p%d", &idx); err != nil {
			return Page{}, fmt.Errorf("invalid cursor %q", *cursor)
		}
	}
	if idx == f.failAt {
		return Page{}, f.err
	}
	if idx >= len(f.pages) {
		return Page{}, fmt.Errorf("expired cursor %q", *cursor)
	}
	p := Page{Records: f.pages[idx]}
	if idx+1 < len(f.pages) {
		next := fmt.Sprintf("p%d", idx+1)
		p.NextCursor = &next
	}
	return p, nil
}

// fakeBucketSource adds an encryption lookup keyed by bucket name.
type fakeBucketSource struct {
	fakeSource
	status  map[string]models.EncryptionStatus
	lookups int
}

func (f *fakeBucketSource) LookupEncryption(_ context.Context, rec models.ResourceRecord) models.EncryptionStatus {
	f.lookups++
	return f.status[rec.ID]
}

// ── helpers ───────────────────────────────────────────────────────────────────

func volumes(prefix string, n int, encryptedEvery int) []models.ResourceRecord {
	out := make([]models.ResourceRecord, 0, n)
	for i := 0; i < n; i++ {
		enc := encryptedEvery > 0 && i%encryptedEvery == 0
		out = append(out, models.ResourceRecord{
			Kind:      models.ResourceEBSVolume,
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			Encrypted: &enc,
		})
	}
	return out
}

func newScanner(sources ...Source) *Scanner {
	s := NewScanner(dataprotection.NewRegistry(), fixedClock)
	for _, src := range sources {
		s.AddSource(src)
	}
	return s
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestScan_FollowsAllPages(t *testing.T) {
	src := &fakeSource{
		kind:   models.ResourceEBSVolume,
		pages:  [][]models.ResourceRecord{volumes("a", 2, 0), volumes("b", 5, 0), volumes("c", 1, 0)},
		failAt: -1,
	}
	res, err := newScanner(src).ScanKind(context.Background(), models.ResourceEBSVolume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 3 {
		t.Errorf("want 3 ListPage calls, got %d", src.calls)
	}
	if res.RecordsScanned != 8 {
		t.Errorf("want 8 records scanned, got %d", res.RecordsScanned)
	}
	if len(res.Findings) != 8 {
		t.Errorf("want 8 findings, got %d", len(res.Findings))
	}
	if len(src.cursors) != 2 || src.cursors[0] != "p1" || src.cursors[1] != "p2" {
		t.Errorf("cursors not followed in order: %v", src.cursors)
	}
}

// The same resource set split across 1 or 3 pages yields identical results.
func TestScan_PaginationInvariant(t *testing.T) {
	all := volumes("v", 9, 3) // every third volume encrypted → 6 unencrypted

	single := &fakeSource{kind: models.ResourceEBSVolume, pages: [][]models.ResourceRecord{all}, failAt: -1}
	paged := &fakeSource{
		kind:   models.ResourceEBSVolume,
		pages:  [][]models.ResourceRecord{all[:1], all[1:7], all[7:]},
		failAt: -1,
	}

	r1, err := newScanner(single).ScanKind(context.Background(), models.ResourceEBSVolume)
	if err != nil {
		t.Fatalf("single page: %v", err)
	}
	r3, err := newScanner(paged).ScanKind(context.Background(), models.ResourceEBSVolume)
	if err != nil {
		t.Fatalf("three pages: %v", err)
	}

	if r1.RecordsScanned != 9 || r3.RecordsScanned != 9 {
		t.Errorf("records scanned: single=%d paged=%d; want 9", r1.RecordsScanned, r3.RecordsScanned)
	}
	if len(r1.Findings) != 6 || len(r3.Findings) != 6 {
		t.Fatalf("findings: single=%d paged=%d; want 6", len(r1.Findings), len(r3.Findings))
	}
	for i := range r1.Findings {
		if r1.Findings[i].ResourceID != r3.Findings[i].ResourceID {
			t.Errorf("finding %d: %q vs %q", i, r1.Findings[i].ResourceID, r3.Findings[i].ResourceID)
		}
	}
}

// Pages with only compliant records must not stop enumeration early.
func TestScan_ConsumesListingWithoutEarlyFindings(t *testing.T) {
	src := &fakeSource{
		kind:   models.ResourceEBSVolume,
		pages:  [][]models.ResourceRecord{volumes("x", 3, 1), {}, volumes("y", 1, 0)},
		failAt: -1,
	}
	res, err := newScanner(src).ScanKind(context.Background(), models.ResourceEBSVolume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Pages != 3 {
		t.Errorf("want 3 pages, got %d", res.Pages)
	}
	if len(res.Findings) != 1 || res.Findings[0].ResourceID != "y-0" {
		t.Errorf("want single finding y-0 from the last page, got %+v", res.Findings)
	}
}

func TestScan_EmptyListing_NonNilFindings(t *testing.T) {
	src := &fakeSource{kind: models.ResourceEBSVolume, pages: [][]models.ResourceRecord{{}}, failAt: -1}
	findings, err := newScanner(src).Scan(context.Background(), models.ResourceEBSVolume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if findings == nil || len(findings) != 0 {
		t.Errorf("want empty non-nil slice, got %#v", findings)
	}
}

func TestScan_ProviderErrorMidListing(t *testing.T) {
	cause := &models.ProviderError{Kind: models.ResourceEBSVolume, Op: "DescribeVolumes", Err: errors.New("throttled")}
	src := &fakeSource{
		kind:   models.ResourceEBSVolume,
		pages:  [][]models.ResourceRecord{volumes("a", 2, 0), volumes("b", 2, 0)},
		failAt: 1,
		err:    cause,
	}
	findings, err := newScanner(src).Scan(context.Background(), models.ResourceEBSVolume)
	if findings != nil {
		t.Errorf("want no partial findings, got %d", len(findings))
	}
	var serr *models.ScanError
	if !errors.As(err, &serr) {
		t.Fatalf("want *models.ScanError, got %T", err)
	}
	if serr.Kind != models.ResourceEBSVolume {
		t.Errorf("scan error kind: got %q", serr.Kind)
	}
	if !errors.Is(err, cause) {
		t.Error("scan error must wrap the provider error")
	}
}

func TestScan_S3NotConfiguredIsFinding(t *testing.T) {
	src := &fakeBucketSource{
		fakeSource: fakeSource{
			kind: models.ResourceS3Bucket,
			pages: [][]models.ResourceRecord{{
				{Kind: models.ResourceS3Bucket, ID: "enc", Name: "enc", NeedsLookup: true},
				{Kind: models.ResourceS3Bucket, ID: "plain", Name: "plain", NeedsLookup: true},
			}},
			failAt: -1,
		},
		status: map[string]models.EncryptionStatus{
			"enc":   models.Configured(),
			"plain": models.NotConfigured(),
		},
	}
	findings, err := newScanner(src).Scan(context.Background(), models.ResourceS3Bucket)
	if err != nil {
		t.Fatalf("NotConfigured must not raise, got %v", err)
	}
	if src.lookups != 2 {
		t.Errorf("want 2 lookups, got %d", src.lookups)
	}
	if len(findings) != 1 || findings[0].ResourceID != "plain" {
		t.Errorf("want single finding for plain, got %+v", findings)
	}
}

func TestScan_S3AccessDeniedAbortsKind(t *testing.T) {
	denied := errors.New("AccessDenied")
	src := &fakeBucketSource{
		fakeSource: fakeSource{
			kind: models.ResourceS3Bucket,
			pages: [][]models.ResourceRecord{{
				{Kind: models.ResourceS3Bucket, ID: "plain", NeedsLookup: true},
				{Kind: models.ResourceS3Bucket, ID: "locked", NeedsLookup: true},
			}},
			failAt: -1,
		},
		status: map[string]models.EncryptionStatus{
			"plain":  models.NotConfigured(),
			"locked": models.LookupFailed(denied),
		},
	}
	_, err := newScanner(src).Scan(context.Background(), models.ResourceS3Bucket)
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("want ProviderError inside ScanError, got %v", err)
	}
	if !errors.Is(err, denied) {
		t.Error("want access-denied cause preserved")
	}
}

func TestScan_CancelledContext(t *testing.T) {
	src := &fakeSource{kind: models.ResourceEBSVolume, pages: [][]models.ResourceRecord{volumes("a", 1, 0)}, failAt: -1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newScanner(src).Scan(ctx, models.ResourceEBSVolume)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("want no provider calls after cancellation, got %d", src.calls)
	}
}

// stuckSource always returns the same continuation token.
type stuckSource struct{ calls int }

func (s *stuckSource) Kind() models.ResourceType { return models.ResourceEBSVolume }
func (s *stuckSource) ListPage(context.Context, *string) (Page, error) {
	s.calls++
	tok := "same"
	return Page{NextCursor: &tok}, nil
}

func TestScan_StuckCursorFails(t *testing.T) {
	src := &stuckSource{}
	_, err := newScanner(src).Scan(context.Background(), models.ResourceEBSVolume)
	if err == nil {
		t.Fatal("want error for non-advancing cursor")
	}
	if src.calls != 2 {
		t.Errorf("want 2 calls before detecting the loop, got %d", src.calls)
	}
}

func TestScan_UnknownKind(t *testing.T) {
	_, err := newScanner().Scan(context.Background(), models.ResourceRDS)
	var serr *models.ScanError
	if !errors.As(err, &serr) {
		t.Fatalf("want ScanError, got %v", err)
	}
}

func TestScan_FindingsUseInjectedClock(t *testing.T) {
	src := &fakeSource{kind: models.ResourceEBSVolume, pages: [][]models.ResourceRecord{volumes("a", 1, 0)}, failAt: -1}
	findings, _ := newScanner(src).Scan(context.Background(), models.ResourceEBSVolume)
	if len(findings) != 1 {
		t.Fatalf("want 1 finding, got %d", len(findings))
	}
	if !findings[0].DetectedAt.Equal(fixedClock.Now()) {
		t.Errorf("detected_at: got %v", findings[0].DetectedAt)
	}
}

func TestAddSource_DuplicatePanics(t *testing.T) {
	s := newScanner(&fakeSource{kind: models.ResourceEBSVolume})
	defer func() {
		if recover() == nil {
			t.Error("want panic on duplicate source")
		}
	}()
	s.AddSource(&fakeSource{kind: models.ResourceEBSVolume})
}
