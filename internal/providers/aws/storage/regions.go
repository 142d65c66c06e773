package awsstorage

import (
	"context"
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/encaudit/internal/models"
	"github.com/pankaj-dahiya-devops/encaudit/internal/scan"
)

// regionCursorSep separates the region from the service token in a
// RegionalSource cursor. Region names never contain it.
const regionCursorSep = "|"

// RegionalSource lists one kind across several regions, one region after
// the other. Its cursor is "<region>|<service token>"; an empty service token
// starts that region's listing.
type RegionalSource struct {
	kind    models.ResourceType
	regions []string
	sources map[string]scan.Source
}

// NewRegionalSource builds one source per region with build. Regions are
// listed in the order given; duplicates are dropped.
func NewRegionalSource(kind models.ResourceType, regions []string, build func(region string) scan.Source) *RegionalSource {
	s := &RegionalSource{kind: kind, sources: make(map[string]scan.Source, len(regions))}
	for _, r := range regions {
		if _, seen := s.sources[r]; seen {
			continue
		}
		s.sources[r] = build(r)
		s.regions = append(s.regions, r)
	}
	return s
}

func (s *RegionalSource) Kind() models.ResourceType { return s.kind }

// Regions returns the regions in listing order.
func (s *RegionalSource) Regions() []string {
	return append([]string(nil), s.regions...)
}

// ListPage lists one page of the region named by cursor. When that region is
// exhausted the returned cursor points at the start of the next region.
func (s *RegionalSource) ListPage(ctx context.Context, cursor *string) (scan.Page, error) {
	if len(s.regions) == 0 {
		return scan.Page{}, nil
	}
	idx, inner, err := s.decodeCursor(cursor)
	if err != nil {
		return scan.Page{}, &models.ProviderError{Kind: s.kind, Op: "ListPage", Err: err}
	}

	region := s.regions[idx]
	page, err := s.sources[region].ListPage(ctx, inner)
	if err != nil {
		return scan.Page{}, err
	}

	switch {
	case page.NextCursor != nil:
		page.NextCursor = encodeRegionCursor(region, *page.NextCursor)
	case idx+1 < len(s.regions):
		page.NextCursor = encodeRegionCursor(s.regions[idx+1], "")
	}
	return page, nil
}

func (s *RegionalSource) decodeCursor(cursor *string) (int, *string, error) {
	if cursor == nil {
		return 0, nil, nil
	}
	region, token, ok := strings.Cut(*cursor, regionCursorSep)
	if !ok {
		return 0, nil, fmt.Errorf("malformed cursor %q", *cursor)
	}
	for i, r := range s.regions {
		if r == region {
			return i, normalizeCursor(&token), nil
		}
	}
	return 0, nil, fmt.Errorf("cursor names unknown region %q", region)
}

func encodeRegionCursor(region, token string) *string {
	c := region + regionCursorSep + token
	return &c
}
