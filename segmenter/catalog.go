package segmenter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// SegmentProfile is the marketing copy shown for a cluster.
type SegmentProfile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Strategy    string `json:"strategy" yaml:"strategy"`
	Color       string `json:"color" yaml:"color"`
}

// Catalog maps every cluster id the model can produce to its profile.
type Catalog map[ClusterID]SegmentProfile

// DefaultCatalog returns the hand-written profiles for the four-cluster model.
func DefaultCatalog() Catalog {
	return Catalog{
		0: {
			Name:        "Casual Shoppers",
			Description: "Younger customers with low income and minimal spending",
			Strategy:    "Strategy: Promotional offers, discount codes, free shipping",
			Color:       "#FF6B6B",
		},
		1: {
			Name:        "VIP Customers",
			Description: "Most valuable segment with highest spending",
			Strategy:    "Strategy: Premium loyalty programs, exclusive offers, early access",
			Color:       "#FFD700",
		},
		2: {
			Name:        "Browsers Without Conversion",
			Description: "Interested but not purchasing",
			Strategy:    "Strategy: Urgent reactivation campaign, personalized offers, win-back emails",
			Color:       "#FFA07A",
		},
		3: {
			Name:        "Digital Enthusiasts",
			Description: "Active customers with high online purchases",
			Strategy:    "Strategy: Optimize online UX, product recommendations, cross-selling",
			Color:       "#4ECDC4",
		},
	}
}

// IDs returns the catalog's cluster ids, sorted.
func (c Catalog) IDs() []ClusterID {
	ids := make([]ClusterID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ParseHexColor splits a "#RRGGBB" color into its channels.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimSpace(s)
	if !hexColor.MatchString(s) {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, err
	}
	return uint8(n >> 16), uint8(n >> 8), uint8(n), nil
}

// IsLightColor reports whether dark text reads better than white text on hex.
// Unparseable colors count as dark.
func IsLightColor(hex string) bool {
	r, g, b, err := ParseHexColor(hex)
	if err != nil {
		return false
	}
	return 0.299*float64(r)+0.587*float64(g)+0.114*float64(b) > 150
}

// Check verifies each profile has a name and a #RRGGBB color.
func (c Catalog) Check() error {
	for _, id := range c.IDs() {
		p := c[id]
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("segment %d has no name", id)
		}
		if !hexColor.MatchString(p.Color) {
			return fmt.Errorf("segment %d color %q is not #RRGGBB", id, p.Color)
		}
	}
	return nil
}

type catalogEntry struct {
	ID             ClusterID `json:"id" yaml:"id"`
	SegmentProfile `yaml:",inline"`
}

// LoadCatalog reads a YAML or JSON list of {id, name, description, strategy, color}.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, artifactError(ArtifactCatalog, path, err)
	}
	var entries []catalogEntry
	if err := decodeByExt(path, data, &entries); err != nil {
		return nil, artifactError(ArtifactCatalog, path, err)
	}
	cat := make(Catalog, len(entries))
	for _, e := range entries {
		if _, dup := cat[e.ID]; dup {
			return nil, artifactError(ArtifactCatalog, path, fmt.Errorf("duplicate segment %d", e.ID))
		}
		cat[e.ID] = SegmentProfile{
			Name:        NormalizeText(e.Name),
			Description: NormalizeText(e.Description),
			Strategy:    NormalizeText(e.Strategy),
			Color:       strings.ToUpper(strings.TrimSpace(e.Color)),
		}
	}
	if len(cat) == 0 {
		return nil, artifactError(ArtifactCatalog, path, fmt.Errorf("no segments defined"))
	}
	if err := cat.Check(); err != nil {
		return nil, artifactError(ArtifactCatalog, path, err)
	}
	return cat, nil
}

// ValidateConsistency enforces |catalog| == K == distinct summary ids, all in 0..K-1.
func ValidateConsistency(k int, catalog Catalog, summary *SummaryTable) error {
	for id := range k {
		cid := ClusterID(id)
		if _, ok := catalog[cid]; !ok {
			return &ConfigMismatchError{ClusterID: cid, Table: "segment catalog", Reason: reasonMissing}
		}
		if _, ok := summary.Row(cid); !ok {
			return &ConfigMismatchError{ClusterID: cid, Table: "cluster summary", Reason: reasonMissing}
		}
	}
	for _, id := range catalog.IDs() {
		if id < 0 || int(id) >= k {
			return &ConfigMismatchError{ClusterID: id, Table: "segment catalog", Reason: reasonUnexpected}
		}
	}
	for _, id := range summary.IDs() {
		if id < 0 || int(id) >= k {
			return &ConfigMismatchError{ClusterID: id, Table: "cluster summary", Reason: reasonUnexpected}
		}
	}
	return nil
}

// Lookup returns the profile and statistics row for id.
func Lookup(id ClusterID, catalog Catalog, summary *SummaryTable) (SegmentProfile, ClusterSummaryRow, error) {
	profile, ok := catalog[id]
	if !ok {
		return SegmentProfile{}, ClusterSummaryRow{}, &ConfigMismatchError{ClusterID: id, Table: "segment catalog", Reason: reasonMissing}
	}
	row, ok := summary.Row(id)
	if !ok {
		return SegmentProfile{}, ClusterSummaryRow{}, &ConfigMismatchError{ClusterID: id, Table: "cluster summary", Reason: reasonMissing}
	}
	return profile, row, nil
}

// LegendEntry pairs a cluster id with its profile for the segment legend.
type LegendEntry struct {
	ID      ClusterID      `json:"id"`
	Profile SegmentProfile `json:"profile"`
}

// Legend lists every profile in id order.
func (c Catalog) Legend() []LegendEntry {
	ids := c.IDs()
	out := make([]LegendEntry, len(ids))
	for i, id := range ids {
		out[i] = LegendEntry{ID: id, Profile: c[id]}
	}
	return out
}
