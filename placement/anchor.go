package placement

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/chewxy/math32"

	"gallery-engine/catalog"
	"gallery-engine/config"
	"gallery-engine/math"
	"gallery-engine/museum"
	"gallery-engine/scene"
)

// anchorKeys are the node extras that may name an anchor's artwork.
var anchorKeys = []string{"artworkId", "artwork_id", "artworkKey", "id"}

// Anchor is a placeholder node authored into the room asset.
type Anchor struct {
	Index int
	Name  string
	Node  *scene.Node
	// ArtworkKey is the artwork id carried in the node's extras, if any.
	ArtworkKey string
}

// anchorPattern matches "<prefix>12", "<prefix>_12" and exporter-suffixed
// names such as "<prefix>-12.001".
func anchorPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `[_\-. ]?(\d+)(?:\.\d+)?$`)
}

// ScanAnchors collects the anchor nodes under root, hides them and returns
// them ordered by index, then name.
func ScanAnchors(root *scene.Node, prefix string) []Anchor {
	re := anchorPattern(prefix)
	var anchors []Anchor
	root.Traverse(func(n *scene.Node) {
		m := re.FindStringSubmatch(n.Name)
		if m == nil {
			return
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		n.Visible = false
		anchors = append(anchors, Anchor{
			Index:      idx,
			Name:       n.Name,
			Node:       n,
			ArtworkKey: extrasKey(n.Extras),
		})
	})

	sort.SliceStable(anchors, func(i, j int) bool {
		if anchors[i].Index != anchors[j].Index {
			return anchors[i].Index < anchors[j].Index
		}
		return anchors[i].Name < anchors[j].Name
	})
	return anchors
}

func extrasKey(extras map[string]any) string {
	for _, k := range anchorKeys {
		v, ok := extras[k]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return ""
}

// Binding pairs an anchor with the artwork shown on it.
type Binding struct {
	Anchor  Anchor
	Artwork catalog.Artwork
}

// AssignAnchors binds artworks to anchors in three passes, each over what
// is still free: the artwork's explicit anchor name, then the anchor's
// embedded artwork id, then anchors in order filled by the catalog in order.
// Leftover anchors and artworks are dropped. Bindings are in anchor order.
func AssignAnchors(anchors []Anchor, arts []catalog.Artwork) []Binding {
	bound := make([]int, len(anchors)) // artwork index + 1
	used := make([]bool, len(arts))

	bind := func(ai, wi int) {
		bound[ai] = wi + 1
		used[wi] = true
	}

	for wi, art := range arts {
		if art.AnchorKey == "" {
			continue
		}
		for ai, a := range anchors {
			if bound[ai] == 0 && strings.EqualFold(a.Name, art.AnchorKey) {
				bind(ai, wi)
				break
			}
		}
	}

	for ai, a := range anchors {
		if bound[ai] != 0 || a.ArtworkKey == "" {
			continue
		}
		for wi, art := range arts {
			if !used[wi] && art.ID == a.ArtworkKey {
				bind(ai, wi)
				break
			}
		}
	}

	next := 0
	for ai := range anchors {
		if bound[ai] != 0 {
			continue
		}
		for next < len(arts) && used[next] {
			next++
		}
		if next == len(arts) {
			break
		}
		bind(ai, next)
	}

	var out []Binding
	for ai, wi := range bound {
		if wi != 0 {
			out = append(out, Binding{Anchor: anchors[ai], Artwork: arts[wi-1]})
		}
	}
	return out
}

// AnchorPlacer places artworks on the room's anchor nodes. It scans once per
// mount.
type AnchorPlacer struct {
	room *museum.Handle
	cfg  config.AnchorConfig

	guard onceGuard
}

func NewAnchorPlacer(room *museum.Handle, cfg config.Config) *AnchorPlacer {
	return &AnchorPlacer{room: room, cfg: cfg.Anchor}
}

func (p *AnchorPlacer) Place(ctx context.Context, arts []catalog.Artwork) ([]Placement, error) {
	return p.guard.do(func() ([]Placement, error) {
		room, err := p.room.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("anchor placement: %w", err)
		}
		room.Group.UpdateWorldMatrices()

		anchors := ScanAnchors(room.Group, p.cfg.Prefix)
		if len(anchors) == 0 {
			slog.Warn("room has no anchors", "prefix", p.cfg.Prefix)
			return nil, nil
		}

		bindings := AssignAnchors(anchors, arts)
		out := make([]Placement, 0, len(bindings))
		for _, b := range bindings {
			out = append(out, anchorPose(b))
		}
		padLowestTier(out, p.cfg.FloorPadding, p.cfg.FloorTierTolerance)

		slog.Info("anchor placement done", "anchors", len(anchors), "placed", len(out),
			"unplaced", len(arts)-len(out))
		return out, nil
	})
}

// anchorPose takes position and rotation from the anchor's world matrix.
// Anchor planes face into the wall, so they are turned half a circle unless
// the artwork opts out.
func anchorPose(b Binding) Placement {
	pos, rot, _ := b.Anchor.Node.GetWorldMatrix().Decompose()
	if !b.Artwork.NoFlip {
		rot = rot.Mul(math.QuaternionFromYaw(math32.Pi))
	}
	rot = rot.Normalize()
	return Placement{
		ArtworkID: b.Artwork.ID,
		Artwork:   b.Artwork,
		Position:  pos,
		Rotation:  rot,
		Yaw:       rot.Yaw(),
		Mode:      config.ModeAnchor,
		Source:    b.Anchor.Name,
	}
}

// padLowestTier lifts the placements within tolerance of the lowest one.
func padLowestTier(ps []Placement, padding, tolerance float32) {
	if len(ps) == 0 || padding == 0 {
		return
	}
	lowest := ps[0].Position.Y
	for _, p := range ps[1:] {
		lowest = math32.Min(lowest, p.Position.Y)
	}
	for i := range ps {
		if ps[i].Position.Y-lowest <= tolerance {
			ps[i].Position.Y += padding
		}
	}
}
