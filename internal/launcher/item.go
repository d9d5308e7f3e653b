// Package launcher aggregates results from many sources, ranks them by
// relevance and usage history, and dispatches the action bound to the item
// the user picks.
package launcher

import "strings"

// Layer is a coarse priority band a source assigns to its items.
type Layer int

const (
	LayerBottom Layer = iota
	LayerMiddle
	LayerTop
)

// Weight returns the base score contribution of the layer.
func (l Layer) Weight() float64 {
	switch l {
	case LayerTop:
		return 2
	case LayerMiddle:
		return 1
	default:
		return 0
	}
}

func (l Layer) String() string {
	switch l {
	case LayerBottom:
		return "bottom"
	case LayerMiddle:
		return "middle"
	case LayerTop:
		return "top"
	default:
		return "unknown"
	}
}

// Item is one candidate result. Items are built fresh by every search and
// never persisted; only ID outlives a search, as the history key.
type Item struct {
	ID       string // history key, unique per source and content
	Title    string
	Subtitle string
	Icon     string // icon name or path, opaque to the launcher
	Image    string // preview image path or URI, opaque to the launcher
	Score    int    // raw relevance from the source's matcher
	Layer    Layer
	Source   string
	Action   Action

	// Filled in by Launcher.Search.
	Uses  int
	Final float64
}

// ItemID joins a source name and a source-local key into an item identity.
func ItemID(source, key string) string {
	return source + ":" + key
}

// Equal reports whether two items present identically. Identity, source
// and action are not compared.
func (i Item) Equal(o Item) bool {
	return i.Title == o.Title &&
		i.Subtitle == o.Subtitle &&
		i.Icon == o.Icon &&
		i.Image == o.Image &&
		i.Score == o.Score &&
		i.Layer == o.Layer
}

// Less orders items by layer, then raw score, then presentation fields.
// It is a strict weak ordering consistent with Equal.
func (i Item) Less(o Item) bool {
	if i.Layer != o.Layer {
		return i.Layer < o.Layer
	}
	if i.Score != o.Score {
		return i.Score < o.Score
	}
	for _, c := range [...]int{
		strings.Compare(i.Title, o.Title),
		strings.Compare(i.Subtitle, o.Subtitle),
		strings.Compare(i.Icon, o.Icon),
		strings.Compare(i.Image, o.Image),
	} {
		if c != 0 {
			return c < 0
		}
	}
	return false
}
