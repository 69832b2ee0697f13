package collector

import (
	"regexp"
	"strings"

	errs "pindl/pkg/errors"
	"pindl/pkg/models"
)

var (
	// srcsetPattern picks the 3x rendition and the originals rendition out
	// of a thumbnail srcset.
	srcsetPattern = regexp.MustCompile(`(https[^\s]+) 3x.*(https[^\s]+originals[^\s]+)`)

	// pinIDFromURL extracts the pin id from a detail page URL.
	pinIDFromURL = regexp.MustCompile(`pin/([\d\w]+)`)

	// pinIDFromSrc extracts the sharded media id out of a CDN URL. Preferred
	// over the URL id because it survives repins of the same media.
	pinIDFromSrc = regexp.MustCompile(`/[\d\w]{2}/([^/]+)\.`)

	// folderNameFromURL extracts the last path segment of a board URL.
	folderNameFromURL = regexp.MustCompile(`/([^/]+)/?$`)
)

// Collector accumulates classified grid items across scroll passes,
// deduplicating pins by identity and boards by name.
type Collector struct {
	baseURL     string
	limit       int
	pins        *PinMap
	folders     []models.PinRecord
	folderNames map[string]bool
}

// New creates a collector that holds at most limit distinct pins. A limit of
// zero or less means unbounded.
func New(baseURL string, limit int) *Collector {
	return &Collector{
		baseURL:     strings.TrimRight(baseURL, "/"),
		limit:       limit,
		pins:        NewPinMap(),
		folderNames: make(map[string]bool),
	}
}

// classification is the outcome of matching one raw item against the rule
// table: the built record plus the dedup key it files under.
type classification struct {
	pin models.PinRecord
	key string
}

// rule is one first-match classification rule. match decides whether the
// rule applies; build produces the record and its dedup key.
type rule struct {
	name  string
	match func(models.RawItem) bool
	build func(*Collector, models.RawItem) (classification, error)
}

// rules are evaluated in order; the first match wins. The plain pin rule is
// the fallback and always matches.
var rules = []rule{
	{
		name:  "video",
		match: func(it models.RawItem) bool { return it.HasVideo },
		build: func(*Collector, models.RawItem) (classification, error) {
			// Video tiles carry no usable reference in the grid; the pin
			// only exists on its detail page, so the tile is skipped.
			return classification{}, nil
		},
	},
	{
		name:  "carousel",
		match: func(it models.RawItem) bool { return it.IsCarousel },
		build: (*Collector).buildCarousel,
	},
	{
		name:  "deleted",
		match: func(it models.RawItem) bool { return it.IsUnavailable },
		build: (*Collector).buildDeleted,
	},
	{
		name:  "folder",
		match: func(it models.RawItem) bool { return !strings.Contains(it.Href, "/pin/") },
		build: (*Collector).buildFolder,
	},
	{
		name:  "pin",
		match: func(models.RawItem) bool { return true },
		build: (*Collector).buildPin,
	},
}

// Add classifies a batch of raw grid items and merges them into the
// collection. An item whose identity cannot be derived aborts the whole
// extraction.
func (c *Collector) Add(items []models.RawItem) error {
	for _, item := range items {
		for _, r := range rules {
			if !r.match(item) {
				continue
			}
			cl, err := r.build(c, item)
			if err != nil {
				return err
			}
			if cl.key == "" {
				break // skipped item
			}
			if cl.pin.Type == models.TypeFolder {
				if !c.folderNames[cl.key] {
					c.folderNames[cl.key] = true
					c.folders = append(c.folders, cl.pin)
				}
			} else if c.admit(cl.key) {
				c.pins.Set(cl.key, cl.pin)
			}
			break
		}
	}
	return nil
}

// admit reports whether a pin keyed by key may enter the map. Re-keys of an
// already collected pin are always allowed; new keys are rejected once the
// limit is reached, so a single screen scan never overshoots it.
func (c *Collector) admit(key string) bool {
	if _, exists := c.pins.Get(key); exists {
		return true
	}
	return c.limit <= 0 || c.pins.Len() < c.limit
}

// Pins returns the ordered pin collection.
func (c *Collector) Pins() *PinMap {
	return c.pins
}

// Folders returns the boards discovered so far, in first-seen order.
func (c *Collector) Folders() []models.PinRecord {
	out := make([]models.PinRecord, len(c.folders))
	copy(out, c.folders)
	return out
}

// PinCount is the number of distinct pins collected so far. Folders do not
// count against a download limit.
func (c *Collector) PinCount() int {
	return c.pins.Len()
}

func (c *Collector) buildCarousel(item models.RawItem) (classification, error) {
	url := c.absolutize(item.Href)
	id, err := urlPinID(url)
	if err != nil {
		return classification{}, err
	}
	return classification{
		pin: models.PinRecord{
			ID:   id,
			Type: models.TypeCarouselPin,
			URL:  url,
			Media: models.Media{
				StoryImages: item.CarouselImages,
			},
		},
		key: id,
	}, nil
}

func (c *Collector) buildDeleted(item models.RawItem) (classification, error) {
	url := c.absolutize(item.Href)
	id, err := urlPinID(url)
	if err != nil {
		return classification{}, err
	}
	return classification{
		pin: models.PinRecord{
			ID:   id,
			Type: models.TypeDeletedPin,
			URL:  url,
		},
		key: id,
	}, nil
}

func (c *Collector) buildFolder(item models.RawItem) (classification, error) {
	url := c.absolutize(item.Href)
	name := folderNameFromURL.FindStringSubmatch(strings.TrimRight(url, "/"))
	if name == nil {
		return classification{}, nil // not a board link, skip
	}
	return classification{
		pin: models.PinRecord{
			Type: models.TypeFolder,
			URL:  url,
		},
		key: name[1],
	}, nil
}

func (c *Collector) buildPin(item models.RawItem) (classification, error) {
	url := c.absolutize(item.Href)
	pin := models.PinRecord{
		Type: models.TypePin,
		URL:  url,
		Text: item.Caption,
	}

	// A non-GIF media badge means the thumbnail is a preview, not the real
	// media; the pin keeps an empty source and goes through the metadata
	// API later.
	if item.MediaBadge == "" || strings.EqualFold(item.MediaBadge, "GIF") {
		pin.Media.Src = thumbnailSource(item.SrcSet)
	}

	// Identity comes from the sharded media path when available, falling
	// back to the pin id in the URL.
	if match := pinIDFromSrc.FindStringSubmatch(pin.Media.Src); match != nil {
		pin.ID = match[1]
	} else if match := pinIDFromURL.FindStringSubmatch(url); match != nil {
		pin.ID = match[1]
	} else {
		return classification{}, errs.New(errs.ErrorTypeExtraction, "pin id not found for %s", url)
	}

	return classification{pin: pin, key: pin.ID}, nil
}

// thumbnailSource resolves the best image URL out of a srcset. The originals
// rendition wins unless it is a heic, which browsers cannot decode; then the
// 3x rendition is used.
func thumbnailSource(srcset string) string {
	match := srcsetPattern.FindStringSubmatch(srcset)
	if match == nil || match[1] == "" {
		return ""
	}
	if strings.Contains(match[2], ".heic") {
		return match[1]
	}
	return match[2]
}

func urlPinID(url string) (string, error) {
	match := pinIDFromURL.FindStringSubmatch(url)
	if match == nil {
		return "", errs.New(errs.ErrorTypeExtraction, "pin id not found for %s", url)
	}
	return match[1], nil
}

func (c *Collector) absolutize(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return c.baseURL + "/" + strings.TrimLeft(href, "/")
}
