package models

// PinType classifies an item extracted from a board grid.
type PinType string

const (
	TypePin         PinType = "PIN"
	TypeDeletedPin  PinType = "DELETED_PIN"
	TypeCarouselPin PinType = "CAROUSEL_PIN"
	TypeFolder      PinType = "FOLDER"
)

// MediaType is the broad media category of a resolved pin.
type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

// imageExtensions are the extensions treated as images; everything else
// with a non-empty extension is a video.
var imageExtensions = map[string]bool{
	"png":  true,
	"jpeg": true,
	"jpg":  true,
	"gif":  true,
}

// MediaTypeForExtension maps a lower-cased file extension to a media type.
// An empty extension yields an empty media type.
func MediaTypeForExtension(ext string) MediaType {
	if ext == "" {
		return ""
	}
	if imageExtensions[ext] {
		return MediaImage
	}
	return MediaVideo
}

// Media holds the downloadable reference for a pin once resolved.
type Media struct {
	Type MediaType `json:"type,omitempty"`
	Src  string    `json:"src,omitempty"`
	// StoryImages is the ordered image sequence of a carousel/story pin.
	StoryImages []string `json:"storyImages,omitempty"`
	Extension   string   `json:"extension,omitempty"`
}

// PinRecord is a classified, identity-keyed board item.
type PinRecord struct {
	ID    string  `json:"id,omitempty"`
	Type  PinType `json:"type"`
	URL   string  `json:"url"`
	Text  string  `json:"text,omitempty"`
	Media Media   `json:"media"`
}

// FolderRecord is the finalized result of crawling one board.
type FolderRecord struct {
	Name       string         `json:"name"`
	Pins       []PinRecord    `json:"pins"`
	Subfolders []FolderRecord `json:"subfolders"`
}

// RawItem is one item descriptor extracted from the current viewport of the
// masonry grid, before classification.
type RawItem struct {
	// Href is the item's anchor URL.
	Href string
	// HasVideo marks a grid tile that renders a video element. Video pins
	// are only resolvable from their detail page, not the grid thumbnail,
	// so these tiles are excluded from collection.
	HasVideo bool
	// MediaBadge is the text of the tile's media type badge, if any. A
	// badge other than GIF means the thumbnail does not represent the
	// real media and the pin must be resolved through the metadata API.
	MediaBadge string
	// IsCarousel marks a multi-image story pin.
	IsCarousel bool
	// IsUnavailable marks a pin whose source content was removed.
	IsUnavailable bool
	// Caption is the footer text of a plain pin, if any.
	Caption string
	// SrcSet is the raw srcset attribute of a plain pin's thumbnail.
	SrcSet string
	// CarouselImages are the full-resolution story image URLs of a
	// carousel pin, in display order.
	CarouselImages []string
}
