package resolver

import (
	"context"
	"regexp"
	"strings"

	"pindl/pkg/logger"
	"pindl/pkg/models"
	"pindl/pkg/pinterest"
)

// extensionPattern matches the trailing dot-suffix of a media URL.
var extensionPattern = regexp.MustCompile(`\.(\w+)$`)

// Recoverer is the browser-side recovery flow for pins whose source content
// was removed.
type Recoverer interface {
	RecoverDeletedPin(ctx context.Context, pinURL string) (string, error)
}

// MetadataAPI looks up pin metadata for pins the grid could not resolve.
type MetadataAPI interface {
	PinResource(ctx context.Context, pinID string) (*pinterest.Resource, error)
}

// Resolver turns classified pin records into downloadable ones. Each pin is
// an isolated unit of failure: a pin that cannot be resolved is dropped and
// never aborts the folder.
type Resolver struct {
	session Recoverer
	api     MetadataAPI
	logger  logger.Logger
}

func New(session Recoverer, api MetadataAPI, log logger.Logger) *Resolver {
	return &Resolver{
		session: session,
		api:     api,
		logger:  log.WithField("component", "resolver"),
	}
}

// ResolveAll resolves every record in collection order and returns the pins
// that survived. Folders pass through untouched.
func (r *Resolver) ResolveAll(ctx context.Context, pins []models.PinRecord) []models.PinRecord {
	out := make([]models.PinRecord, 0, len(pins))
	for _, pin := range pins {
		resolved, ok := r.resolve(ctx, pin)
		if !ok {
			continue
		}
		out = append(out, resolved)
	}
	return out
}

func (r *Resolver) resolve(ctx context.Context, pin models.PinRecord) (models.PinRecord, bool) {
	if pin.Type == models.TypeDeletedPin {
		src, err := r.session.RecoverDeletedPin(ctx, pin.URL)
		if err != nil {
			r.logger.WithError(err).WarnWithFields("deleted pin recovery failed", map[string]interface{}{
				"pin_id": pin.ID,
				"url":    pin.URL,
			})
			return pin, false
		}
		r.logger.InfoWithFields("recovered deleted pin", map[string]interface{}{
			"pin_id": pin.ID,
			"src":    src,
		})
		pin.Type = models.TypePin
		pin.Media = models.Media{Src: src}
	}

	if pin.Type == models.TypePin {
		if pin.Media.Src == "" {
			resource, err := r.api.PinResource(ctx, pin.ID)
			if err != nil {
				r.logger.WithError(err).WarnWithFields("metadata resolution failed", map[string]interface{}{
					"pin_id": pin.ID,
				})
				return pin, false
			}
			pin.Media.Src = resource.StreamURL
			pin.Media.StoryImages = resource.StoryImages
		}
		pin.Media.Extension = Extension(pin.Media.Src)
		pin.Media.Type = models.MediaTypeForExtension(pin.Media.Extension)
	}

	return pin, true
}

// Extension returns the lower-cased trailing dot-suffix of a URL, or the
// empty string when there is none.
func Extension(url string) string {
	match := extensionPattern.FindStringSubmatch(url)
	if match == nil {
		return ""
	}
	return strings.ToLower(match[1])
}
