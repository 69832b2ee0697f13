package session

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "pindl/pkg/errors"
	"pindl/pkg/models"
)

// ParseGridItems turns the markup of one or more masonry containers into raw
// grid items. Classification happens later; this only records what each tile
// visibly is.
func ParseGridItems(html string) ([]models.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "failed to parse grid markup: %v", err)
	}

	var items []models.RawItem
	doc.Find("[data-grid-item]").Each(func(_ int, tile *goquery.Selection) {
		anchor := tile.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return
		}

		item := models.RawItem{Href: href}

		if tile.Find(`[data-test-id="carousel-pin"]`).Length() > 0 {
			item.IsCarousel = true
			tile.Find(`[data-test-id="carousel-pin"] img`).Each(func(_ int, img *goquery.Selection) {
				src, _ := img.Attr("src")
				if src == "" {
					return
				}
				// Grid thumbnails come in 236px; the 736px variant is the
				// largest rendition served from the same path.
				item.CarouselImages = append(item.CarouselImages, strings.Replace(src, "236", "736", 1))
			})
		}

		if tile.Find(`[data-test-id="unavailable-pin"]`).Length() > 0 {
			item.IsUnavailable = true
		}

		if tile.Find("video").Length() > 0 {
			item.HasVideo = true
		}
		item.MediaBadge = strings.TrimSpace(tile.Find(`[data-test-id="PinTypeIdentifier"]`).First().Text())

		item.Caption = strings.TrimSpace(tile.Find(`[data-test-id="pinrep-footer"] a`).First().Text())
		if item.Caption == "" {
			item.Caption = strings.TrimSpace(tile.Find(`[data-test-id="related-pins-title"] div`).First().Text())
		}

		if img := tile.Find(`[data-test-id="pinWrapper"] img`).First(); img.Length() > 0 {
			item.SrcSet, _ = img.Attr("srcset")
		}

		items = append(items, item)
	})

	return items, nil
}
