package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pindl/pkg/errors"
	"pindl/pkg/models"
)

const baseURL = "https://pinterest.com"

func TestClassifyPlainPin(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{
		Href:    "/pin/12345abc/",
		Caption: "a nice photo",
		SrcSet:  "https://i.pinimg.com/236x/aa/bb/cc.jpg 1x, https://i.pinimg.com/736x/aa/bb/cc.jpg 3x, https://i.pinimg.com/originals/aa/bb/cc.jpg 4x",
	}})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 1)
	assert.Equal(t, models.TypePin, pins[0].Type)
	assert.Equal(t, "a nice photo", pins[0].Text)
	assert.Equal(t, "https://pinterest.com/pin/12345abc/", pins[0].URL)
	assert.Equal(t, "https://i.pinimg.com/originals/aa/bb/cc.jpg", pins[0].Media.Src)
}

func TestClassifyPinHEICFallsBackTo3x(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{
		Href:   "/pin/999/",
		SrcSet: "https://i.pinimg.com/736x/aa/bb/cc.jpg 3x, https://i.pinimg.com/originals/aa/bb/cc.heic 4x",
	}})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 1)
	assert.Equal(t, "https://i.pinimg.com/736x/aa/bb/cc.jpg", pins[0].Media.Src)
}

func TestClassifyVideoTileIsSkipped(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{
		Href:     "/pin/777/",
		HasVideo: true,
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, c.PinCount())
}

func TestClassifyBadgePinHasNoSource(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{
		Href:       "/pin/888/",
		MediaBadge: "Video",
		SrcSet:     "https://i.pinimg.com/736x/aa/bb/cc.jpg 3x, https://i.pinimg.com/originals/aa/bb/cc.jpg 4x",
	}})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 1)
	assert.Empty(t, pins[0].Media.Src, "badge pin must be resolved via the metadata API")
	assert.Equal(t, "888", pins[0].ID)
}

func TestClassifyGIFBadgeKeepsThumbnail(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{
		Href:       "/pin/888/",
		MediaBadge: "GIF",
		SrcSet:     "https://i.pinimg.com/736x/aa/bb/cc.gif 3x, https://i.pinimg.com/originals/aa/bb/cc.gif 4x",
	}})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 1)
	assert.Equal(t, "https://i.pinimg.com/originals/aa/bb/cc.gif", pins[0].Media.Src)
}

func TestClassifyCarousel(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{
		Href:       "/pin/55555/",
		IsCarousel: true,
		CarouselImages: []string{
			"https://i.pinimg.com/736x/x1.jpg",
			"https://i.pinimg.com/736x/x2.jpg",
		},
	}})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 1)
	assert.Equal(t, models.TypeCarouselPin, pins[0].Type)
	assert.Equal(t, "55555", pins[0].ID)
	assert.Len(t, pins[0].Media.StoryImages, 2)
}

func TestClassifyDeletedPin(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{
		Href:          "/pin/666/",
		IsUnavailable: true,
	}})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 1)
	assert.Equal(t, models.TypeDeletedPin, pins[0].Type)
	assert.Equal(t, "666", pins[0].ID)
}

func TestClassifyFolder(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{
		{Href: "/someuser/travel-board/"},
		{Href: "/someuser/travel-board/"}, // duplicate board link
	})
	require.NoError(t, err)

	assert.Equal(t, 0, c.PinCount(), "folders never enter the pin map")
	folders := c.Folders()
	require.Len(t, folders, 1)
	assert.Equal(t, models.TypeFolder, folders[0].Type)
	assert.Equal(t, "https://pinterest.com/someuser/travel-board/", folders[0].URL)
}

func TestIdentityPrefersMediaURL(t *testing.T) {
	c := New(baseURL, 10)

	// The same media repinned under two different pin URLs must collapse
	// into one record.
	srcset := "https://i.pinimg.com/736x/ab/mediakey.jpg 3x, https://i.pinimg.com/originals/ab/mediakey.jpg 4x"
	err := c.Add([]models.RawItem{
		{Href: "/pin/first111/", SrcSet: srcset},
		{Href: "/pin/second222/", SrcSet: srcset},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.PinCount())
}

func TestUnderivablePinIDIsFatal(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{{Href: "/pin//"}})
	require.Error(t, err)

	var perr *errs.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errs.ErrorTypeExtraction, perr.Type)
	assert.True(t, errs.IsFatal(perr.Type))
}

func TestDedupKeepsFirstSeenPosition(t *testing.T) {
	c := New(baseURL, 10)
	err := c.Add([]models.RawItem{
		{Href: "/pin/aaa1/"},
		{Href: "/pin/bbb2/"},
		{Href: "/pin/aaa1/", Caption: "rescanned"},
	})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 2)
	assert.Equal(t, "aaa1", pins[0].ID)
	assert.Equal(t, "rescanned", pins[0].Text, "rescan overwrites in place")
	assert.Equal(t, "bbb2", pins[1].ID)
}

func TestLimitCapsDirectScan(t *testing.T) {
	c := New(baseURL, 2)
	err := c.Add([]models.RawItem{
		{Href: "/pin/p1/"},
		{Href: "/pin/p2/"},
		{Href: "/pin/p3/"},
		{Href: "/pin/p1/", Caption: "again"}, // rekey of a collected pin still lands
	})
	require.NoError(t, err)

	pins := c.Pins().Values()
	require.Len(t, pins, 2)
	assert.Equal(t, "p1", pins[0].ID)
	assert.Equal(t, "again", pins[0].Text)
	assert.Equal(t, "p2", pins[1].ID)
}
