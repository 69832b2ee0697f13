package pinterest

// Resource is the resolved media of a pin metadata lookup. Exactly one of
// StreamURL or StoryImages is populated on success.
type Resource struct {
	// StreamURL is a direct m3u8, mp4 or gif URL
	StreamURL string

	// StoryImages holds the original image URL of each story page
	StoryImages []string
}

// resourceResponse mirrors the envelope of a PinResource get call. Only the
// fields the resolver consumes are mapped.
type resourceResponse struct {
	ResourceResponse struct {
		BodyData struct {
			Data struct {
				StoryPinData *storyPinData `json:"story_pin_data"`
			} `json:"data"`
		} `json:"bodyData"`
	} `json:"resource_response"`
}

type storyPinData struct {
	Pages []storyPage `json:"pages"`
}

type storyPage struct {
	Blocks []storyBlock `json:"blocks"`
}

type storyBlock struct {
	Image *struct {
		Images struct {
			Originals struct {
				URL string `json:"url"`
			} `json:"originals"`
		} `json:"images"`
	} `json:"image"`
}

// originalImages collects the originals URL of the first block of every page
// that carries one.
func (r *resourceResponse) originalImages() []string {
	spd := r.ResourceResponse.BodyData.Data.StoryPinData
	if spd == nil {
		return nil
	}

	var urls []string
	for _, page := range spd.Pages {
		if len(page.Blocks) == 0 {
			continue
		}
		block := page.Blocks[0]
		if block.Image == nil || block.Image.Images.Originals.URL == "" {
			continue
		}
		urls = append(urls, block.Image.Images.Originals.URL)
	}
	return urls
}
