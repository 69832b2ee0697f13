package pinterest

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

var (
	schemePattern = regexp.MustCompile(`^http(s)?://`)
	hostPattern   = regexp.MustCompile(`^(\w+\.)?pinterest\.com`)
)

// NormalizeBoardURL rewrites any pinterest URL variant (regional hosts,
// missing scheme, bare paths) onto the configured base URL.
func NormalizeBoardURL(baseURL, raw string) string {
	path := schemePattern.ReplaceAllString(raw, "")
	path = hostPattern.ReplaceAllString(path, "")
	path = "/" + trimSlashes(path)
	return baseURL + path
}

func trimSlashes(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

const (
	// ResourceEndpoint serves pin metadata lookups
	ResourceEndpoint = "/resource/PinResource/get/"

	// DeleteEndpoint removes a pin from its board
	DeleteEndpoint = "/resource/PinResource/delete/"

	// resourceHandler is the PWS handler header the metadata endpoint expects
	resourceHandler = "www/pin/[id].js"
)

// resourceOptions is the options payload of a metadata lookup
const resourceOptionsFmt = `{"options":{"id":"%s","field_set_key":"auth_web_main_pin","noCache":true,"fetch_visual_search_objects":false,"get_page_metadata":true},"context":{}}`

// deleteOptions is the options payload of a delete call
const deleteOptionsFmt = `{"options":{"id":"%s"},"context":{}}`

// sourceURL is the page path a resource call claims to originate from
func sourceURL(pinID string) string {
	return fmt.Sprintf("/pin/%s/", pinID)
}

// ResourceURL constructs the metadata lookup URL for a pin id
func ResourceURL(baseURL, pinID string) string {
	params := url.Values{}
	params.Set("source_url", sourceURL(pinID))
	params.Set("data", fmt.Sprintf(resourceOptionsFmt, pinID))
	params.Set("_", fmt.Sprintf("%d", time.Now().UnixMilli()))

	return fmt.Sprintf("%s%s?%s", baseURL, ResourceEndpoint, params.Encode())
}

// DeleteURL constructs the delete endpoint URL
func DeleteURL(baseURL string) string {
	return baseURL + DeleteEndpoint
}

// DeleteBody constructs the form body of a delete call for a pin id
func DeleteBody(pinID string) string {
	form := url.Values{}
	form.Set("source_url", sourceURL(pinID))
	form.Set("data", fmt.Sprintf(deleteOptionsFmt, pinID))
	return form.Encode()
}
