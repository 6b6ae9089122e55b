package enrich

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// Unknown is the dimension value used when an SVG size cannot be read.
const Unknown = "unknown"

var (
	svgTagRe  = regexp.MustCompile(`(?s)<svg\b[^>]*>`)
	widthRe   = regexp.MustCompile(`\swidth\s*=\s*["']([^"']*)["']`)
	heightRe  = regexp.MustCompile(`\sheight\s*=\s*["']([^"']*)["']`)
	viewBoxRe = regexp.MustCompile(`\sviewBox\s*=\s*["']([^"']*)["']`)
)

// SVGDimensions reads the size of a base64 SVG data URL (or of bare base64
// SVG text). It prefers the width and height attributes of the root element
// and falls back to the viewBox. Missing values are [Unknown].
func SVGDimensions(dataURL string) (width, height string) {
	payload := dataURL
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Unknown, Unknown
	}
	tag := svgTagRe.Find(raw)
	if tag == nil {
		return Unknown, Unknown
	}

	width, height = attr(widthRe, tag), attr(heightRe, tag)
	if width == "" || height == "" {
		if fields := strings.Fields(strings.ReplaceAll(attr(viewBoxRe, tag), ",", " ")); len(fields) == 4 {
			return fields[2], fields[3]
		}
	}
	if width == "" {
		width = Unknown
	}
	if height == "" {
		height = Unknown
	}
	return width, height
}

func attr(re *regexp.Regexp, tag []byte) string {
	if m := re.FindSubmatch(tag); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}
