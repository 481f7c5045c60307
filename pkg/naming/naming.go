package naming

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"pagesaver/pkg/errs"
)

const (
	// PageExt is the extension given to saved pages and to resources whose
	// URL path carries no extension of its own.
	PageExt = ".html"

	// ResourcesDirSuffix replaces PageExt to form the sibling directory
	// holding a page's downloaded resources.
	ResourcesDirSuffix = "_files"

	separator = '-'
)

// sanitize replaces every byte that is not an ASCII letter or digit with
// the separator character. Applied to host + path, never to extensions.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		} else {
			b.WriteByte(separator)
		}
	}
	return b.String()
}

func parseAbs(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing URL '%s': %v", errs.ErrInvalidInput, rawURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: URL '%s' is not absolute", errs.ErrInvalidInput, rawURL)
	}
	return u, nil
}

// PageFilename maps a page URL to its local filename:
// host + path sanitized, plus the page extension.
//
//	https://example.com/a/b -> example-com-a-b.html
func PageFilename(pageURL string) (string, error) {
	u, err := parseAbs(pageURL)
	if err != nil {
		return "", err
	}
	return sanitize(u.Host+u.Path) + PageExt, nil
}

// ResourcesDirName maps a page URL to the name of the sibling directory
// holding its downloaded resources.
//
//	https://example.com/a/b -> example-com-a-b_files
func ResourcesDirName(pageURL string) (string, error) {
	name, err := PageFilename(pageURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(name, PageExt) + ResourcesDirSuffix, nil
}

// ResourceFilename maps one resource reference, resolved against its page
// URL, to a local filename. Only the host and path of the resolved URL
// contribute; query and fragment are discarded. A path without an
// extension is treated as an HTML-like document.
//
//	page https://example.com/a/b, ref /img/x.png -> example-com-img-x.png
//	page https://example.com/a/b, ref /courses   -> example-com-courses.html
func ResourceFilename(pageURL, ref string) (string, error) {
	base, err := parseAbs(pageURL)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: parsing reference '%s': %v", errs.ErrInvalidInput, ref, err)
	}
	resolved := base.ResolveReference(refURL)

	ext := path.Ext(resolved.Path)
	stem := strings.TrimSuffix(resolved.Path, ext)
	if ext == "" {
		ext = PageExt
	}
	return sanitize(resolved.Host+stem) + ext, nil
}
