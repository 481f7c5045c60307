package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// ResourceReference is one candidate embedded resource found in the
// document: the owning element, the attribute holding the reference, and
// the raw reference string as written in markup.
type ResourceReference struct {
	Sel  *goquery.Selection
	Attr string
	Ref  string
}

// IsLocal reports whether ref points at a resource on the same host as the
// page. Empty references, data: URIs, and references resolving to another
// host are not local. An unparsable reference is treated as not local
// rather than an error; third-party markup commonly contains malformed
// attributes.
func IsLocal(pageURL *url.URL, ref string, log *logrus.Entry) bool {
	if ref == "" {
		return false
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		log.WithField("ref", ref).Debugf("Unparsable reference, treating as non-local: %v", err)
		return false
	}
	resolved := pageURL.ResolveReference(refURL)
	if resolved.Scheme == "data" {
		return false
	}
	return resolved.Host == pageURL.Host
}

// Resources walks the parsed document and returns the local resource
// references in download order: images, then scripts, then stylesheet and
// canonical links. Document order is preserved within each element type.
func Resources(doc *goquery.Document, pageURL *url.URL, log *logrus.Entry) []ResourceReference {
	var refs []ResourceReference

	collect := func(sel *goquery.Selection, attr string) {
		ref, exists := sel.Attr(attr)
		if !exists {
			return
		}
		if !IsLocal(pageURL, ref, log) {
			log.WithFields(logrus.Fields{"ref": ref, "attr": attr}).Debug("Skipping non-local reference")
			return
		}
		refs = append(refs, ResourceReference{Sel: sel, Attr: attr, Ref: ref})
	}

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		collect(sel, "src")
	})
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		collect(sel, "src")
	})
	doc.Find("link").Each(func(_ int, sel *goquery.Selection) {
		rel, _ := sel.Attr("rel")
		switch strings.ToLower(strings.TrimSpace(rel)) {
		case "stylesheet", "canonical":
			collect(sel, "href")
		}
	})

	log.WithField("count", len(refs)).Debug("Extracted local resource references")
	return refs
}
