package replicator

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// rewriteDocument points every successfully captured asset reference at its
// local bundle path. References that were not captured (beyond a cap, or
// failed to download) are left untouched.
func rewriteDocument(doc *goquery.Document, base *url.URL, captured map[string]*assetRef) {
	rewriteAttr(doc, base, captured, `link[rel="stylesheet"][href]`, "href")
	rewriteAttr(doc, base, captured, "script[src]", "src")
	rewriteAttr(doc, base, captured, "img[src]", "src")
}

func rewriteAttr(doc *goquery.Document, base *url.URL, captured map[string]*assetRef, selector, attr string) {
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		absURL := resolveRef(base, s.AttrOr(attr, ""))
		if absURL == "" {
			return
		}
		ref, ok := captured[absURL]
		if !ok || !ref.saved {
			return
		}
		s.SetAttr(attr, ref.localPath)

		// A remote srcset would override the rewritten src.
		if attr == "src" {
			s.RemoveAttr("srcset")
		}
	})
}
