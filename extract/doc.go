// Package extract fetches saved URLs and pulls readable content out of them.
//
// The WebExtractor walks the fetched HTML with goquery: the title comes from
// og:title, <title>, or the first h1; the body is the paragraph text of the
// first semantic container (article, main, [role=main]) that has any, falling
// back to the whole body; author and published date come from the usual meta
// tags when present. All failures wrap ErrExtraction.
package extract
