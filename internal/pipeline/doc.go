// Package pipeline implements the markdown to HTML content pipeline.
//
// A document is parsed with goldmark and flattened into a forward-only token
// stream. Stages wrap the stream one inside the other and are driven by the
// final HTML fold, each pulling upstream tokens on demand:
//
//   - MediaStage consumes the leading metadata block into the Context,
//     highlights fenced code with chroma, and embeds local images (SVG
//     cleaned and inlined, raster re-encoded to WebP in the asset store)
//   - MathStage renders TeX math to MathML
//
// Stages look ahead across a whole block with Buffer, then either replace the
// block or replay its tokens untouched. Failures never abort a document: they
// are logged and the affected block passes through as written.
package pipeline
