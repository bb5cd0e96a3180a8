// Package assets provides the HTML templates the site pages are rendered with.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - templates compiled into the binary
//	    ├── FilesystemLoader  - templates from <in>/templates on disk
//	    └── Resolver          - combines both with custom-first fallback
//
// A site may override any subset of the page templates: a missing custom
// template falls back to the embedded one, while a custom template that
// cannot be read is an error.
//
// # Templates
//
//	index.html  data {Posts}        the post list
//	post.html   data {Post}         one post
//	tag.html    data {Posts, Tag}   the posts list for one tag
//
// Template names are validated so a name can never reach outside the
// templates directory; FilesystemLoader also resolves symlinks before
// reading.
package assets
