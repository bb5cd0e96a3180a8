package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultSVGPrecision is the number of significant digits kept in SVG numbers.
const DefaultSVGPrecision = 3

// ErrNoSVGRoot indicates the file holds no <svg> element.
var ErrNoSVGRoot = errors.New("no svg element")

// SVGCleaner minifies SVG documents for inlining into HTML pages.
type SVGCleaner struct {
	precision int
}

// NewSVGCleaner creates a cleaner keeping precision significant digits.
// Integer digits are never dropped.
func NewSVGCleaner(precision int) *SVGCleaner {
	if precision <= 0 {
		precision = DefaultSVGPrecision
	}
	return &SVGCleaner{precision: precision}
}

// Inline returns markup ready to be embedded in a page: the cleaned <svg>
// element with role="img", a <title> holding alt, and every id prefixed with
// a hash of the markup so several inlined images never share an id.
//
// Markup without an <svg> element is returned unchanged. When cleaning
// fails, the parsed but unoptimized element is used instead.
func (c *SVGCleaner) Inline(source, alt string, log zerolog.Logger) string {
	root, err := parseSVG(source)
	if err != nil {
		log.Warn().Err(err).Msg("SVG could not be parsed, inlining raw source")
		return source
	}

	if err := c.Clean(root); err != nil {
		log.Warn().Err(err).Msg("SVG optimization failed, inlining unoptimized markup")
		if root, err = parseSVG(source); err != nil {
			return source
		}
	}

	label(root, alt)
	markup, err := renderNode(root)
	if err != nil {
		log.Warn().Err(err).Msg("SVG could not be rendered, inlining raw source")
		return source
	}

	prefix := fmt.Sprintf("%04x", xxhash.Sum64String(markup)&0xffff)
	if !prefixIDs(root, prefix) {
		return markup
	}
	if markup, err = renderNode(root); err != nil {
		return source
	}
	return markup
}

// parseSVG parses source as an HTML fragment and returns its first <svg>
// element.
func parseSVG(source string) (*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(source), context)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if svg := findElement(n, "svg"); svg != nil {
			if svg.Parent != nil {
				svg.Parent.RemoveChild(svg)
			}
			return svg, nil
		}
	}
	return nil, ErrNoSVGRoot
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func renderNode(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Clean runs every optimization pass over the svg element in place.
func (c *SVGCleaner) Clean(root *html.Node) error {
	strip(root)
	styleToAttributes(root)
	resolveUses(root)
	mergeDefs(root)
	dedupeGradients(root)
	removeInvisible(root)
	removeUnusedDefs(root)
	removeDefaults(root)
	collapseTransformGroups(root)
	if err := c.applyTransforms(root); err != nil {
		return err
	}
	ungroup(root)
	removeEmptyContainers(root)
	removeUnusedIDs(root)
	dropUnusedXlink(root)
	return c.roundNumbers(root)
}

// label sets the accessibility attributes of the svg element.
func label(root *html.Node, alt string) {
	setAttr(root, "role", "img")
	if alt == "" {
		return
	}
	title := newElement("title")
	title.AppendChild(&html.Node{Type: html.TextNode, Data: alt})
	root.InsertBefore(title, root.FirstChild)
}

// prefixIDs rewrites every id as <prefix>-<id> along with the references to
// it. It reports whether any id was found.
func prefixIDs(root *html.Node, prefix string) bool {
	renames := map[string]string{}
	walk(root, func(n *html.Node) {
		if id, ok := getAttr(n, "id"); ok && id != "" {
			renames[id] = prefix + "-" + id
		}
	})
	if len(renames) == 0 {
		return false
	}
	walk(root, func(n *html.Node) {
		if id, ok := getAttr(n, "id"); ok {
			if renamed, ok := renames[id]; ok {
				setAttr(n, "id", renamed)
			}
		}
	})
	rewriteRefs(root, renames)
	return true
}

// ---------------------------------------------------------------------------
// Tree helpers
// ---------------------------------------------------------------------------

func newElement(name string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: name, Namespace: "svg"}
}

// walk visits the element nodes below n in document order, n included.
func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// elements collects the element nodes below n so the tree can be mutated
// while iterating.
func elements(n *html.Node) []*html.Node {
	var out []*html.Node
	walk(n, func(e *html.Node) { out = append(out, e) })
	return out
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// href returns the href or xlink:href of n.
func href(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "href" && (a.Namespace == "" || a.Namespace == "xlink") {
			return a.Val
		}
	}
	return ""
}

// inherited returns the value of key on n or its nearest ancestor.
func inherited(n *html.Node, key string) (string, bool) {
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if v, ok := getAttr(p, key); ok {
			return v, true
		}
	}
	return "", false
}

func isAncestor(a, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

func inside(n *html.Node, names ...string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		for _, name := range names {
			if p.Type == html.ElementNode && p.Data == name {
				return true
			}
		}
	}
	return false
}

func cloneTree(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneTree(child))
	}
	return c
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// replaceWithChildren moves the children of n to its position and removes n.
func replaceWithChildren(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

func hasElementChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// References
// ---------------------------------------------------------------------------

var (
	urlRefPattern   = regexp.MustCompile(`url\(\s*['"]?#([^)'"\s]+)['"]?\s*\)`)
	cssIDPattern    = regexp.MustCompile(`#([A-Za-z_][\w\-]*)`)
	numberPattern   = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
	idListAttrNames = []string{"aria-labelledby", "aria-describedby"}
)

// referencedIDs returns every id that something in the tree points to.
func referencedIDs(root *html.Node) map[string]bool {
	refs := map[string]bool{}
	walk(root, func(n *html.Node) {
		for _, a := range n.Attr {
			if (a.Key == "href") && strings.HasPrefix(a.Val, "#") {
				refs[a.Val[1:]] = true
			}
			for _, m := range urlRefPattern.FindAllStringSubmatch(a.Val, -1) {
				refs[m[1]] = true
			}
		}
		for _, key := range idListAttrNames {
			if v, ok := getAttr(n, key); ok {
				for _, id := range strings.Fields(v) {
					refs[id] = true
				}
			}
		}
		if n.Data == "style" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					for _, m := range cssIDPattern.FindAllStringSubmatch(c.Data, -1) {
						refs[m[1]] = true
					}
				}
			}
		}
	})
	return refs
}

// rewriteRefs points every reference to a renamed id at its new name.
func rewriteRefs(root *html.Node, renames map[string]string) {
	replaceURL := func(s string) string {
		return urlRefPattern.ReplaceAllStringFunc(s, func(m string) string {
			id := urlRefPattern.FindStringSubmatch(m)[1]
			if renamed, ok := renames[id]; ok {
				return "url(#" + renamed + ")"
			}
			return m
		})
	}
	walk(root, func(n *html.Node) {
		for i, a := range n.Attr {
			switch {
			case a.Key == "href" && strings.HasPrefix(a.Val, "#"):
				if renamed, ok := renames[a.Val[1:]]; ok {
					n.Attr[i].Val = "#" + renamed
				}
			case a.Namespace == "" && (a.Key == "aria-labelledby" || a.Key == "aria-describedby"):
				ids := strings.Fields(a.Val)
				for j, id := range ids {
					if renamed, ok := renames[id]; ok {
						ids[j] = renamed
					}
				}
				n.Attr[i].Val = strings.Join(ids, " ")
			case strings.Contains(a.Val, "url("):
				n.Attr[i].Val = replaceURL(a.Val)
			}
		}
		if n.Data == "style" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.TextNode {
					continue
				}
				c.Data = replaceURL(c.Data)
				c.Data = cssIDPattern.ReplaceAllStringFunc(c.Data, func(m string) string {
					if renamed, ok := renames[m[1:]]; ok {
						return "#" + renamed
					}
					return m
				})
			}
		}
	})
}

// ---------------------------------------------------------------------------
// Passes
// ---------------------------------------------------------------------------

// strippedElements carry no rendering.
var strippedElements = map[string]bool{
	"title":    true,
	"desc":     true,
	"metadata": true,
}

// textContainers keep their whitespace.
var textContainers = map[string]bool{
	"text":     true,
	"tspan":    true,
	"textPath": true,
	"style":    true,
}

// strip removes comments, editor data, descriptive elements and whitespace
// between elements.
func strip(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode, c.Type == html.DoctypeNode:
			n.RemoveChild(c)
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" && !textContainers[n.Data]:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && (strippedElements[c.Data] || strings.Contains(c.Data, ":")):
			n.RemoveChild(c)
		case c.Type == html.ElementNode:
			stripAttrs(c)
			strip(c)
		}
		c = next
	}
	if n.Parent == nil {
		stripAttrs(n)
	}
}

func stripAttrs(n *html.Node) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		switch {
		case strings.Contains(a.Key, ":"):
			// inkscape:label, sodipodi:docname, xmlns:inkscape, ...
		case a.Namespace == "xmlns" && a.Key != "xlink":
		case a.Namespace == "" && a.Key == "version" && n.Data == "svg":
		default:
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// presentationAttributes may be written either as attributes or in style.
var presentationAttributes = map[string]bool{
	"clip-path": true, "clip-rule": true, "color": true, "display": true,
	"dominant-baseline": true, "fill": true, "fill-opacity": true, "fill-rule": true,
	"filter": true, "flood-color": true, "flood-opacity": true, "font-family": true,
	"font-size": true, "font-style": true, "font-weight": true, "mask": true,
	"opacity": true, "stop-color": true, "stop-opacity": true, "stroke": true,
	"stroke-dasharray": true, "stroke-dashoffset": true, "stroke-linecap": true,
	"stroke-linejoin": true, "stroke-miterlimit": true, "stroke-opacity": true,
	"stroke-width": true, "text-anchor": true, "visibility": true,
}

// styleToAttributes moves style declarations that have a presentation
// attribute equivalent into attributes. Style wins over an existing attribute.
func styleToAttributes(root *html.Node) {
	walk(root, func(n *html.Node) {
		style, ok := getAttr(n, "style")
		if !ok {
			return
		}
		var rest []string
		for _, decl := range strings.Split(style, ";") {
			prop, val, found := strings.Cut(decl, ":")
			prop = strings.ToLower(strings.TrimSpace(prop))
			val = strings.TrimSpace(val)
			if !found || prop == "" {
				continue
			}
			if presentationAttributes[prop] && !strings.Contains(val, "!important") {
				setAttr(n, prop, val)
				continue
			}
			rest = append(rest, prop+":"+val)
		}
		if len(rest) == 0 {
			removeAttr(n, "style")
			return
		}
		setAttr(n, "style", strings.Join(rest, ";"))
	})
}

// resolveUses replaces <use> elements by a group holding a copy of the
// element they reference. Symbols and self references are left alone.
func resolveUses(root *html.Node) {
	ids := map[string]*html.Node{}
	walk(root, func(n *html.Node) {
		if id, ok := getAttr(n, "id"); ok {
			ids[id] = n
		}
	})

	for _, u := range elements(root) {
		if u.Data != "use" {
			continue
		}
		ref := href(u)
		if !strings.HasPrefix(ref, "#") {
			continue
		}
		target := ids[ref[1:]]
		if target == nil || target.Data == "symbol" || isAncestor(target, u) || findElement(target, "use") != nil {
			continue
		}

		g := newElement("g")
		var x, y string
		for _, a := range u.Attr {
			switch {
			case a.Key == "href", a.Key == "width", a.Key == "height":
			case a.Namespace == "" && a.Key == "x":
				x = a.Val
			case a.Namespace == "" && a.Key == "y":
				y = a.Val
			default:
				g.Attr = append(g.Attr, a)
			}
		}
		if x != "" || y != "" {
			translate := fmt.Sprintf("translate(%s %s)", orZero(x), orZero(y))
			if t, ok := getAttr(g, "transform"); ok {
				translate = t + " " + translate
			}
			setAttr(g, "transform", translate)
		}

		clone := cloneTree(target)
		walk(clone, func(n *html.Node) { removeAttr(n, "id") })
		g.AppendChild(clone)

		u.Parent.InsertBefore(g, u)
		u.Parent.RemoveChild(u)
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// mergeDefs gathers every <defs> into one, placed first in the svg element.
func mergeDefs(root *html.Node) {
	var all []*html.Node
	walk(root, func(n *html.Node) {
		if n.Data == "defs" && !inside(n, "defs") {
			all = append(all, n)
		}
	})
	if len(all) == 0 {
		return
	}

	main := all[0]
	for _, d := range all[1:] {
		for c := d.FirstChild; c != nil; c = d.FirstChild {
			d.RemoveChild(c)
			main.AppendChild(c)
		}
		detach(d)
	}
	detach(main)
	if !hasElementChildren(main) {
		return
	}
	root.InsertBefore(main, root.FirstChild)
}

// dedupeGradients drops gradients identical to an earlier one and points
// their references at the survivor.
func dedupeGradients(root *html.Node) {
	seen := map[string]string{}
	renames := map[string]string{}
	for _, n := range elements(root) {
		if n.Data != "linearGradient" && n.Data != "radialGradient" {
			continue
		}
		id, ok := getAttr(n, "id")
		if !ok {
			continue
		}
		key, err := gradientKey(n)
		if err != nil {
			continue
		}
		if kept, ok := seen[key]; ok {
			renames[id] = kept
			detach(n)
			continue
		}
		seen[key] = id
	}
	if len(renames) > 0 {
		rewriteRefs(root, renames)
	}
}

func gradientKey(n *html.Node) (string, error) {
	attrs := make([]string, 0, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "id" {
			continue
		}
		attrs = append(attrs, a.Namespace+":"+a.Key+"="+a.Val)
	}
	sort.Strings(attrs)

	var sb strings.Builder
	sb.WriteString(n.Data)
	sb.WriteString(strings.Join(attrs, ","))
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// nonRendered elements are only drawn through a reference.
var nonRendered = []string{"defs", "clipPath", "mask", "marker", "pattern", "symbol"}

// removeInvisible drops elements that cannot paint anything.
func removeInvisible(root *html.Node) {
	refs := referencedIDs(root)
	for _, n := range elements(root) {
		if n == root || n.Parent == nil {
			continue
		}
		if id, ok := getAttr(n, "id"); ok && refs[id] {
			continue
		}
		if inside(n, nonRendered...) {
			continue
		}
		if invisible(n) {
			detach(n)
		}
	}
}

func invisible(n *html.Node) bool {
	if v, _ := getAttr(n, "display"); v == "none" {
		return true
	}
	if v, ok := getAttr(n, "opacity"); ok && isZero(v) {
		return true
	}
	switch n.Data {
	case "rect":
		return attrIsZero(n, "width") || attrIsZero(n, "height")
	case "circle":
		return attrIsZero(n, "r")
	case "ellipse":
		return attrIsZero(n, "rx") || attrIsZero(n, "ry")
	case "path":
		d, _ := getAttr(n, "d")
		return strings.TrimSpace(d) == ""
	case "polyline", "polygon":
		p, _ := getAttr(n, "points")
		return strings.TrimSpace(p) == ""
	}
	return false
}

func attrIsZero(n *html.Node, key string) bool {
	v, ok := getAttr(n, key)
	return ok && isZero(v)
}

func isZero(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 0
}

// removeUnusedDefs drops definitions nothing refers to, repeating until
// stable since a removed definition may have been the only user of another.
func removeUnusedDefs(root *html.Node) {
	for {
		refs := referencedIDs(root)
		removed := false
		for _, defs := range elements(root) {
			if defs.Data != "defs" {
				continue
			}
			for c := defs.FirstChild; c != nil; {
				next := c.NextSibling
				if c.Type == html.ElementNode && c.Data != "style" {
					if id, _ := getAttr(c, "id"); id == "" || !refs[id] {
						defs.RemoveChild(c)
						removed = true
					}
				}
				c = next
			}
		}
		if !removed {
			return
		}
	}
}

// attributeDefaults lists initial values. An attribute equal to its default
// is dropped unless an ancestor sets the same attribute.
var attributeDefaults = map[string][]string{
	"clip-rule":           {"nonzero"},
	"display":             {"inline"},
	"fill":                {"#000", "#000000", "black"},
	"fill-opacity":        {"1"},
	"fill-rule":           {"nonzero"},
	"flood-opacity":       {"1"},
	"font-style":          {"normal"},
	"font-weight":         {"normal", "400"},
	"gradientUnits":       {"objectBoundingBox"},
	"opacity":             {"1"},
	"preserveAspectRatio": {"xMidYMid meet", "xMidYMid"},
	"spreadMethod":        {"pad"},
	"stop-opacity":        {"1"},
	"stroke":              {"none"},
	"stroke-dashoffset":   {"0"},
	"stroke-linecap":      {"butt"},
	"stroke-linejoin":     {"miter"},
	"stroke-miterlimit":   {"4"},
	"stroke-opacity":      {"1"},
	"stroke-width":        {"1"},
	"text-anchor":         {"start"},
	"visibility":          {"visible"},
	"x":                   {"0"},
	"y":                   {"0"},
}

func removeDefaults(root *html.Node) {
	walk(root, func(n *html.Node) {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if a.Namespace == "" && isDefault(n, a.Key, a.Val) {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	})
}

func isDefault(n *html.Node, key, val string) bool {
	defaults, ok := attributeDefaults[key]
	if !ok {
		return false
	}
	if key == "x" || key == "y" {
		switch {
		case n.Data == "svg" && n.Parent != nil, n.Data == "filter", n.Data == "mask":
			return false
		}
	}
	val = strings.TrimSpace(val)
	match := false
	for _, d := range defaults {
		if strings.EqualFold(val, d) {
			match = true
			break
		}
	}
	if !match {
		return false
	}
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		if _, set := inherited(n.Parent, key); set {
			return false
		}
	}
	return true
}

// collapseTransformGroups moves the transform of a group with a single
// child onto that child, leaving the group bare for ungroup.
func collapseTransformGroups(root *html.Node) {
	for _, g := range elements(root) {
		if g.Data != "g" || len(g.Attr) != 1 || g.Attr[0].Namespace != "" || g.Attr[0].Key != "transform" {
			continue
		}
		child := g.FirstChild
		if child == nil || child.NextSibling != nil || child.Type != html.ElementNode {
			continue
		}
		t := g.Attr[0].Val
		if own, ok := getAttr(child, "transform"); ok {
			t += " " + own
		}
		setAttr(child, "transform", t)
		g.Attr = nil
	}
}

var shapeElements = map[string]bool{
	"path": true, "rect": true, "circle": true, "ellipse": true,
	"line": true, "polyline": true, "polygon": true,
}

var paintRefAttrs = []string{"fill", "stroke", "clip-path", "mask", "filter"}

// applyTransforms folds translate and positive scale transforms into the
// coordinates of paths and basic shapes.
func (c *SVGCleaner) applyTransforms(root *html.Node) error {
	for _, n := range elements(root) {
		if !shapeElements[n.Data] {
			continue
		}
		t, ok := getAttr(n, "transform")
		if !ok {
			continue
		}
		m, err := parseTransform(t)
		if err != nil || !m.axisAligned() || paintsWithReference(n) {
			continue
		}

		stroked := false
		if s, ok := inherited(n, "stroke"); ok && s != "none" {
			stroked = true
		}
		if stroked && !m.uniform() {
			continue
		}

		updates, err := shapeUpdates(n, m)
		if err != nil {
			return err
		}
		if updates == nil {
			continue
		}
		if stroked && m[0] != 1 {
			width := 1.0
			if w, ok := inherited(n, "stroke-width"); ok {
				if width, err = strconv.ParseFloat(strings.TrimSpace(w), 64); err != nil {
					continue
				}
			}
			updates["stroke-width"] = formatNumber(width*m[0], 0)
		}

		for k, v := range updates {
			setAttr(n, k, v)
		}
		removeAttr(n, "transform")
	}
	return nil
}

func paintsWithReference(n *html.Node) bool {
	for _, key := range paintRefAttrs {
		if v, ok := inherited(n, key); ok && strings.Contains(v, "url(") {
			return true
		}
	}
	return false
}

// shapeUpdates computes the transformed geometry attributes of n. It returns
// nil when the shape cannot take m, for instance because a length carries a
// unit.
func shapeUpdates(n *html.Node, m matrix) (map[string]string, error) {
	num := func(key string) (float64, bool) {
		v, ok := getAttr(n, key)
		if !ok {
			return 0, true
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	fmtN := func(v float64) string { return formatNumber(v, 0) }

	updates := map[string]string{}
	switch n.Data {
	case "path":
		d, _ := getAttr(n, "d")
		cmds, err := parsePath(d)
		if err != nil {
			return nil, err
		}
		if !transformPath(cmds, m) {
			return nil, nil
		}
		updates["d"] = formatPath(cmds, 0)

	case "rect":
		x, ok1 := num("x")
		y, ok2 := num("y")
		w, ok3 := num("width")
		h, ok4 := num("height")
		rx, ok5 := num("rx")
		ry, ok6 := num("ry")
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
			return nil, nil
		}
		x, y = m.point(x, y)
		updates["x"], updates["y"] = fmtN(x), fmtN(y)
		updates["width"], updates["height"] = fmtN(w*m[0]), fmtN(h*m[3])
		_, hasRX := getAttr(n, "rx")
		_, hasRY := getAttr(n, "ry")
		switch {
		case hasRX && !hasRY:
			ry = rx
		case hasRY && !hasRX:
			rx = ry
		}
		if hasRX || hasRY {
			updates["rx"], updates["ry"] = fmtN(rx*m[0]), fmtN(ry*m[3])
		}

	case "circle":
		if !m.uniform() {
			return nil, nil
		}
		cx, ok1 := num("cx")
		cy, ok2 := num("cy")
		r, ok3 := num("r")
		if !ok1 || !ok2 || !ok3 {
			return nil, nil
		}
		cx, cy = m.point(cx, cy)
		updates["cx"], updates["cy"], updates["r"] = fmtN(cx), fmtN(cy), fmtN(r*m[0])

	case "ellipse":
		cx, ok1 := num("cx")
		cy, ok2 := num("cy")
		rx, ok3 := num("rx")
		ry, ok4 := num("ry")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, nil
		}
		cx, cy = m.point(cx, cy)
		updates["cx"], updates["cy"] = fmtN(cx), fmtN(cy)
		updates["rx"], updates["ry"] = fmtN(rx*m[0]), fmtN(ry*m[3])

	case "line":
		x1, ok1 := num("x1")
		y1, ok2 := num("y1")
		x2, ok3 := num("x2")
		y2, ok4 := num("y2")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, nil
		}
		x1, y1 = m.point(x1, y1)
		x2, y2 = m.point(x2, y2)
		updates["x1"], updates["y1"] = fmtN(x1), fmtN(y1)
		updates["x2"], updates["y2"] = fmtN(x2), fmtN(y2)

	case "polyline", "polygon":
		p, _ := getAttr(n, "points")
		coords, err := parseNumberList(p)
		if err != nil || len(coords)%2 != 0 {
			return nil, nil
		}
		parts := make([]string, 0, len(coords)/2)
		for i := 0; i < len(coords); i += 2 {
			x, y := m.point(coords[i], coords[i+1])
			parts = append(parts, fmtN(x)+","+fmtN(y))
		}
		updates["points"] = strings.Join(parts, " ")
	}
	return updates, nil
}

// ungroup replaces attribute-less groups by their children.
func ungroup(root *html.Node) {
	all := elements(root)
	for i := len(all) - 1; i >= 0; i-- {
		if g := all[i]; g.Data == "g" && len(g.Attr) == 0 && g != root {
			replaceWithChildren(g)
		}
	}
}

// removeEmptyContainers drops groups and defs left without children.
func removeEmptyContainers(root *html.Node) {
	all := elements(root)
	for i := len(all) - 1; i >= 0; i-- {
		n := all[i]
		if (n.Data == "g" || n.Data == "defs") && n.FirstChild == nil {
			if _, hasID := getAttr(n, "id"); !hasID {
				detach(n)
			}
		}
	}
}

// removeUnusedIDs drops ids nothing refers to. Documents with a stylesheet
// or script are skipped since either may select by id.
func removeUnusedIDs(root *html.Node) {
	if findElement(root, "style") != nil || findElement(root, "script") != nil {
		return
	}
	refs := referencedIDs(root)
	walk(root, func(n *html.Node) {
		if id, ok := getAttr(n, "id"); ok && !refs[id] {
			removeAttr(n, "id")
		}
	})
}

// dropUnusedXlink removes the xlink namespace declaration when no xlink
// attribute is left.
func dropUnusedXlink(root *html.Node) {
	used := false
	walk(root, func(n *html.Node) {
		for _, a := range n.Attr {
			if a.Namespace == "xlink" {
				used = true
			}
		}
	})
	if used {
		return
	}
	kept := root.Attr[:0]
	for _, a := range root.Attr {
		if a.Namespace == "xmlns" && a.Key == "xlink" {
			continue
		}
		kept = append(kept, a)
	}
	root.Attr = kept
}

// numericAttrs hold numbers, number lists or transform lists.
var numericAttrs = map[string]bool{
	"cx": true, "cy": true, "dx": true, "dy": true, "fx": true, "fy": true,
	"height": true, "offset": true, "opacity": true, "fill-opacity": true,
	"font-size": true, "gradientTransform": true, "patternTransform": true,
	"points": true, "r": true, "rx": true, "ry": true, "stop-opacity": true,
	"flood-opacity": true, "stroke-dasharray": true, "stroke-dashoffset": true,
	"stroke-miterlimit": true, "stroke-opacity": true, "stroke-width": true,
	"transform": true, "viewBox": true, "width": true, "x": true, "x1": true,
	"x2": true, "y": true, "y1": true, "y2": true,
}

// roundNumbers rounds every number in geometry attributes and path data.
func (c *SVGCleaner) roundNumbers(root *html.Node) error {
	var firstErr error
	walk(root, func(n *html.Node) {
		for i, a := range n.Attr {
			if a.Namespace != "" {
				continue
			}
			switch {
			case a.Key == "d":
				cmds, err := parsePath(a.Val)
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				n.Attr[i].Val = formatPath(cmds, c.precision)
			case numericAttrs[a.Key]:
				n.Attr[i].Val = numberPattern.ReplaceAllStringFunc(a.Val, func(s string) string {
					f, err := strconv.ParseFloat(s, 64)
					if err != nil {
						return s
					}
					return formatNumber(f, c.precision)
				})
			}
		}
	})
	return firstErr
}
