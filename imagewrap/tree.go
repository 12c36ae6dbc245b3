package imagewrap

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker classes and attributes emitted by the wrappers.
const (
	ClassImageLink     = "image-link"
	ClassTrigger       = "image-trigger"
	ClassLightbox      = "lightbox"
	ClassLightboxClose = "lightbox-close"

	lightboxClosedHref = "#_"
	newTabTarget       = "_blank"
	newTabRel          = "noopener noreferrer"
)

// LightboxID returns the fragment identifier shared by the n-th trigger and
// overlay of a document.
func LightboxID(n int) string {
	return fmt.Sprintf("lightbox-%d", n)
}

// WrapLinks replaces every unwrapped image under root with an anchor that
// opens the image source in a new tab. It returns the number of images
// wrapped.
func WrapLinks(root *html.Node) int {
	images := collectImages(root)
	for _, img := range images {
		link := newElement(atom.A,
			"href", getAttr(img, "src"),
			"target", newTabTarget,
			"rel", newTabRel,
			"class", ClassImageLink,
		)
		replaceChild(img.Parent, img, link)
		link.AppendChild(img)
	}
	return len(images)
}

// WrapLightbox replaces every unwrapped image under root with a trigger
// anchor and a hidden overlay holding a full-size copy. Identifiers follow
// document order starting at lightbox-0. It returns the number of pairs
// created.
func WrapLightbox(root *html.Node) int {
	images := collectImages(root)
	// Splice from the end so positions of earlier images are unaffected.
	for i := len(images) - 1; i >= 0; i-- {
		img := images[i]
		id := LightboxID(i)

		trigger := newElement(atom.A, "href", "#"+id, "class", ClassTrigger)
		trigger.AppendChild(cloneNode(img))

		full := newElement(atom.Img, "src", getAttr(img, "src"), "alt", getAttr(img, "alt"))
		closeLink := newElement(atom.A,
			"href", lightboxClosedHref,
			"class", ClassLightboxClose,
			"aria-label", "Close lightbox",
		)
		closeLink.AppendChild(full)
		overlay := newElement(atom.Div, "id", id, "class", ClassLightbox)
		overlay.AppendChild(closeLink)

		replaceChild(img.Parent, img, trigger, overlay)
	}
	return len(images)
}

// collectImages returns, in document order, the img elements under root that
// have a src and are not the direct child of an anchor.
func collectImages(root *html.Node) []*html.Node {
	var images []*html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img && n.Parent != nil {
			parent := n.Parent
			wrapped := parent.Type == html.ElementNode && parent.DataAtom == atom.A
			if !wrapped && getAttr(n, "src") != "" {
				images = append(images, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return images
}

// replaceChild puts replacements where old sits in parent's children and
// detaches old.
func replaceChild(parent, old *html.Node, replacements ...*html.Node) {
	for _, r := range replacements {
		parent.InsertBefore(r, old)
	}
	parent.RemoveChild(old)
}

// cloneNode returns a structurally independent deep copy of n.
func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

func newElement(a atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// rewriteFragment parses markup as body content, hands a root holding the
// parsed nodes to fn and renders the result.
func rewriteFragment(markup []byte, fn func(root *html.Node) int) ([]byte, int, error) {
	context := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(bytes.NewReader(markup), context)
	if err != nil {
		return nil, 0, fmt.Errorf("imagewrap: parse fragment: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	count := fn(root)
	if count == 0 {
		return markup, 0, nil
	}
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return nil, 0, fmt.Errorf("imagewrap: render fragment: %w", err)
		}
	}
	return buf.Bytes(), count, nil
}
