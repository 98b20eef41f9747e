package scene

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// WriteSVG renders the current scene.
func (g *Graph) WriteSVG(w io.Writer) error {
	return RenderSVG(w, g.width, g.height, g.Snapshot())
}

// RenderSVG renders node snapshots as a standalone SVG document. Circles use percent
// coordinates; paths are drawn with stroke only.
func RenderSVG(w io.Writer, width, height float64, nodes []NodeSnapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(width), num(height), num(width), num(height))
	b.WriteString("\n")
	for _, n := range nodes {
		switch n.Kind {
		case KindCircle:
			fmt.Fprintf(&b, `  <circle id="%s"`, html.EscapeString(n.ID))
			writeClass(&b, n.Class)
			fmt.Fprintf(&b, ` cx="%s%%" cy="%s%%" r="%s"`,
				num(number(n.Attrs, AttrCX)), num(number(n.Attrs, AttrCY)), num(number(n.Attrs, AttrR)))
			writeRest(&b, n.Attrs, AttrCX, AttrCY, AttrR)
		case KindPath:
			fmt.Fprintf(&b, `  <path id="%s"`, html.EscapeString(n.ID))
			writeClass(&b, n.Class)
			b.WriteString(` fill="none"`)
			writeRest(&b, n.Attrs)
		default:
			continue
		}
		b.WriteString("/>\n")
	}
	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "writing svg")
}

func writeClass(b *strings.Builder, class string) {
	if class != "" {
		fmt.Fprintf(b, ` class="%s"`, html.EscapeString(class))
	}
}

// writeRest emits the remaining attributes in a stable order.
func writeRest(b *strings.Builder, attrs Attrs, skip ...string) {
	keys := make([]string, 0, len(attrs))
outer:
	for k := range attrs {
		for _, s := range skip {
			if k == s {
				continue outer
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var v string
		switch val := attrs[k].(type) {
		case float64:
			v = num(val)
		case string:
			v = val
		default:
			v = fmt.Sprint(val)
		}
		fmt.Fprintf(b, ` %s="%s"`, svgAttrName(k), html.EscapeString(v))
	}
}

// svgAttrName maps internal attribute names onto SVG ones.
func svgAttrName(name string) string {
	if name == AttrProgress {
		return "data-progress"
	}
	return name
}

func number(attrs Attrs, name string) float64 {
	f, _ := attrs[name].(float64)
	return f
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
