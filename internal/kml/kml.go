// Package kml serializes analyzed routes into KML documents for Google
// Earth. Long routes are split into LineString placemarks of at most
// maxPoints coordinates each.
package kml

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/phartmann/traveldiary/internal/datastore"
)

// Line colors in KML AABBGGRR order.
var kmlColors = []string{
	"ff0000ff", // red
	"ffadd8e6", // light blue
	"ffc1b6ff", // light pink
	"ff90ee90", // light green
	"ff00ffff", // yellow
	"ff00a5ff", // orange
	"ffff00ff", // magenta
}

const defaultMaxPoints = 500

// Options controls document generation.
type Options struct {
	Name      string
	MaxPoints int // points per placemark, defaults to 500
}

// Generate builds a KML document from the given positions. Each document
// gets one shared line style with a randomly picked color, matching the
// look of the exports this replaces.
func Generate(positions []datastore.RoutePosition, opts Options) string {
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = defaultMaxPoints
	}
	color := kmlColors[rand.IntN(len(kmlColors))]

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<kml xmlns=\"http://www.opengis.net/kml/2.2\">\n")
	b.WriteString("  <Document>\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", escapeXML(opts.Name))
	b.WriteString("    <open>1</open>\n")

	b.WriteString("    <Style id=\"routeStyle\">\n")
	b.WriteString("      <LineStyle>\n")
	fmt.Fprintf(&b, "        <color>%s</color>\n", color)
	b.WriteString("        <width>4</width>\n")
	b.WriteString("      </LineStyle>\n")
	b.WriteString("      <LabelStyle>\n")
	fmt.Fprintf(&b, "        <color>%s</color>\n", color)
	b.WriteString("        <scale>1</scale>\n")
	b.WriteString("      </LabelStyle>\n")
	b.WriteString("      <IconStyle>\n")
	fmt.Fprintf(&b, "        <color>%s</color>\n", color)
	b.WriteString("        <scale>1</scale>\n")
	b.WriteString("        <Icon>\n")
	b.WriteString("          <href>http://maps.google.com/mapfiles/kml/paddle/pink-stars.png</href>\n")
	b.WriteString("        </Icon>\n")
	b.WriteString("      </IconStyle>\n")
	b.WriteString("    </Style>\n")

	b.WriteString("    <Folder>\n")
	b.WriteString("      <name>LineStrings</name>\n")

	for chunkIndex := 0; chunkIndex*maxPoints < len(positions); chunkIndex++ {
		start := chunkIndex * maxPoints
		end := min(start+maxPoints, len(positions))

		b.WriteString("      <Placemark>\n")
		fmt.Fprintf(&b, "        <name>Route_%d</name>\n", chunkIndex)
		b.WriteString("        <styleUrl>#routeStyle</styleUrl>\n")
		b.WriteString("        <LineString>\n")
		b.WriteString("          <altitudeMode>clampToGround</altitudeMode>\n")
		b.WriteString("          <tessellate>1</tessellate>\n")
		b.WriteString("          <coordinates>\n")
		for _, p := range positions[start:end] {
			fmt.Fprintf(&b, "            %v,%v,%v\n", p.Longitude, p.Latitude, p.Altitude)
		}
		b.WriteString("          </coordinates>\n")
		b.WriteString("        </LineString>\n")
		b.WriteString("      </Placemark>\n")
	}

	b.WriteString("    </Folder>\n")
	b.WriteString("  </Document>\n")
	b.WriteString("</kml>")

	return b.String()
}

func escapeXML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(text)
}
