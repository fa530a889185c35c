package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"shipmap/internal/vessel"
)

var classColors = map[vessel.ColorClass]lipgloss.Color{
	vessel.ClassUnderway: lipgloss.Color("#00ff41"),
	vessel.ClassAnchor:   lipgloss.Color("#ffd700"),
	vessel.ClassAlert:    lipgloss.Color("#ff4444"),
	vessel.ClassMoored:   lipgloss.Color("#00ffff"),
	vessel.ClassUnknown:  lipgloss.Color("#888888"),
}

const selectedColor = lipgloss.Color("#ffffff")

// Console is a terminal view: it prints the vessel panel, trail and stats
// summary, and keeps a marker table so it can show the tracked-vessel count.
type Console struct {
	out     io.Writer
	now     func() time.Time
	markers map[vessel.ID]vessel.Record
	// Verbose also prints a line per marker change.
	Verbose bool

	selected vessel.ID
	updated  time.Time

	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	box   lipgloss.Style
	r     *lipgloss.Renderer
}

func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:     out,
		now:     time.Now,
		markers: make(map[vessel.ID]vessel.Record),
		r:       r,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff41")),
		label:   r.NewStyle().Width(16).Foreground(lipgloss.Color("#888888")),
		value:   r.NewStyle().Foreground(lipgloss.Color("#e0e0e0")),
		box:     r.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#00ff41")).Padding(0, 1),
	}
}

func (c *Console) statusStyle(rec vessel.Record) lipgloss.Style {
	if c.selected == rec.MMSI {
		return c.r.NewStyle().Foreground(selectedColor).Bold(true)
	}
	return c.r.NewStyle().Foreground(classColors[rec.Status.Class()])
}

// Header is the tracked-count line shown above every panel.
func (c *Console) Header() string {
	h := fmt.Sprintf("%d VESSELS TRACKED", len(c.markers))
	if !c.updated.IsZero() {
		h += "  UPDATED " + c.updated.Format("15:04:05")
	}
	return h
}

func (c *Console) touch() { c.updated = c.now() }

func (c *Console) UpsertMarker(rec vessel.Record) {
	c.markers[rec.MMSI] = rec
	c.touch()
	if c.Verbose {
		sym, rot := rec.Glyph()
		line := fmt.Sprintf("%s %3.0f° %-24s %s %.4f,%.4f", sym, rot, rec.DisplayName(), rec.MMSI, rec.Lat, rec.Lon)
		fmt.Fprintln(c.out, c.statusStyle(rec).Render(line))
	}
}

func (c *Console) RemoveMarker(id vessel.ID) {
	rec, ok := c.markers[id]
	delete(c.markers, id)
	c.touch()
	if c.Verbose && ok {
		fmt.Fprintf(c.out, "- %s %s\n", rec.DisplayName(), id)
	}
}

func (c *Console) SetHighlight(id vessel.ID, on bool) {
	if on {
		c.selected = id
		return
	}
	if c.selected == id {
		c.selected = 0
	}
}

func (c *Console) RenderTrail(points []vessel.Point) {
	if points == nil {
		fmt.Fprintln(c.out, c.label.Render("TRAIL")+c.value.Render("none"))
		return
	}
	first, last := points[0], points[len(points)-1]
	fmt.Fprintln(c.out, c.label.Render("TRAIL")+c.value.Render(
		fmt.Sprintf("%d points  %.4f,%.4f → %.4f,%.4f", len(points), first.Lat, first.Lon, last.Lat, last.Lon)))
}

func (c *Console) RenderPanel(rec *vessel.Record) {
	if rec == nil {
		fmt.Fprintln(c.out, c.title.Render("// VESSEL")+" "+c.value.Render("none selected"))
		return
	}
	var b strings.Builder
	b.WriteString(c.title.Render("// VESSEL") + "  " + c.Header() + "\n")
	for _, row := range PanelRows(*rec) {
		v := c.value.Render(row[1])
		if row[0] == "STATUS" {
			v = c.statusStyle(*rec).Render(row[1])
		}
		b.WriteString(c.label.Render(row[0]) + v + "\n")
	}
	b.WriteString(c.value.Render("VIEW ON VESSELFINDER → " + rec.DetailsURL()))
	fmt.Fprintln(c.out, c.box.Render(b.String()))
}

func (c *Console) RenderStats(stats vessel.Stats) {
	var b strings.Builder
	b.WriteString(c.title.Render("// STATS") + "  " + c.Header() + "\n")
	b.WriteString(c.label.Render("TOTAL SIGHTINGS") + c.value.Render(strconv.Itoa(stats.TotalSightings)) + "\n")
	b.WriteString(c.label.Render("UNIQUE VESSELS") + c.value.Render(strconv.Itoa(stats.UniqueShips)) + "\n")
	b.WriteString(c.title.Render("// MOST ACTIVE"))
	for _, s := range stats.MostActive {
		name := s.Name
		if name == "" {
			name = "UNKNOWN"
		}
		b.WriteString("\n" + c.label.Render(name) + c.value.Render(strconv.Itoa(s.Count)))
	}
	fmt.Fprintln(c.out, c.box.Render(b.String()))
}

// PanelRows returns the label/value pairs of the vessel info panel.
func PanelRows(rec vessel.Record) [][2]string {
	na := "N/A"
	speed, heading, course := na, na, na
	if rec.Speed != nil {
		speed = fmt.Sprintf("%.1f kn", *rec.Speed)
	}
	if rec.Heading != nil {
		heading = fmt.Sprintf("%.0f°", *rec.Heading)
	}
	if rec.Course != nil {
		course = fmt.Sprintf("%.1f°", *rec.Course)
	}
	return [][2]string{
		{"NAME", rec.DisplayName()},
		{"MMSI", rec.MMSI.String()},
		{"STATUS", rec.Status.Label()},
		{"LAT", fmt.Sprintf("%.4f", rec.Lat)},
		{"LON", fmt.Sprintf("%.4f", rec.Lon)},
		{"SPEED", speed},
		{"HEADING", heading},
		{"COURSE", course},
		{"LAST SEEN", rec.ObservedAt.Local().Format("15:04:05")},
	}
}

// PrintList writes one line per vessel under the tracked-count header.
func (c *Console) PrintList(recs []vessel.Record) {
	var b strings.Builder
	b.WriteString(c.title.Render("// "+c.Header()) + "\n")
	for _, rec := range recs {
		sym, _ := rec.Glyph()
		line := fmt.Sprintf("%s %-9s %-24s %-22s %.4f,%.4f", sym, rec.MMSI, rec.DisplayName(), rec.Status.Label(), rec.Lat, rec.Lon)
		b.WriteString(c.statusStyle(rec).Render(line) + "\n")
	}
	fmt.Fprint(c.out, b.String())
}
