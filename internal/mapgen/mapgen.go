// Package mapgen draws a printable journey map of a play-through: each
// visited node is a stop on a dashed trail, illustrated from its location
// hint, with a ledger of the final state underneath.
package mapgen

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"talespin/internal/story"
)

const (
	pageW     = 595.0
	pageH     = 842.0
	margin    = 40.0
	stopSize  = 56.0
	pathStep  = 110.0
	perRow    = 4
	maxStops  = 20
	labelMax  = 18
	titleSize = 16
	bodySize  = 8
)

// Journey is what the map shows.
type Journey struct {
	Title   string
	Visited []string // in order; revisits are collapsed
	Current string
	State   *story.GameState // optional ledger of the final state
}

// Stop is one place on the trail.
type Stop struct {
	NodeID  string
	Label   string
	Scenery string // location hint, "" when none
	Check   bool   // a choice at this node carries a skill check
	Current bool
}

// Stops resolves the journey against doc. The current node is appended if
// the trail does not already end there, and only the last maxStops are kept.
func Stops(doc *story.Document, j Journey) []Stop {
	trail := compact(j.Visited)
	if j.Current != "" && (len(trail) == 0 || trail[len(trail)-1] != j.Current) {
		trail = append(trail, j.Current)
	}
	if len(trail) > maxStops {
		trail = trail[len(trail)-maxStops:]
	}
	stops := make([]Stop, 0, len(trail))
	for _, id := range trail {
		st := Stop{NodeID: id, Label: label(id, ""), Current: id == j.Current}
		if n := doc.Node(id); n != nil {
			st.Label = label(id, n.Title)
			st.Scenery = n.LocationHint()
			st.Check = slices.ContainsFunc(n.Choices, func(c story.Choice) bool { return c.Check != nil })
		}
		stops = append(stops, st)
	}
	return stops
}

// compact drops immediate repeats (a choice that stays on the node).
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || (len(out) > 0 && out[len(out)-1] == id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func label(id, title string) string {
	s := title
	if s == "" {
		s = strings.ReplaceAll(id, "_", " ")
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if r := []rune(s); len(r) > labelMax {
		s = string(r[:labelMax-3]) + "..."
	}
	return s
}

// Generate renders the journey as a one-page A4 PDF.
func Generate(doc *story.Document, j Journey) ([]byte, error) {
	if doc == nil || doc.Nodes == nil {
		return nil, fmt.Errorf("no story loaded")
	}
	stops := Stops(doc, j)
	if len(stops) == 0 {
		return nil, fmt.Errorf("journey has no stops")
	}
	title := j.Title
	if title == "" {
		title = doc.Title
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFillColor(245, 235, 210)
	pdf.Rect(0, 0, pageW, pageH, "F")
	drawBorder(pdf)

	ink(pdf)
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(margin+10, margin+10)
	pdf.CellFormat(pageW-2*margin-100, 16, tr(title), "", 0, "L", false, 0, "")
	if doc.Author != "" {
		pdf.SetFont("Helvetica", "I", bodySize)
		pdf.SetXY(margin+10, margin+28)
		pdf.CellFormat(pageW-2*margin-100, 10, tr("by "+doc.Author), "", 0, "L", false, 0, "")
	}
	drawCompass(pdf, pageW-margin-45, margin+45)

	pos := layout(len(stops))
	pdf.SetDrawColor(180, 40, 40)
	pdf.SetLineWidth(2)
	pdf.SetDashPattern([]float64{10, 6}, 0)
	for i := 1; i < len(pos); i++ {
		pdf.Line(pos[i-1][0], pos[i-1][1], pos[i][0], pos[i][1])
	}
	pdf.SetDashPattern([]float64{}, 0)

	for i, st := range stops {
		x, y := pos[i][0], pos[i][1]
		drawStop(pdf, x, y, st)
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetTextColor(40, 25, 15)
		pdf.SetXY(x-stopSize/2-10, y+stopSize/2+4)
		pdf.CellFormat(stopSize+20, 10, tr(st.Label), "", 0, "C", false, 0, "")
		if st.Current {
			pdf.SetFont("Helvetica", "I", 7)
			pdf.SetXY(x-stopSize/2, y+stopSize/2+14)
			pdf.CellFormat(stopSize, 8, "You are here", "", 0, "C", false, 0, "")
		}
	}

	if j.State != nil {
		drawLedger(pdf, tr, *j.State, pos[len(pos)-1][1]+stopSize+30)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// layout places n stops on a snake so the trail zig-zags down the page.
func layout(n int) [][2]float64 {
	pos := make([][2]float64, n)
	x0, y0 := margin+stopSize+10, margin+110
	for i := range pos {
		row, col := i/perRow, i%perRow
		if row%2 == 1 {
			col = perRow - 1 - col
		}
		pos[i] = [2]float64{x0 + float64(col)*pathStep, y0 + float64(row)*pathStep}
	}
	return pos
}

func ink(pdf *gofpdf.Fpdf) {
	pdf.SetDrawColor(80, 50, 30)
	pdf.SetTextColor(80, 50, 30)
	pdf.SetLineWidth(1)
}

func drawLedger(pdf *gofpdf.Fpdf, tr func(string) string, st story.GameState, top float64) {
	if top > pageH-margin-60 {
		return
	}
	ink(pdf)
	var lines []string
	if len(st.Stats) > 0 {
		parts := make([]string, 0, len(st.Stats))
		for _, k := range slices.Sorted(maps.Keys(st.Stats)) {
			parts = append(parts, fmt.Sprintf("%s %d", k, st.Stats[k]))
		}
		lines = append(lines, "Stats: "+strings.Join(parts, ", "))
	}
	if len(st.Inventory) > 0 {
		lines = append(lines, "Carrying: "+strings.Join(st.Inventory, ", "))
	}
	var set []string
	for _, k := range slices.Sorted(maps.Keys(st.Flags)) {
		if st.Flags[k] {
			set = append(set, strings.ReplaceAll(k, "_", " "))
		}
	}
	if len(set) > 0 {
		lines = append(lines, "Deeds: "+strings.Join(set, ", "))
	}
	if len(lines) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(margin+10, top)
	pdf.CellFormat(120, 12, "Traveller's ledger", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", bodySize)
	for _, l := range lines {
		pdf.SetX(margin + 10)
		pdf.MultiCell(pageW-2*margin-20, 11, tr(l), "", "L", false)
	}
}

func drawBorder(pdf *gofpdf.Fpdf) {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Polygon(wobbleRect(margin, margin, pageW-2*margin, pageH-2*margin, 12, 4), "D")
}

// wobbleRect returns a closed outline with a sine wobble along each edge.
func wobbleRect(x, y, w, h float64, steps int, amp float64) []gofpdf.PointType {
	edges := []struct {
		x0, y0, dx, dy float64
		fx, fy         float64
	}{
		{x, y, w, 0, 0.7, 0.5},
		{x + w, y, 0, h, 0.6, 0.4},
		{x + w, y + h, -w, 0, 0.8, 0.3},
		{x, y + h, 0, -h, 0.5, 0.6},
	}
	pts := make([]gofpdf.PointType, 0, steps*4+1)
	for e, edge := range edges {
		start := 1
		if e == 0 {
			start = 0
		}
		for i := start; i <= steps; i++ {
			t := float64(i) / float64(steps)
			pts = append(pts, gofpdf.PointType{
				X: edge.x0 + t*edge.dx + amp*math.Sin(float64(i)*edge.fx),
				Y: edge.y0 + t*edge.dy + amp*math.Cos(float64(i)*edge.fy),
			})
		}
	}
	return pts
}

func drawCompass(pdf *gofpdf.Fpdf, cx, cy float64) {
	const rad = 22.0
	pdf.SetDrawColor(101, 67, 33)
	pdf.Circle(cx, cy, rad, "D")
	for i := 0; i < 8; i++ {
		a := float64(i)*math.Pi/4 - math.Pi/2
		if i%2 == 0 {
			pdf.SetDrawColor(180, 40, 40)
			pdf.SetLineWidth(1.5)
		} else {
			pdf.SetDrawColor(180, 140, 60)
			pdf.SetLineWidth(1)
		}
		pdf.Line(cx, cy, cx+rad*math.Cos(a), cy+rad*math.Sin(a))
	}
	ink(pdf)
	pdf.SetFont("Helvetica", "B", 8)
	for _, p := range []struct {
		s      string
		dx, dy float64
	}{{"N", 0, -rad - 10}, {"S", 0, rad + 10}, {"E", rad + 8, 0}, {"W", -rad - 8, 0}} {
		pdf.SetXY(cx+p.dx-4, cy+p.dy-3)
		pdf.CellFormat(8, 6, p.s, "", 0, "C", false, 0, "")
	}
}

type drawer func(pdf *gofpdf.Fpdf, x, y, r float64)

// scenery maps location hints to their pictograms. Hints without an entry
// get the plain waypoint.
var scenery = map[string]drawer{
	"forest":   drawForest,
	"river":    drawRiver,
	"cave":     drawCave,
	"dungeon":  drawCave,
	"castle":   drawCastle,
	"tavern":   drawHouse,
	"town":     drawTown,
	"village":  drawTown,
	"mountain": drawMountain,
	"road":     drawRoad,
	"bridge":   drawBridge,
	"shore":    drawShore,
	"beach":    drawShore,
}

func drawStop(pdf *gofpdf.Fpdf, x, y float64, st Stop) {
	r := stopSize / 2
	if st.Current {
		pdf.SetDrawColor(80, 50, 20)
		pdf.SetLineWidth(2)
		pdf.Circle(x, y, r+4, "D")
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1.2)
	draw, ok := scenery[st.Scenery]
	if !ok {
		draw = drawWaypoint
	}
	draw(pdf, x, y, r)
	if st.Check {
		drawDie(pdf, x+r*0.7, y-r*0.7)
	}
	ink(pdf)
}

func drawWaypoint(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.Circle(x, y, r*0.35, "D")
}

func drawForest(pdf *gofpdf.Fpdf, x, y, r float64) {
	for i, dx := range []float64{-r * 0.4, 0, r * 0.35} {
		h := 12 + float64(i)*4
		pdf.Line(x+dx, y, x+dx, y-h)
		pdf.Circle(x+dx, y-h, 5, "D")
	}
}

func drawRiver(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.SetLineWidth(2)
	pdf.Line(x-r, y, x+r, y)
	for i := -1; i <= 1; i++ {
		dx := float64(i) * r * 0.4
		pdf.Line(x+dx, y-4, x+dx+8, y+4)
	}
}

func drawCave(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.Arc(x, y+r*0.3, r*0.8, r*0.6, 0, 0, 180, "D")
	pdf.Line(x-r*0.8, y+r*0.3, x-r*0.8, y+r)
	pdf.Line(x+r*0.8, y+r*0.3, x+r*0.8, y+r)
}

func drawCastle(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.Rect(x-r*0.5, y-r*0.2, r, r*0.6, "D")
	for _, dx := range []float64{-r * 0.5, r * 0.3} {
		pdf.Rect(x+dx, y-r*0.5, r*0.2, r*0.3, "D")
	}
	pdf.Arc(x, y+r*0.4, r*0.15, r*0.2, 0, 180, 360, "D")
}

func drawHouse(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.Rect(x-r*0.4, y-r*0.2, r*0.8, r*0.6, "D")
	pdf.Line(x-r*0.4, y-r*0.2, x, y-r*0.5)
	pdf.Line(x, y-r*0.5, x+r*0.4, y-r*0.2)
}

func drawTown(pdf *gofpdf.Fpdf, x, y, r float64) {
	for i, dx := range []float64{-r * 0.5, -r * 0.1, r * 0.3} {
		w, h := 10.0, 14.0+float64(i)*4
		pdf.Rect(x+dx-w/2, y+r*0.3-h, w, h, "D")
	}
}

func drawMountain(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.Polygon([]gofpdf.PointType{
		{X: x - r*0.8, Y: y + r*0.4},
		{X: x - r*0.2, Y: y - r*0.5},
		{X: x + r*0.1, Y: y},
		{X: x + r*0.4, Y: y - r*0.3},
		{X: x + r*0.8, Y: y + r*0.4},
	}, "D")
}

func drawRoad(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.SetLineWidth(2)
	pdf.Line(x-r*0.8, y, x+r*0.8, y)
}

func drawBridge(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.Line(x-r*0.7, y+3, x+r*0.7, y+3)
	pdf.Arc(x, y+8, 20, 8, 0, 0, 180, "D")
}

func drawShore(pdf *gofpdf.Fpdf, x, y, r float64) {
	for i := 0; i < 5; i++ {
		dx := -r + float64(i)*r*0.5
		dy := 3 * float64(i%2)
		pdf.Line(x+dx, y+dy, x+dx+r*0.5, y-dy)
	}
	pdf.Circle(x+r*0.3, y-r*0.4, 4, "D")
}

// drawDie marks a stop where a skill check was on offer.
func drawDie(pdf *gofpdf.Fpdf, x, y float64) {
	const s = 10.0
	pdf.SetFillColor(255, 255, 255)
	pdf.SetDrawColor(180, 40, 40)
	pdf.SetLineWidth(1)
	pdf.Rect(x-s/2, y-s/2, s, s, "FD")
	pdf.SetFillColor(180, 40, 40)
	for _, d := range [][2]float64{{-2.5, -2.5}, {0, 0}, {2.5, 2.5}} {
		pdf.Circle(x+d[0], y+d[1], 0.9, "F")
	}
}
