package web

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"talespin/internal/story"
)

const mediaCacheControl = "public, max-age=3600"

// audioTypes are tried in order for /media/audio/<hint>.
var audioTypes = []struct{ ext, contentType string }{
	{".mp3", "audio/mpeg"},
	{".ogg", "audio/ogg"},
	{".wav", "audio/wav"},
	{".m4a", "audio/mp4"},
}

// handleMedia serves assets keyed by a node's location hint:
//
//	/media/scenery/<hint>.png  MediaDir/scenery/<hint>.png, else a generated picture
//	/media/audio/<hint>        MediaDir/audio/<hint>.{mp3,ogg,wav,m4a}
//
// Only location keywords are accepted, so the file name never comes from
// the request verbatim.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kind, name, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/media/"), "/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	hint := strings.TrimSuffix(name, path.Ext(name))
	if !story.IsLocation(hint) {
		http.NotFound(w, r)
		return
	}
	switch kind {
	case "scenery":
		s.serveScenery(w, r, hint)
	case "audio":
		s.serveAudio(w, r, hint)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) serveScenery(w http.ResponseWriter, r *http.Request, hint string) {
	if p, ok := s.mediaFile("scenery", hint+".png"); ok {
		w.Header().Set("Cache-Control", mediaCacheControl)
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, p)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, sceneryImage(hint)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) serveAudio(w http.ResponseWriter, r *http.Request, hint string) {
	for _, at := range audioTypes {
		if p, ok := s.mediaFile("audio", hint+at.ext); ok {
			w.Header().Set("Content-Type", at.contentType)
			w.Header().Set("Cache-Control", mediaCacheControl)
			http.ServeFile(w, r, p)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) hasAudio(hint string) bool {
	for _, at := range audioTypes {
		if _, ok := s.mediaFile("audio", hint+at.ext); ok {
			return true
		}
	}
	return false
}

// mediaFile returns the path of a regular file under MediaDir/sub.
func (s *Server) mediaFile(sub, name string) (string, bool) {
	if s.MediaDir == "" {
		return "", false
	}
	p := filepath.Join(s.MediaDir, sub, name)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

// Generated scenery is blocky pixel art: 256x192 in 8x8 blocks.
const (
	blockPx        = 8
	blocksW        = 32
	blocksH        = 24
	sceneW, sceneH = blocksW * blockPx, blocksH * blockPx
)

var (
	pxNight = color.RGBA{0x18, 0x14, 0x28, 255}
	pxSky   = color.RGBA{0x45, 0x2c, 0x5c, 255}
	pxWater = color.RGBA{0x2d, 0x3a, 0x5c, 255}
	pxSand  = color.RGBA{0x8b, 0x73, 0x55, 255}
	pxStone = color.RGBA{0x55, 0x55, 0x66, 255}
	pxGreen = color.RGBA{0x2d, 0x5a, 0x3d, 255}
	pxMoss  = color.RGBA{0x6b, 0x8c, 0x5a, 255}
	pxWarm  = color.RGBA{0xc4, 0x6c, 0x32, 255}
	pxSnow  = color.RGBA{0xd8, 0xd8, 0xe0, 255}
)

// block is a filled rectangle in block coordinates, [x0,x1) x [y0,y1).
type block struct {
	x0, y0, x1, y1 int
	c              color.RGBA
}

func band(y0, y1 int, c color.RGBA) block { return block{0, y0, blocksW, y1, c} }

// scenes lists each hint's picture, painted in order over a night fill.
var scenes = map[string][]block{
	"forest": {
		band(0, 8, pxSky), band(22, 24, pxGreen),
		{1, 15, 4, 21, pxGreen}, {2, 21, 3, 24, pxStone},
		{8, 13, 11, 21, pxGreen}, {9, 21, 10, 24, pxStone},
		{15, 15, 18, 21, pxGreen}, {16, 21, 17, 24, pxStone},
		{22, 14, 25, 21, pxGreen}, {23, 21, 24, 24, pxStone},
		{10, 13, 11, 14, pxMoss}, {24, 14, 25, 15, pxMoss},
	},
	"river":   {band(0, 8, pxSky), band(8, 24, pxGreen), band(11, 15, pxWater)},
	"cave":    {{4, 0, 6, 24, pxStone}, {26, 0, 28, 24, pxStone}, {6, 0, 26, 3, pxStone}, band(21, 24, pxStone)},
	"dungeon": {{4, 0, 6, 24, pxStone}, {10, 0, 12, 24, pxStone}, {16, 0, 18, 24, pxStone}, {22, 0, 24, 24, pxStone}, {28, 0, 30, 24, pxStone}},
	"castle": {
		band(0, 10, pxSky), band(20, 24, pxGreen),
		{6, 10, 26, 20, pxStone}, {4, 6, 8, 20, pxStone}, {24, 6, 28, 20, pxStone},
		{14, 15, 18, 20, pxNight}, {5, 8, 6, 9, pxWarm}, {25, 8, 26, 9, pxWarm},
	},
	"tavern":   {{4, 6, 28, 24, pxStone}, {2, 5, 30, 6, pxWarm}, {8, 10, 12, 13, pxWarm}, {20, 10, 24, 13, pxWarm}},
	"town":     {band(0, 8, pxSky), {2, 18, 6, 24, pxStone}, {8, 20, 12, 24, pxStone}, {14, 16, 18, 24, pxStone}, {20, 19, 24, 24, pxStone}, {26, 17, 30, 24, pxStone}, {2, 17, 6, 18, pxWarm}, {14, 15, 18, 16, pxWarm}, {26, 16, 30, 17, pxWarm}},
	"village":  {band(0, 10, pxSky), band(20, 24, pxGreen), {4, 16, 9, 20, pxStone}, {14, 17, 19, 20, pxStone}, {24, 16, 29, 20, pxStone}, {6, 17, 7, 18, pxWarm}, {26, 17, 27, 18, pxWarm}},
	"mountain": {band(0, 24, pxSky), {4, 14, 28, 24, pxStone}, {8, 10, 24, 14, pxStone}, {12, 6, 20, 10, pxStone}, {14, 4, 18, 6, pxSnow}, {12, 6, 20, 7, pxSnow}},
	"road":     {band(0, 8, pxSky), band(8, 24, pxGreen), {4, 11, 28, 14, pxStone}},
	"bridge":   {band(0, 8, pxSky), band(14, 24, pxWater), band(11, 12, pxStone), {6, 12, 7, 16, pxStone}, {25, 12, 26, 16, pxStone}},
	"shore":    {band(0, 14, pxSky), band(14, 20, pxWater), band(20, 24, pxSand)},
	"beach":    {band(0, 12, pxSky), band(12, 16, pxWater), band(16, 24, pxSand), {24, 3, 27, 6, pxWarm}},
}

// sceneryImage paints the picture for hint; unknown hints get sky over grass.
func sceneryImage(hint string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, sceneW, sceneH))
	paint(img, band(0, blocksH, pxNight))
	blocks, ok := scenes[hint]
	if !ok {
		blocks = []block{band(0, blocksH/2, pxSky), band(blocksH/2, blocksH, pxGreen)}
	}
	for _, b := range blocks {
		paint(img, b)
	}
	return img
}

func paint(img *image.RGBA, b block) {
	for y := b.y0 * blockPx; y < b.y1*blockPx && y < sceneH; y++ {
		for x := b.x0 * blockPx; x < b.x1*blockPx && x < sceneW; x++ {
			img.SetRGBA(x, y, b.c)
		}
	}
}
