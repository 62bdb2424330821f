// Package fonts provides the font faces used to draw text into exported
// rasters.
//
// Labels use the Go font family from golang.org/x/image. Emoji markers use a
// monochrome outline font: DejaVu Sans is embedded with go:embed and covers
// the symbol emoji (★ ❤ ☕ ⚓ ✈ ☀ and the emoticon block). A fuller font such
// as Noto Emoji can be loaded at startup with [LoadEmoji]. Fonts are parsed
// once; faces are created per call because an opentype face keeps scratch
// buffers and must not be shared between goroutines.
package fonts

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Family is the CSS-style family name the faces stand in for.
const Family = "sans-serif"

// DejaVu Sans is the default emoji font (Bitstream Vera license, see LICENSE-DejaVu).

//go:embed DejaVuSans.ttf
var dejaVuSansTTF []byte

var (
	parseOnce sync.Once
	parseErr  error
	regular   *opentype.Font
	bold      *opentype.Font

	emojiMu sync.RWMutex
	emoji   *opentype.Font
)

func parse() error {
	parseOnce.Do(func() {
		if regular, parseErr = opentype.Parse(goregular.TTF); parseErr != nil {
			return
		}
		if bold, parseErr = opentype.Parse(gobold.TTF); parseErr != nil {
			return
		}
		var f *opentype.Font
		if f, parseErr = opentype.Parse(dejaVuSansTTF); parseErr != nil {
			return
		}
		emojiMu.Lock()
		if emoji == nil {
			emoji = f
		}
		emojiMu.Unlock()
	})
	return parseErr
}

// Regular returns a new regular face at size points (72 DPI, so points
// equal pixels).
func Regular(size float64) (font.Face, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	return newFace(regular, size)
}

// Bold returns a new bold face at size pixels.
func Bold(size float64) (font.Face, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	return newFace(bold, size)
}

// Emoji returns a new face of the emoji font at size pixels.
func Emoji(size float64) (font.Face, error) {
	f, err := emojiFont()
	if err != nil {
		return nil, err
	}
	return newFace(f, size)
}

// LoadEmoji replaces the emoji font with the TrueType or OpenType file at
// path. On error the current font is kept.
func LoadEmoji(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read emoji font: %w", err)
	}
	return SetEmoji(data)
}

// SetEmoji replaces the emoji font with the parsed font data.
func SetEmoji(data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse emoji font: %w", err)
	}
	if err := parse(); err != nil {
		return err
	}
	emojiMu.Lock()
	emoji = f
	emojiMu.Unlock()
	return nil
}

func emojiFont() (*opentype.Font, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	emojiMu.RLock()
	defer emojiMu.RUnlock()
	return emoji, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// HasEmoji reports whether the emoji font can draw every rune of s.
// Whitespace and zero-width joiners/selectors are ignored.
func HasEmoji(s string) bool {
	f, err := emojiFont()
	if err != nil {
		return false
	}
	return covers(f, s)
}

func covers(f *opentype.Font, s string) bool {
	var buf sfnt.Buffer
	for _, r := range s {
		if r == ' ' || r == '\u200d' || (r >= '\ufe00' && r <= '\ufe0f') {
			continue
		}
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			return false
		}
	}
	return true
}
