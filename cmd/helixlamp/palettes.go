package main

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ============================================================================
// Color helpers and named palettes
// ============================================================================
//
// Hues travel over the wire as a single byte (0..255 around the color wheel)
// to match the command protocol. Everything is converted to RGB exactly once
// per rendered pixel; brightness is NEVER baked in here - the push boundary
// applies the display*global scalar so brightness commands act instantly on
// every effect.
// ============================================================================

// RGB is one pixel. Zero value is black.
type RGB struct {
	R, G, B uint8
}

// hueToRGB converts a wire-format hue byte at the given value level (0..255)
// to a fully saturated RGB color.
func hueToRGB(hue uint8, value uint8) RGB {
	c := colorful.Hsv(float64(hue)*360.0/256.0, 1.0, float64(value)/255.0)
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// lighten blends per-channel maximum: the brighter channel wins. Used to lay
// a background under comet heads without dimming them.
func lighten(a, b RGB) RGB {
	out := a
	if b.R > out.R {
		out.R = b.R
	}
	if b.G > out.G {
		out.G = b.G
	}
	if b.B > out.B {
		out.B = b.B
	}
	return out
}

// fadeToBlack scales a pixel down by amount/255.
func fadeToBlack(c RGB, amount uint8) RGB {
	keep := 255 - int(amount)
	return RGB{
		R: uint8(int(c.R) * keep / 255),
		G: uint8(int(c.G) * keep / 255),
		B: uint8(int(c.B) * keep / 255),
	}
}

// heatToRGB maps a heat value (0..255) to the classic black-body ramp:
// black -> red -> yellow -> white.
func heatToRGB(heat uint8) RGB {
	// Scale to 0..191 and split into three 64-wide bands.
	t := int(heat) * 191 / 255
	ramp := uint8((t % 64) * 4) // 0..252 within the band

	switch {
	case t >= 128: // hottest third: white-hot over full red+green
		return RGB{R: 255, G: 255, B: ramp}
	case t >= 64: // middle third: yellow ramp
		return RGB{R: 255, G: ramp, B: 0}
	default: // coolest third: red ramp
		return RGB{R: ramp, G: 0, B: 0}
	}
}

// palette is a small gradient sampled by position 0..1.
type palette []colorful.Color

// sample interpolates the palette at t in [0,1).
func (p palette) sample(t float64) RGB {
	if t < 0 {
		t = 0
	}
	if t >= 1 {
		t = 0.999999
	}
	segs := len(p) - 1
	pos := t * float64(segs)
	i := int(pos)
	frac := pos - float64(i)
	c := p[i].BlendRgb(p[i+1], frac)
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Named palettes for the noise effect. Loosely modeled after the classic
// LED-art gradients of the same names.
var palettes = map[string]palette{
	"lava": {
		mustHex("#000000"), mustHex("#800000"), mustHex("#ff0000"),
		mustHex("#ff8000"), mustHex("#ffff00"),
	},
	"cloud": {
		mustHex("#000060"), mustHex("#4060a0"), mustHex("#a0c0e0"),
		mustHex("#ffffff"),
	},
	"ocean": {
		mustHex("#001030"), mustHex("#004080"), mustHex("#00a0c0"),
		mustHex("#80ffe0"),
	},
	"forest": {
		mustHex("#002000"), mustHex("#006010"), mustHex("#30a040"),
		mustHex("#b0ff60"),
	},
	"party": {
		mustHex("#5500ab"), mustHex("#ab0055"), mustHex("#ff0000"),
		mustHex("#ab5500"), mustHex("#ffff00"), mustHex("#00ab55"),
		mustHex("#0000ff"),
	},
	"rainbow": {
		mustHex("#ff0000"), mustHex("#ffff00"), mustHex("#00ff00"),
		mustHex("#00ffff"), mustHex("#0000ff"), mustHex("#ff00ff"),
		mustHex("#ff0000"),
	},
}
