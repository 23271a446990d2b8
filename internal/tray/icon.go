package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/yok-tottii/performia-monitor/internal/engine"
)

// iconKind selects one of the generated tray icons
type iconKind int

const (
	iconUnset iconKind = iota
	iconPowerOff
	iconIdle
	iconTone
	iconMonitor
)

const iconSize = 32

var iconColors = map[iconKind]color.RGBA{
	iconPowerOff: {0x5f, 0x63, 0x68, 0xff},
	iconIdle:     {0xe3, 0xe3, 0xe3, 0xff},
	iconTone:     {0xf1, 0x9e, 0x39, 0xff},
	iconMonitor:  {0x75, 0xfb, 0x4c, 0xff},
}

func iconFor(v View) iconKind {
	switch {
	case !v.Power:
		return iconPowerOff
	case v.Mode == engine.ModeTestTone:
		return iconTone
	case v.Mode == engine.ModeMonitor:
		return iconMonitor
	default:
		return iconIdle
	}
}

func renderIcons() map[iconKind][]byte {
	icons := make(map[iconKind][]byte, len(iconColors))
	for kind, c := range iconColors {
		icons[kind] = renderIcon(c)
	}
	return icons
}

// renderIcon draws a filled disc with a ring gap, encoded as PNG
func renderIcon(c color.RGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))

	const center = (iconSize - 1) / 2.0
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			d := dx*dx + dy*dy
			switch {
			case d <= 8*8:
				img.Set(x, y, c)
			case d >= 11*11 && d <= 15*15:
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory NRGBA image cannot fail
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
