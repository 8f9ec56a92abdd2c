package x11

import (
	"fmt"
	"slices"

	"github.com/1broseidon/perch/internal/geom"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitors returns the rectangles of the active CRTCs. Mirrored outputs
// share a CRTC rectangle and are reported once. Without RandR the root
// window is the only monitor.
func (c *Connection) Monitors() ([]geom.Rect, error) {
	c.randrOnce.Do(func() { c.randrErr = randr.Init(c.XUtil.Conn()) })
	if c.randrErr != nil {
		return c.rootMonitor()
	}

	resources, err := randr.GetScreenResourcesCurrent(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var out []geom.Rect
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil || info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		r := geom.Rect{X: int(info.X), Y: int(info.Y), Width: int(info.Width), Height: int(info.Height)}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return c.rootMonitor()
	}
	return out, nil
}

func (c *Connection) rootMonitor() ([]geom.Rect, error) {
	g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return []geom.Rect{{Width: int(g.Width), Height: int(g.Height)}}, nil
}
