package visibility

import "github.com/Carmen-Shannon/oxy-cull/engine/light"

// Kind classifies the cameras culled each frame.
type Kind int

const (
	KindMain Kind = iota
	KindSecondary
	KindCubemap
	KindSpot
	KindDirectional
	KindPoint

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindSecondary:
		return "secondary"
	case KindCubemap:
		return "cubemap"
	case KindSpot:
		return "spot"
	case KindDirectional:
		return "directional"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Kinds returns every camera kind in culling order.
func Kinds() []Kind {
	return []Kind{KindMain, KindSecondary, KindCubemap, KindSpot, KindDirectional, KindPoint}
}

func kindOf(t light.LightType) Kind {
	switch t {
	case light.LightTypeDirectional:
		return KindDirectional
	case light.LightTypePoint:
		return KindPoint
	default:
		return KindSpot
	}
}
