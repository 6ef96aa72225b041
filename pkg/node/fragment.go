package node

import (
	"strings"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

// Env carries the compile-time context a fragment may depend on.
type Env struct {
	// Paths resolves local/remote path field pairs.
	Paths PathPolicy

	// ServerName and ServerPort are the hsBlender endpoint used when a node
	// leaves its own fields empty.
	ServerName string
	ServerPort int

	// PortOverride, when set, reports an externally configured server port
	// for hsBlender render targets. A false second result means no override.
	PortOverride func() (int, bool)
}

type fragmentFunc func(cfg any, env Env) []string

// fragments maps each kind to its token generator. Kinds missing from the
// table contribute nothing.
var fragments = map[graph.Kind]fragmentFunc{
	graph.KindUMesh:                     plainLoader(""),
	graph.KindOBJ:                       plainLoader(""),
	graph.KindMini:                      plainLoader(""),
	graph.KindTSTri:                     plainLoader("ts.tri://"),
	graph.KindBoxes:                     plainLoader("boxes://"),
	graph.KindCylinders:                 plainLoader("cylinders://"),
	graph.KindSpatiallyPartitionedUMesh: plainLoader("spumesh://"),
	graph.KindSpheres:                   spheresFragment,
	graph.KindNanoVDB:                   nanoVDBFragment,
	graph.KindRAWVolume:                 rawVolumeFragment,
	graph.KindCamera:                    cameraFragment,
	graph.KindTransferFunction:          transferFunctionFragment,
	graph.KindProperties:                propertiesFragment,
	graph.KindOutputImage:               outputImageFragment,
	graph.KindMerge2:                    emptyFragment,
	graph.KindMerge4:                    emptyFragment,
	graph.KindRenderBase:                emptyFragment,
	graph.KindRenderViewer:              emptyFragment,
	graph.KindRenderViewerQT:            emptyFragment,
	graph.KindRenderOffline:             emptyFragment,
	graph.KindRenderBlender:             blenderFragment,
}

// Fragment returns the tokens n contributes to the command line. Unknown
// kinds return nil, nil. A configuration that cannot be decoded is returned
// as an error.
func Fragment(n *graph.Node, env Env) ([]string, error) {
	fn, ok := fragments[n.Kind]
	if !ok {
		return nil, nil
	}
	cfg, err := Decode(n.Kind, n.Config)
	if err != nil {
		return nil, err
	}
	return fn(cfg, env), nil
}

// HasFragment reports whether nodes of kind k produce a fragment.
func HasFragment(k graph.Kind) bool {
	_, ok := fragments[k]
	return ok
}

// ExecutablePath returns the resolved HayStack executable path configured
// on a render target, or "" for any other kind.
func ExecutablePath(n *graph.Node, env Env) (string, error) {
	if !n.Kind.IsRenderTarget() {
		return "", nil
	}
	cfg, err := Decode(n.Kind, n.Config)
	if err != nil {
		return "", err
	}
	c := cfg.(*RenderConfig)
	return env.Paths.Resolve(c.Local, c.Remote), nil
}

// Material returns the material reference carried by a transfer-function
// node, or "" for any other kind.
func Material(n *graph.Node) string {
	if n.Kind != graph.KindTransferFunction {
		return ""
	}
	cfg, err := Decode(n.Kind, n.Config)
	if err != nil {
		return ""
	}
	return cfg.(*TransferFunctionConfig).Material
}

func emptyFragment(any, Env) []string { return nil }

func plainLoader(scheme string) fragmentFunc {
	return func(cfg any, env Env) []string {
		c := cfg.(*LoaderConfig)
		return []string{scheme + env.Paths.Resolve(c.Local, c.Remote)}
	}
}

// spheres://1@/data/points.p4:format=xyzi:radius=1.0
func spheresFragment(cfg any, env Env) []string {
	c := cfg.(*SpheresConfig)
	return []string{"spheres://" + FormatInt(c.NumParts) + "@" +
		env.Paths.Resolve(c.Local, c.Remote) +
		":format=" + strings.ToLower(c.Format) +
		":radius=" + FormatFloat(c.Radius)}
}

func nanoVDBFragment(cfg any, env Env) []string {
	c := cfg.(*NanoVDBConfig)
	tok := "nvdb://" + env.Paths.Resolve(c.Local, c.Remote)
	if c.SpacingEnable {
		tok += ":spacing=" + formatVec3(c.Spacing, ",")
	}
	return []string{tok}
}

// raw://4@/data/vol.raw:format=float:dims=512,512,512:channels=1
func rawVolumeFragment(cfg any, env Env) []string {
	c := cfg.(*RAWVolumeConfig)
	var b strings.Builder
	b.WriteString("raw://")
	b.WriteString(FormatInt(c.NumParts))
	b.WriteString("@")
	b.WriteString(env.Paths.Resolve(c.Local, c.Remote))
	b.WriteString(":format=" + strings.ToLower(c.Format))
	b.WriteString(":dims=" + formatIVec3(c.Dims))
	b.WriteString(":channels=" + FormatInt(c.Channels))
	if c.ExtractEnable {
		b.WriteString(":extract=" + formatIVec3(c.Extract))
	}
	if c.IsoValueEnable {
		b.WriteString(":isoValue=" + FormatFloat(c.IsoValue))
	}
	return []string{b.String()}
}

func cameraFragment(cfg any, _ Env) []string {
	c := cfg.(*CameraConfig)
	out := make([]string, 0, 12)
	out = append(out, "--camera")
	for _, v := range [][3]float64{c.VP, c.VI, c.VU} {
		out = append(out, FormatFloat(v[0]), FormatFloat(v[1]), FormatFloat(v[2]))
	}
	return append(out, "-fovy", FormatFloat(Round(c.Fovy, 3)))
}

func transferFunctionFragment(cfg any, env Env) []string {
	c := cfg.(*TransferFunctionConfig)
	return []string{"-xf", env.Paths.Resolve(c.Local, c.Remote)}
}

func propertiesFragment(cfg any, _ Env) []string {
	c := cfg.(*PropertiesConfig)
	out := []string{
		"--num-frames", FormatInt(c.NumFrames),
		"--paths-per-pixel", FormatInt(c.PathsPerPixel),
		"--default-radius", FormatFloat(Round(c.DefaultRadius, 7)),
		"-ndg", FormatInt(c.NDG),
		"-dpr", FormatInt(c.DPR),
	}
	if c.MergeUMeshes {
		out = append(out, "--merge-umeshes")
	} else {
		out = append(out, "--no-mum")
	}
	if c.Measure {
		out = append(out, "--measure")
	}
	if c.CreateHeadNode {
		out = append(out, "--create-head-node")
	}
	return out
}

func outputImageFragment(cfg any, env Env) []string {
	c := cfg.(*OutputImageConfig)
	path := c.FileName
	if dir := env.Paths.Resolve(c.Local, c.Remote); dir != "" {
		path = strings.TrimSuffix(dir, "/") + "/" + c.FileName
	}
	return []string{
		"-o", path,
		"-res", FormatInt(c.Resolution[0]), FormatInt(c.Resolution[1]),
	}
}

func blenderFragment(cfg any, env Env) []string {
	c := cfg.(*RenderConfig)
	host := firstNonEmpty(c.ServerName, env.ServerName, DefaultServerName)
	port := c.Port
	if port == 0 {
		port = env.ServerPort
	}
	if port == 0 {
		port = DefaultServerPort
	}
	if env.PortOverride != nil {
		if p, ok := env.PortOverride(); ok {
			port = p
		}
	}
	return []string{"-server", host, "-port", FormatInt(port)}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
