package node

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

// FilePath is the local/remote pair carried by every file-backed node.
type FilePath struct {
	Local  string `mapstructure:"file_path"`
	Remote string `mapstructure:"file_path_remote"`
}

// DirPath is the local/remote pair for directory fields.
type DirPath struct {
	Local  string `mapstructure:"dir_path"`
	Remote string `mapstructure:"dir_path_remote"`
}

// LoaderConfig configures the plain loaders (umesh, obj, mini, tstri,
// boxes, cylinders, spumesh).
type LoaderConfig struct {
	FilePath `mapstructure:",squash"`
}

// SpheresConfig configures a spheres loader.
type SpheresConfig struct {
	FilePath `mapstructure:",squash"`
	NumParts int     `mapstructure:"num_parts"`
	Format   string  `mapstructure:"format"`
	Radius   float64 `mapstructure:"radius"`
}

// NanoVDBConfig configures a NanoVDB loader.
type NanoVDBConfig struct {
	FilePath      `mapstructure:",squash"`
	Spacing       [3]float64 `mapstructure:"spacing"`
	SpacingEnable bool       `mapstructure:"spacingEnable"`
}

// RAWVolumeConfig configures a raw dense volume loader.
type RAWVolumeConfig struct {
	FilePath       `mapstructure:",squash"`
	NumParts       int     `mapstructure:"num_parts"`
	Format         string  `mapstructure:"format"`
	Dims           [3]int  `mapstructure:"dims"`
	Channels       int     `mapstructure:"channels"`
	ExtractEnable  bool    `mapstructure:"extractEnable"`
	Extract        [3]int  `mapstructure:"extract"`
	IsoValueEnable bool    `mapstructure:"isoValueEnable"`
	IsoValue       float64 `mapstructure:"isoValue"`
}

// CameraConfig configures the camera: view point, view direction (look-at
// point), up vector and vertical field of view in degrees.
type CameraConfig struct {
	Object string     `mapstructure:"camera_object"`
	VP     [3]float64 `mapstructure:"vp"`
	VI     [3]float64 `mapstructure:"vi"`
	VU     [3]float64 `mapstructure:"vu"`
	Fovy   float64    `mapstructure:"fovy"`
}

// TransferFunctionConfig configures the transfer function file and the
// editor-side material it was authored with.
type TransferFunctionConfig struct {
	FilePath `mapstructure:",squash"`
	Material string `mapstructure:"material"`
}

// PropertiesConfig carries the renderer-wide settings.
type PropertiesConfig struct {
	NumFrames      int     `mapstructure:"num_frames"`
	PathsPerPixel  int     `mapstructure:"paths_per_pixel"`
	MergeUMeshes   bool    `mapstructure:"merge_umeshes"`
	DefaultRadius  float64 `mapstructure:"default_radius"`
	Measure        bool    `mapstructure:"measure"`
	NDG            int     `mapstructure:"ndg"`
	DPR            int     `mapstructure:"dpr"`
	CreateHeadNode bool    `mapstructure:"create_head_node"`
}

// OutputImageConfig configures the output image.
type OutputImageConfig struct {
	DirPath    `mapstructure:",squash"`
	FileName   string `mapstructure:"image_file_name"`
	Resolution [2]int `mapstructure:"resolution"`
}

// RenderConfig configures a render target. FilePath is the HayStack
// executable. ServerName and Port apply to hsBlender only; zero values fall
// back to the environment's server defaults.
type RenderConfig struct {
	FilePath   `mapstructure:",squash"`
	ServerName string `mapstructure:"server_name"`
	Port       int    `mapstructure:"port"`
}

// Server endpoint for hsBlender render targets when neither the node nor
// the environment sets one.
const (
	DefaultServerName = "localhost"
	DefaultServerPort = 7000
)

var (
	spheresFormats = []string{"XYZ", "XYZF", "XYZI"}
	rawFormats     = []string{"UINT8", "BYTE", "FLOAT", "F", "UINT16"}
)

// defaults returns a config struct pre-filled with the editor's defaults.
func defaults(k graph.Kind) any {
	switch k {
	case graph.KindUMesh, graph.KindOBJ, graph.KindMini, graph.KindTSTri,
		graph.KindBoxes, graph.KindCylinders, graph.KindSpatiallyPartitionedUMesh:
		return &LoaderConfig{}
	case graph.KindSpheres:
		return &SpheresConfig{NumParts: 1, Format: "XYZ", Radius: 1}
	case graph.KindNanoVDB:
		return &NanoVDBConfig{Spacing: [3]float64{1, 1, 1}}
	case graph.KindRAWVolume:
		return &RAWVolumeConfig{NumParts: 1, Format: "FLOAT", Dims: [3]int{1, 1, 1}, Channels: 1, IsoValue: 1}
	case graph.KindCamera:
		return &CameraConfig{VU: [3]float64{0, 1, 0}, Fovy: 60}
	case graph.KindTransferFunction:
		return &TransferFunctionConfig{}
	case graph.KindProperties:
		return &PropertiesConfig{NumFrames: 1024, PathsPerPixel: 1, DefaultRadius: 0.1, NDG: 1}
	case graph.KindOutputImage:
		return &OutputImageConfig{FileName: "output.png", Resolution: [2]int{800, 600}}
	case graph.KindRenderBase, graph.KindRenderViewer, graph.KindRenderViewerQT,
		graph.KindRenderOffline, graph.KindRenderBlender:
		return &RenderConfig{}
	}
	return nil
}

// Decode converts a node's configuration map into the typed config for its
// kind (a pointer to one of the *Config structs). Fields absent from the map
// keep their defaults. Unknown kinds decode to nil.
func Decode(k graph.Kind, cfg graph.Config) (any, error) {
	out := defaults(k)
	if out == nil {
		return nil, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(cfg)); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", k, err)
	}
	if err := validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validate(cfg any) error {
	switch c := cfg.(type) {
	case *SpheresConfig:
		return checkEnum("format", c.Format, spheresFormats)
	case *RAWVolumeConfig:
		return checkEnum("format", c.Format, rawFormats)
	case *OutputImageConfig:
		if c.FileName == "" {
			return fmt.Errorf("image_file_name is required")
		}
	}
	return nil
}

func checkEnum(field, value string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return nil
		}
	}
	return fmt.Errorf("%s %q is not one of %s", field, value, strings.Join(allowed, ", "))
}
