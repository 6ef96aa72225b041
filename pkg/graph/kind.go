package graph

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a node. The set is closed; behaviour for each
// kind is dispatched through tables rather than subtyping.
type Kind int

const (
	KindUnknown Kind = iota

	// Data loaders
	KindUMesh
	KindOBJ
	KindMini
	KindSpheres
	KindTSTri
	KindNanoVDB
	KindRAWVolume
	KindBoxes
	KindCylinders
	KindSpatiallyPartitionedUMesh

	// Scene
	KindCamera
	KindTransferFunction

	// Utility
	KindMerge2
	KindMerge4

	// Property and output
	KindProperties
	KindOutputImage

	// Render targets
	KindRenderBase
	KindRenderBlender
	KindRenderViewer
	KindRenderViewerQT
	KindRenderOffline
)

// Category groups kinds the way the editor's "add node" menu does.
type Category string

const (
	CategoryDataLoader Category = "DataLoader"
	CategoryScene      Category = "Scene"
	CategoryUtility    Category = "Utility"
	CategoryProperty   Category = "Property"
	CategoryOutput     Category = "Output"
	CategoryRender     Category = "Render"
)

type kindInfo struct {
	name     string
	label    string
	idname   string // node type identifier used by the editor add-on
	category Category
	inputs   []Port
	output   bool
}

// PortData is the name of the single input of render targets and of every
// output port.
const PortData = "Data"

// MaxAggregateLinks is the number of links the render targets' "Data" input
// accepts.
const MaxAggregateLinks = 100

var aggregateInput = []Port{{Name: PortData, Limit: MaxAggregateLinks}}

var kinds = map[Kind]kindInfo{
	KindUMesh:                     {"umesh", "UMesh", "HayStackLoadUMeshNodeType", CategoryDataLoader, nil, true},
	KindOBJ:                       {"obj", "OBJ", "HayStackLoadOBJNodeType", CategoryDataLoader, nil, true},
	KindMini:                      {"mini", "Mini", "HayStackLoadMiniNodeType", CategoryDataLoader, nil, true},
	KindSpheres:                   {"spheres", "Spheres", "HayStackLoadSpheresNodeType", CategoryDataLoader, nil, true},
	KindTSTri:                     {"tstri", "TSTri", "HayStackLoadTSTriNodeType", CategoryDataLoader, nil, true},
	KindNanoVDB:                   {"nanovdb", "NanoVDB", "HayStackLoadNanoVDBNodeType", CategoryDataLoader, nil, true},
	KindRAWVolume:                 {"raw_volume", "RAWVolume", "HayStackLoadRAWVolumeNodeType", CategoryDataLoader, nil, true},
	KindBoxes:                     {"boxes", "Boxes", "HayStackLoadBoxesNodeType", CategoryDataLoader, nil, true},
	KindCylinders:                 {"cylinders", "Cylinders", "HayStackLoadCylindersNodeType", CategoryDataLoader, nil, true},
	KindSpatiallyPartitionedUMesh: {"spumesh", "SpatiallyPartitionedUMesh", "HayStackLoadSpatiallyPartitionedUMeshNodeType", CategoryDataLoader, nil, true},
	KindCamera:                    {"camera", "Camera", "HayStackCameraNodeType", CategoryScene, nil, true},
	KindTransferFunction:          {"transfer_function", "TransferFunction", "HayStackTransferFunctionNodeType", CategoryScene, nil, true},
	KindMerge2:                    {"merge2", "Merge2", "HayStackMerge2NodeType", CategoryUtility, mergeInputs(2), true},
	KindMerge4:                    {"merge4", "Merge4", "HayStackMerge4NodeType", CategoryUtility, mergeInputs(4), true},
	KindProperties:                {"properties", "Properties", "HayStackPropertiesNodeType", CategoryProperty, nil, true},
	KindOutputImage:               {"output_image", "Output Image", "HayStackOutputImageNodeType", CategoryOutput, nil, true},
	KindRenderBase:                {"render_base", "RenderBase", "HayStackRenderBaseNodeType", CategoryRender, aggregateInput, false},
	KindRenderBlender:             {"render_blender", "hsBlender", "HayStackRenderBlenderNodeType", CategoryRender, aggregateInput, false},
	KindRenderViewer:              {"render_viewer", "hsViewer", "HayStackRenderViewerNodeType", CategoryRender, aggregateInput, false},
	KindRenderViewerQT:            {"render_viewer_qt", "hsViewerQT", "HayStackRenderViewerQTNodeType", CategoryRender, aggregateInput, false},
	KindRenderOffline:             {"render_offline", "hsOffline", "HayStackRenderOfflineNodeType", CategoryRender, aggregateInput, false},
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, 2*len(kinds))
	for k, info := range kinds {
		m[info.name] = k
		m[strings.ToLower(info.idname)] = k
	}
	return m
}()

func mergeInputs(n int) []Port {
	ports := make([]Port, n)
	for i := range ports {
		ports[i] = Port{Name: fmt.Sprintf("Data %d", i+1), Limit: 1}
	}
	return ports
}

// ParseKind maps a kind name to a Kind. Both the short names ("raw_volume")
// and the editor's node type identifiers ("HayStackLoadRAWVolumeNodeType")
// are accepted, case-insensitively. Unrecognized names return KindUnknown
// and false.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindByName[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// String returns the short kind name used in graph documents.
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "unknown"
}

// Label returns the display label the editor shows for the kind.
func (k Kind) Label() string {
	if info, ok := kinds[k]; ok {
		return info.label
	}
	return "Unknown"
}

// Category returns the menu category of the kind.
func (k Kind) Category() Category { return kinds[k].category }

// Inputs returns the declared input ports of the kind, in enumeration order.
func (k Kind) Inputs() []Port { return kinds[k].inputs }

// HasOutput reports whether nodes of this kind have a "Data" output port.
func (k Kind) HasOutput() bool { return kinds[k].output }

// IsRenderTarget reports whether the kind is one of the render-target
// variants that can act as the root of a compilation.
func (k Kind) IsRenderTarget() bool { return kinds[k].category == CategoryRender }

// IsLoader reports whether the kind is a data loader.
func (k Kind) IsLoader() bool { return kinds[k].category == CategoryDataLoader }

// Known reports whether the kind is part of the recognized set.
func (k Kind) Known() bool {
	_, ok := kinds[k]
	return ok
}

// Kinds returns every recognized kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := KindUMesh; k <= KindRenderOffline; k++ {
		out = append(out, k)
	}
	return out
}

// Port is a named input port.
type Port struct {
	Name  string
	Limit int // maximum number of incoming links
}
