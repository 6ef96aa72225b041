// Package io reads and writes HayStack graph documents.
//
// # Document Format
//
// JSON is the canonical format:
//
//	{
//	  "name": "scene",
//	  "active": "viewer",
//	  "nodes": [
//	    {"id": "mesh", "kind": "umesh", "config": {"file_path": "//data/model.umesh"}},
//	    {"id": "viewer", "kind": "render_viewer", "config": {"file_path": "/opt/hs/hsViewer"}}
//	  ],
//	  "links": [
//	    {"from": "mesh", "to": "viewer", "to_port": "Data"}
//	  ]
//	}
//
// YAML and TOML documents use the same field names. Node kinds accept the
// short names ("raw_volume") or the editor's node type identifiers. Kinds
// that are not recognized are kept with their original name and compile to
// nothing. "from_port" and "to_port" default to "Data".
//
// # HCL
//
// HCL documents are read-only:
//
//	graph "scene" {
//	  active = "viewer"
//	}
//
//	node "umesh" "mesh" {
//	  file_path = "//data/model.umesh"
//	}
//
//	node "render_viewer" "viewer" {
//	  file_path = "/opt/hs/hsViewer"
//	}
//
//	link {
//	  from = "mesh"
//	  to   = "viewer"
//	}
//
// # Files
//
// [ImportFile] picks the format from the file extension and names the graph
// after the file when the document has no name. [Save] writes a graph back
// in its file's format.
package io
