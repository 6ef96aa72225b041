// Package pkg provides the libraries behind hscompose, the HayStack scene
// graph compiler.
//
// # Overview
//
// A HayStack job is described as a node graph: data loaders, a camera, a
// transfer function, renderer properties and an output image all feed a
// single render target (hsViewer, hsViewerQT, hsOffline, hsBlender). The
// compiler walks that graph and produces the command line that launches the
// renderer, then stores it in a named buffer.
//
// # Architecture
//
// The typical data flow:
//
//	Graph document (JSON, YAML, TOML, HCL)
//	         ↓
//	    [io] package (decode into a graph arena)
//	         ↓
//	    [graph] package (nodes, typed ports, links)
//	         ↓
//	    [compile] package (root selection, upstream walk, [node] fragments)
//	         ↓
//	    [buffer] package (<graph>_command_tree.cmd / _command_node.cmd)
//
// # Quick Start
//
//	g, _ := io.ImportFile("scene.json")
//	st, _ := settings.Load("")
//	store, _ := buffer.Open(ctx, st.Buffer)
//	res, _ := compile.New(st.Env("."), store, nil).CompileTree(ctx, g)
//	fmt.Println(res.Command)
//
// # Main Packages
//
// ## Compiling
//
// [graph] - Graph arena with the closed set of HayStack node kinds, their
// categories and input ports. Merge nodes expose ordered "Data N" ports.
//
// [node] - Typed node configuration and the per-kind token generators,
// including local/remote path selection and Windows drive escaping.
//
// [compile] - Tree and node compilation, root selection and result
// reporting.
//
// [io] - Graph document formats.
//
// ## Storage and Settings
//
// [buffer] - Named command buffers on disk, in memory, in Redis or in
// MongoDB.
//
// [settings] - User preferences (remote mode, server endpoint, auto-generate
// frequency, cluster presets) from a TOML file and the environment.
//
// [cache] - TTL cache for remote directory listings.
//
// ## Remote Clusters
//
// [remote] - SSH command runner, cached directory listings, a path browser
// and buffer upload over SCP.
//
// ## Automation
//
// [watch] - Periodic and file-triggered recompilation.
//
// [server] - HTTP API over the compiler and buffers, with Prometheus
// metrics.
//
// [observability] - Hook interfaces for compile, buffer, remote and cache
// events.
//
// ## Visualization
//
// [render/nodelink] - Node-link diagrams of a graph through Graphviz.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/compile/...            # Specific package
//	go test -run Example ./pkg/...       # Examples only
//
// [graph]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/graph
// [node]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/node
// [compile]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/compile
// [io]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/io
// [buffer]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/buffer
// [settings]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/settings
// [cache]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/cache
// [remote]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/remote
// [watch]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/watch
// [server]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/server
// [observability]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/observability
// [render/nodelink]: https://pkg.go.dev/github.com/braas-hpc/hscompose/pkg/render/nodelink
package pkg
