package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// ExportBinary attaches all root nodes to the default scene and writes glb
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
		doc.Scene = gltf.Index(0)
	}

	children := make(map[uint32]bool)
	for _, node := range doc.Nodes {
		for _, child := range node.Children {
			children[child] = true
		}
	}
	scene := doc.Scenes[0]
	scene.Nodes = scene.Nodes[:0]
	for iNode := range doc.Nodes {
		if !children[uint32(iNode)] {
			scene.Nodes = append(scene.Nodes, uint32(iNode))
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
