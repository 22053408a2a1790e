package companim

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/w3d_browser/utils"
	"github.com/mogaika/w3d_browser/w3d"
)

type pivotTracks struct {
	translation [3]*Track
	euler       [3]*Track
	quat        *Track
}

func (pt *pivotTracks) hasTranslation() bool {
	return pt.translation[0] != nil || pt.translation[1] != nil || pt.translation[2] != nil
}

func (pt *pivotTracks) hasRotation() bool {
	return pt.quat != nil || pt.euler[0] != nil || pt.euler[1] != nil || pt.euler[2] != nil
}

func interpolation(step bool) gltf.Interpolation {
	if step {
		return gltf.InterpolationStep
	}
	return gltf.InterpolationLinear
}

func pivotName(pivotNames []string, pivot uint16) string {
	if int(pivot) < len(pivotNames) && pivotNames[pivot] != "" {
		return pivotNames[pivot]
	}
	return fmt.Sprintf("pivot_%d", pivot)
}

// ExportGLTF creates a document with one node per animated pivot and one
// animation with translation and rotation samplers for them.
func ExportGLTF(ca *CompressedAnimation, pivotNames []string) (*gltf.Document, error) {
	tracks, _, err := ca.Tracks()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to sample animation %q", ca.Header.Name)
	}
	if ca.Header.FrameRate == 0 {
		return nil, w3d.Invariantf("animation %q has zero frame rate", ca.Header.Name)
	}

	pivots := make(map[uint16]*pivotTracks)
	for i := range tracks {
		t := &tracks[i]
		pt, ok := pivots[t.Pivot]
		if !ok {
			pt = &pivotTracks{}
			pivots[t.Pivot] = pt
		}
		switch t.Type {
		case w3d.ChannelX, w3d.ChannelY, w3d.ChannelZ:
			pt.translation[t.Type-w3d.ChannelX] = t
		case w3d.ChannelXR, w3d.ChannelYR, w3d.ChannelZR:
			pt.euler[t.Type-w3d.ChannelXR] = t
		case w3d.ChannelQ:
			pt.quat = t
		}
	}
	order := make([]int, 0, len(pivots))
	for pivot := range pivots {
		order = append(order, int(pivot))
	}
	sort.Ints(order)

	doc := gltf.NewDocument()
	numFrames := int(ca.Header.NumFrames)
	times := make([]float32, numFrames)
	for f := range times {
		times[f] = float32(f) / float32(ca.Header.FrameRate)
	}
	timeAccessor := modeler.WriteAccessor(doc, gltf.TargetNone, times)
	if numFrames > 0 {
		doc.Accessors[timeAccessor].Min = []float32{times[0]}
		doc.Accessors[timeAccessor].Max = []float32{times[numFrames-1]}
	}

	anim := &gltf.Animation{Name: ca.Header.Name}
	addSampler := func(node uint32, path gltf.TRSProperty, output uint32, step bool) {
		anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
			Input:         gltf.Index(timeAccessor),
			Output:        gltf.Index(output),
			Interpolation: interpolation(step),
		})
		anim.Channels = append(anim.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
			Target:  gltf.ChannelTarget{Node: gltf.Index(node), Path: path},
		})
	}

	for _, p := range order {
		pt := pivots[uint16(p)]
		node := uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: pivotName(pivotNames, uint16(p))})

		if pt.hasTranslation() {
			positions := make([][3]float32, numFrames)
			step := true
			for axis, t := range pt.translation {
				if t == nil {
					continue
				}
				step = step && t.Step
				for f := range positions {
					positions[f][axis] = t.Frames[f].Scalar()
				}
			}
			addSampler(node, gltf.TRSTranslation, modeler.WriteAccessor(doc, gltf.TargetNone, positions), step)
		}

		if pt.hasRotation() {
			rotations := make([][4]float32, numFrames)
			step := true
			if pt.quat != nil {
				step = pt.quat.Step
				for f := range rotations {
					q := pt.quat.Frames[f].Quat().Normalize()
					rotations[f] = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
				}
			} else {
				for f := range rotations {
					var e mgl32.Vec3
					for axis, t := range pt.euler {
						if t != nil {
							e[axis] = t.Frames[f].Scalar()
						}
					}
					q := utils.EulerToQuat(e)
					rotations[f] = [4]float32{q.V[0], q.V[1], q.V[2], q.W}
				}
				for _, t := range pt.euler {
					if t != nil {
						step = step && t.Step
					}
				}
			}
			addSampler(node, gltf.TRSRotation, modeler.WriteAccessor(doc, gltf.TargetNone, rotations), step)
		}
	}

	if len(anim.Channels) != 0 {
		doc.Animations = append(doc.Animations, anim)
	}
	return doc, nil
}
