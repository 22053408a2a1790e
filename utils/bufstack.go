package utils

import (
	"fmt"
	"sort"
	"strings"
)

// BufStack is a tree of byte ranges of one buffer. Parsers register every
// structure they walk, StringTree then shows gaps and overlaps between
// siblings, which is usually the quickest way to spot a misparsed file.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	relativeOffset int
	absoluteOffset int
	size           int
	kind           string
	name           string
}

func NewBufStack(kind string, size int) *BufStack {
	return &BufStack{
		size: size,
		kind: kind,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	index := sort.Search(len(bs.childs), func(i int) bool {
		return bs.childs[i].relativeOffset > childBs.relativeOffset
	})
	bs.childs = append(bs.childs, nil)
	copy(bs.childs[index+1:], bs.childs[index:])
	bs.childs[index] = childBs
}

func (bs *BufStack) SubBuf(kind string, offset int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
	}
	bs.addChild(childBs)
	return childBs
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) SetSize(size int) *BufStack {
	bs.size = size
	return bs
}

func (bs *BufStack) Name() string {
	return bs.name
}

func (bs *BufStack) Size() int {
	return bs.size
}

func (bs *BufStack) Kind() string {
	return bs.kind
}

func (bs *BufStack) Parent() *BufStack {
	return bs.parent
}

func (bs *BufStack) Childs() []*BufStack {
	return bs.childs
}

func (bs *BufStack) RelativeOffset() int {
	return bs.relativeOffset
}

func (bs *BufStack) AbsoluteOffset() int {
	return bs.absoluteOffset
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += "::" + bs.parent.StringChain()
	}
	return s
}

func (bs *BufStack) stringTree(sb *strings.Builder, pad int) {
	sPad := strings.Repeat(".  ", pad)
	sb.WriteString(sPad + bs.String() + "\n")

	pos := 0
	for i, child := range bs.childs {
		if pos >= 0 && child.relativeOffset > pos {
			fmt.Fprintf(sb, "%s.  gap [o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]\n",
				sPad, pos, child.relativeOffset-pos, bs.absoluteOffset+pos, child.absoluteOffset)
		}
		child.stringTree(sb, pad+1)
		if child.size != 0 {
			pos = child.relativeOffset + child.size
		} else {
			pos = -1
		}
		if child.size > 0 {
			end := child.relativeOffset + child.size
			if i == len(bs.childs)-1 {
				if bs.size > 0 && end > bs.size {
					sb.WriteString(sPad + ". [OVERGROW]\n")
				}
			} else if end > bs.childs[i+1].relativeOffset {
				sb.WriteString(sPad + ". [OVERLAP]\n")
			}
		}
	}
	if pos >= 0 && len(bs.childs) != 0 && bs.size > pos {
		fmt.Fprintf(sb, "%s.  tail [o:0x%x,s:0x%x]\n", sPad, pos, bs.size-pos)
	}
}

// Locate returns the deepest range holding absolute offset, nil when
// offset is outside of bs
func (bs *BufStack) Locate(offset int) *BufStack {
	if offset < bs.absoluteOffset || (bs.size > 0 && offset >= bs.absoluteOffset+bs.size) {
		return nil
	}
	for _, child := range bs.childs {
		if child.size == 0 {
			continue
		}
		if found := child.Locate(offset); found != nil {
			return found
		}
	}
	return bs
}

func (bs *BufStack) StringTree() string {
	var sb strings.Builder
	bs.stringTree(&sb, 0)
	return sb.String()
}
