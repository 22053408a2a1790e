package utils

import (
	"strings"
	"testing"
)

func TestBufStackTree(t *testing.T) {
	root := NewBufStack("file", 0x40)
	a := root.SubBuf("chunk", 0).SetSize(0x10).SetName("a")
	a.SubBuf("field", 8).SetSize(4)
	root.SubBuf("chunk", 0x18).SetSize(0x30).SetName("b")

	if a.AbsoluteOffset() != 0 || root.Childs()[1].AbsoluteOffset() != 0x18 {
		t.Errorf("wrong child offsets: %v", root.Childs())
	}

	tree := root.StringTree()
	if !strings.Contains(tree, "gap [o:0x10,s:0x8") {
		t.Errorf("gap between chunks not reported:\n%s", tree)
	}
	if !strings.Contains(tree, "[OVERGROW]") {
		t.Errorf("overgrown chunk not reported:\n%s", tree)
	}
}

func TestBufStackChildsSorted(t *testing.T) {
	root := NewBufStack("file", 0x30)
	root.SubBuf("c", 0x20)
	root.SubBuf("a", 0x00)
	root.SubBuf("b", 0x10)
	kinds := ""
	for _, c := range root.Childs() {
		kinds += c.Kind()
	}
	if kinds != "abc" {
		t.Errorf("childs order %q, expected \"abc\"", kinds)
	}
}

func TestBufStackLocate(t *testing.T) {
	root := NewBufStack("file", 0x40)
	a := root.SubBuf("chunk", 0).SetSize(0x20).SetName("a")
	field := a.SubBuf("field", 8).SetSize(4)
	b := root.SubBuf("chunk", 0x20).SetSize(0x20).SetName("b")

	for _, tc := range []struct {
		offset int
		want   *BufStack
	}{
		{0x00, a},
		{0x09, field},
		{0x0c, a},
		{0x20, b},
		{0x3f, b},
		{0x40, nil},
		{-1, nil},
	} {
		if got := root.Locate(tc.offset); got != tc.want {
			t.Errorf("Locate(0x%x) = %v, expected %v", tc.offset, got, tc.want)
		}
	}
	if chain := field.StringChain(); !strings.Contains(chain, "field") || !strings.Contains(chain, "(a)") {
		t.Errorf("chain %q", chain)
	}
}
