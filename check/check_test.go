package check

import (
	"testing"

	"github.com/mogaika/w3d_browser/vfs"
	"github.com/mogaika/w3d_browser/w3d"
	"github.com/mogaika/w3d_browser/w3d/companim"
)

func testFile(t *testing.T) []byte {
	ca := companim.New("idle", "skeleton", 4, 15, companim.FlavorTimeCoded)
	ca.TimeCodedChannels = append(ca.TimeCodedChannels, companim.NewTimeCodedAnimationChannel(1, w3d.ChannelX,
		[]w3d.Value{w3d.ScalarValue(0), w3d.ScalarValue(1), w3d.ScalarValue(2), w3d.ScalarValue(3)}))

	w := w3d.NewWriter()
	w.WriteChunk(0x100, []byte("hierarchy"), true)
	if err := ca.Write(w); err != nil {
		t.Fatal(err)
	}
	return w.Bytes()
}

func TestDirectory(t *testing.T) {
	d := vfs.NewMemoryDirectory("assets")
	good := testFile(t)
	d.WriteFile("good.w3d", good)
	d.WriteFile("broken.w3d", good[:len(good)-2])
	d.WriteFile("notes.txt", []byte("skip me"))

	results, err := Directory(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("%d results", len(results))
	}
	broken, ok := results[0], results[1]
	if broken.File != "broken.w3d" || broken.Error == "" || broken.Identical {
		t.Errorf("broken file result %+v", broken)
	}
	if ok.File != "good.w3d" || ok.Error != "" || !ok.Identical || ok.Animations != 1 || ok.Chunks != 2 {
		t.Errorf("good file result %+v", ok)
	}
}
