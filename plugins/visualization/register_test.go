package visualization

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Readm/cluster_map/hooks"
	"github.com/Readm/cluster_map/scene"
	"github.com/Readm/cluster_map/visual"
)

type stubPublisher struct {
	frames []*visual.Frame
}

func (s *stubPublisher) Publish(f *visual.Frame) {
	s.frames = append(s.frames, f)
}

func frameWithWorkers(seq uint64, workers int) *visual.Frame {
	f := &visual.Frame{Seq: seq, Width: 100, Height: 100}
	for i := 0; i < workers; i++ {
		f.Workers = append(f.Workers, visual.WorkerState{ID: "w"})
	}
	return f
}

func load(t *testing.T, modes map[string]Mode, names ...string) []visual.FramePublisher {
	t.Helper()
	reg := hooks.NewRegistry(nil)
	var added []visual.FramePublisher
	err := Register(reg, Options{
		Modes:        modes,
		AddPublisher: func(p visual.FramePublisher) { added = append(added, p) },
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if err := reg.Load(names); err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	return added
}

func TestRegisterAndLoad(t *testing.T) {
	stub := &stubPublisher{}
	reg := hooks.NewRegistry(nil)
	var added []visual.FramePublisher
	err := Register(reg, Options{
		Modes: map[string]Mode{
			"web": {New: func() (visual.FramePublisher, error) { return stub, nil }},
			"off": {},
		},
		AddPublisher: func(p visual.FramePublisher) { added = append(added, p) },
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if err := reg.Load([]string{PluginName("web")}); err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if len(added) != 1 || added[0] != stub {
		t.Fatalf("expected the unfiltered stub publisher, got %v", added)
	}
	got := reg.Broker().ListPlugins(hooks.PluginCategoryVisualization)
	if len(got) != 1 || got[0].Description != "web frame publisher" {
		t.Fatalf("expected one described visualization plugin, got %v", got)
	}
}

func TestRegisterRequiresCallback(t *testing.T) {
	if err := Register(hooks.NewRegistry(nil), Options{}); err == nil {
		t.Fatalf("expected error without AddPublisher")
	}
}

func TestRegisterRejectsNegativeEvery(t *testing.T) {
	err := Register(hooks.NewRegistry(nil), Options{
		Modes: map[string]Mode{
			"web": {New: func() (visual.FramePublisher, error) { return &stubPublisher{}, nil }, Every: -1},
		},
		AddPublisher: func(visual.FramePublisher) {},
	})
	if err == nil {
		t.Fatalf("expected error for negative every")
	}
}

func TestFactoryErrorFailsLoad(t *testing.T) {
	reg := hooks.NewRegistry(nil)
	err := Register(reg, Options{
		Modes: map[string]Mode{
			"broken": {New: func() (visual.FramePublisher, error) { return nil, errors.New("boom") }},
		},
		AddPublisher: func(visual.FramePublisher) {},
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	err = reg.Load([]string{PluginName("broken")})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected load error carrying the cause, got %v", err)
	}
}

func TestModeThinsFrames(t *testing.T) {
	stub := &stubPublisher{}
	added := load(t, map[string]Mode{
		"thin": {New: func() (visual.FramePublisher, error) { return stub, nil }, Every: 3, SkipEmpty: true},
	}, PluginName("thin"))
	if len(added) != 1 {
		t.Fatalf("expected one publisher, got %d", len(added))
	}

	added[0].Publish(frameWithWorkers(1, 0))
	for seq := uint64(2); seq <= 8; seq++ {
		added[0].Publish(frameWithWorkers(seq, 2))
	}
	added[0].Publish(nil)

	var seqs []uint64
	for _, f := range stub.frames {
		seqs = append(seqs, f.Seq)
	}
	want := []uint64{2, 5, 8}
	if len(seqs) != len(want) {
		t.Fatalf("expected frames %v, got %v", want, seqs)
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("expected frames %v, got %v", want, seqs)
		}
	}
}

func TestSVGFileReplacesSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.svg")
	file, err := NewSVGFile(path)
	if err != nil {
		t.Fatalf("new svg file: %v", err)
	}

	frame := frameWithWorkers(1, 1)
	frame.Nodes = []scene.NodeSnapshot{{
		ID:    "w1",
		Kind:  scene.KindCircle,
		Class: "worker",
		Attrs: scene.Attrs{scene.AttrCX: 50.0, scene.AttrCY: 50.0, scene.AttrR: 10.0, scene.AttrFill: "red"},
	}}
	file.Publish(frame)
	file.Publish(frameWithWorkers(2, 0))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") || strings.Contains(string(data), "red") {
		t.Fatalf("expected the latest, empty map, got %s", data)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no temporary files left, got %d entries", len(entries))
	}
}

func TestSVGFileNeedsDirectory(t *testing.T) {
	if _, err := NewSVGFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := NewSVGFile(filepath.Join(t.TempDir(), "missing", "map.svg")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
