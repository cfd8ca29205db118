package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-acoustics/sensor/audio"
)

const boxOBJ = `# 4 x 3 x 5 m room
v -2 -1.5 -2.5
v 2 -1.5 -2.5
v 2 1.5 -2.5
v -2 1.5 -2.5
v -2 -1.5 2.5
v 2 -1.5 2.5
v 2 1.5 2.5
v -2 1.5 2.5
g walls
usemtl concrete
f 1 2 3 4
f 5 8 7 6
f 1 5 6 2
f 4 3 7 8
g floor
usemtl carpet
f 1 4 8 5
f 2 6 7 3
`

const materialsJSON = `{"materials": [
	{"name": "concrete", "absorption": [0.02, 0.03, 0.04, 0.05]},
	{"name": "carpet", "absorption": [0.1, 0.3, 0.5, 0.6]}
]}`

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeRun(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"room.obj":       boxOBJ,
		"materials.json": materialsJSON,
		"run.yaml": `
scene: room.obj
materials: materials.json
enable_materials: true
source: [1, 0, 0]
acoustics:
  sample_rate: 8000
  max_ir_length: 0.25
  indirect_ray_count: 200
  indirect_ray_depth: 8
logging:
  level: error
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, filepath.Join(dir, "run.yaml")
}

func TestNewRootCmd(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"version": false, "validate": false, "simulate": false, "analyze": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q missing", name)
		}
	}
}

func TestVersionCmdJSON(t *testing.T) {
	out, err := runCmd(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got["version"] != version {
		t.Errorf("version = %v, want %v", got["version"], version)
	}
}

func TestValidateCmd(t *testing.T) {
	_, cfgPath := writeRun(t)
	out, err := runCmd(t, "validate", "--config", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2 channels x 2000 samples at 8000 Hz") {
		t.Errorf("unexpected output %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("layout: mono\nchannels: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, "validate", "--config", bad); err == nil {
		t.Error("expected validation error")
	}
}

func TestSimulateAndAnalyze(t *testing.T) {
	if !audio.Enabled {
		t.Skip("built without a propagation engine")
	}
	dir, cfgPath := writeRun(t)
	wav := filepath.Join(dir, "ir.wav")
	obj := filepath.Join(dir, "scene.obj")
	plot := filepath.Join(dir, "ir.webp")

	out, err := runCmd(t, "simulate", "--config", cfgPath, "--json",
		"--wav", wav, "--obj", obj, "--plot", plot, "--plot-width", "128", "--plot-height", "64")
	if err != nil {
		t.Fatal(err)
	}

	var r report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if r.SampleRate != 8000 || r.Samples != 2000 || len(r.Channels) != 2 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.SourceVisible == nil || !*r.SourceVisible {
		t.Error("source should be visible inside the room")
	}
	if r.RayEfficiency == nil || *r.RayEfficiency <= 0 || *r.RayEfficiency > 1 {
		t.Errorf("ray efficiency = %v", r.RayEfficiency)
	}
	for _, c := range r.Channels {
		if c.Silent {
			t.Errorf("channel %d is silent", c.Channel)
		}
		// direct sound over 1 m arrives after about 2.9 ms
		if c.Onset > 0.004 {
			t.Errorf("channel %d onset = %v s", c.Channel, c.Onset)
		}
	}
	for _, p := range []string{wav, obj, plot} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("export missing: %v", err)
		}
	}

	text, err := runCmd(t, "analyze", wav)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "2000 samples at 8000 Hz") || !strings.Contains(text, "ch1:") {
		t.Errorf("unexpected analyze output %q", text)
	}
}

func TestSimulateMissingScene(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(cfgPath, []byte("scene: nowhere.obj\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, "simulate", "--config", cfgPath); err == nil {
		t.Error("expected error for missing scene")
	}
}

func TestAnalyzeRequiresFile(t *testing.T) {
	if _, err := runCmd(t, "analyze"); err == nil {
		t.Error("expected argument error")
	}
	if _, err := runCmd(t, "analyze", filepath.Join(t.TempDir(), "none.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
