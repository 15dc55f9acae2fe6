package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	centerFlag, radiusFlag, outPath = "", 0, ""
	surfaceKind, surfaceSize, surfaceRes = "", 100, mesh.DefaultMeshCells
	snapshotPath, snapshotWidth, snapshotHeight = "", 640, 480
	sphereCenter, sphereRadius, sphereOut = "", 0, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		in      string
		want    math3d.Vec3
		wantErr bool
	}{
		{"1,2,3", math3d.V3(1, 2, 3), false},
		{" -1.5, 0 ,2e2", math3d.V3(-1.5, 0, 200), false},
		{"1,2", math3d.Vec3{}, true},
		{"1,2,x", math3d.Vec3{}, true},
		{"1,NaN,3", math3d.Vec3{}, true},
		{"", math3d.Vec3{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseVec3(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseVec3(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("parseVec3(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPrintFrame(t *testing.T) {
	var buf bytes.Buffer
	printFrame(&buf, math3d.Translate(math3d.V3(1, 2, 3)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if f := strings.Fields(lines[2]); f[2] != "1.000000" || f[3] != "3.000000" {
		t.Errorf("third row = %q", lines[2])
	}
}

func TestRunGeneratedPlane(t *testing.T) {
	out := filepath.Join(t.TempDir(), "placed.glb")
	stdout, err := execute(t, "run", "--surface", "plane", "--center", "5,-5,0", "--radius", "20", "--out", out)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, stdout)
	}
	if n := strings.Count(stdout, "\n"); n < 4 {
		t.Errorf("expected a 4x4 frame, got:\n%s", stdout)
	}

	frame, err := mesh.LoadTransform(out, "EntryFrame")
	if err != nil {
		t.Fatal(err)
	}
	if !frame.Column(1).ApproxEqual(math3d.UnitZ(), 1e-6) {
		t.Errorf("normal column = %v, want +Z", frame.Column(1))
	}
	if !frame.Translation().ApproxEqual(math3d.V3(5, -5, 0), 1e-6) {
		t.Errorf("translation = %v", frame.Translation())
	}

	scene, err := mesh.LoadGLTF(out)
	if err != nil {
		t.Fatal(err)
	}
	if scene.IsEmpty() {
		t.Error("patch and sphere missing from output")
	}
}

func TestRunModelFile(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "surface.glb")
	plane, err := mesh.Plane(math3d.Zero3(), 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	plane.Transform(math3d.RotateY(math.Pi / 2))
	if err := mesh.SaveGLTF(model, plane); err != nil {
		t.Fatal(err)
	}

	stdout, err := execute(t, "run", model, "--center", "0,0,0", "--radius", "15")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, stdout)
	}
	// Rotating +Z about Y by 90 degrees gives +X, so the normal column's
	// first row is 1.
	first := strings.Fields(strings.Split(stdout, "\n")[0])
	if len(first) != 4 || first[1] != "1.000000" {
		t.Errorf("first row = %v, want normal x = 1", first)
	}
}

func TestRunRejectsBadArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"model and surface", []string{"run", "x.glb", "--surface", "box", "--center", "0,0,0"}},
		{"no surface", []string{"run", "--center", "0,0,0"}},
		{"bad center", []string{"run", "--surface", "plane", "--center", "0,0"}},
		{"unknown surface", []string{"run", "--surface", "torus", "--center", "0,0,0"}},
		{"missing model", []string{"run", "/nonexistent/model.glb", "--center", "0,0,0"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := execute(t, tc.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSphereCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "roi.glb")
	if stdout, err := execute(t, "sphere", "--center", "1,2,3", "--radius", "10", "--out", out); err != nil {
		t.Fatalf("sphere failed: %v\n%s", err, stdout)
	}

	m, err := mesh.LoadGLTF(out)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.VertexCount(), 2+20*18; got != want {
		t.Errorf("sphere has %d points, want %d", got, want)
	}
	if got := m.Size(); math.Abs(got.Z-20) > 1e-4 {
		t.Errorf("sphere height = %v, want 20", got.Z)
	}
}

func TestPreviewSnapshot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "view.png")
	stdout, err := execute(t, "preview", "--surface", "sphere", "--surface-size", "80",
		"--surface-cells", "24", "--center", "0,0,40", "--radius", "15",
		"--snapshot", out, "--width", "160", "--height", "120")
	if err != nil {
		t.Fatalf("preview failed: %v\n%s", err, stdout)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty snapshot")
	}
}

func TestOrbitSpring(t *testing.T) {
	o := newOrbit(60, 0, 6, 1)
	o.nudge(1, 10) // pitch target clamps
	var yaw, pitch float64
	for range 600 {
		yaw, pitch, _ = o.step(1.0 / 60)
	}
	if math.Abs(yaw-1) > 1e-3 {
		t.Errorf("yaw = %v, want 1", yaw)
	}
	if math.Abs(pitch-1.5) > 1e-3 {
		t.Errorf("pitch = %v, want 1.5", pitch)
	}

	o.scaleZoom(1000)
	if _, _, zoom := o.step(0); zoom != 10 {
		t.Errorf("zoom = %v, want clamp at 10", zoom)
	}
}
