// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/ndkgen/build/buildconfig"
	"go.chromium.org/infra/build/ndkgen/execute"
	"go.chromium.org/infra/build/ndkgen/execute/localexec"
	"go.chromium.org/infra/build/ndkgen/toolsupport/makeutil"
	"go.chromium.org/infra/build/ndkgen/ui"
)

func writeFile(t *testing.T, fname, content string, perm fs.FileMode) {
	t.Helper()
	err := os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(fname, []byte(content), perm)
	if err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, fname string) string {
	t.Helper()
	buf, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	return string(buf)
}

// recordingExecutor runs cmds locally and records their descriptions.
type recordingExecutor struct {
	descs []string
}

func (r *recordingExecutor) Run(ctx context.Context, cmd *execute.Cmd) error {
	r.descs = append(r.descs, cmd.Desc)
	return localexec.Run(ctx, cmd)
}

// fakeNDK sets up a fake NDK toolchain and project in a temp dir.
type fakeNDK struct {
	dir      string
	inc      string
	cc       string
	bindgen  string
	expander string
	cfg      *buildconfig.Config
}

func setupFakeNDK(t *testing.T) *fakeNDK {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	dir := t.TempDir()
	n := &fakeNDK{
		dir: dir,
		inc: filepath.Join(dir, "ndk/sysroot/usr/include"),
	}
	writeFile(t, filepath.Join(n.inc, "jni.h"), "#include <jni_md.h>\n", 0644)
	writeFile(t, filepath.Join(n.inc, "jni_md.h"), "\n", 0644)
	writeFile(t, filepath.Join(n.inc, "android/log.h"), "\n", 0644)

	n.cc = filepath.Join(dir, "ndk/bin/aarch64-linux-android-gcc")
	writeFile(t, n.cc, `#!/bin/sh
if [ "$1" = "-M" ]; then
  echo "jni.o: `+n.inc+`/jni.h \\"
  echo "  `+n.inc+`/jni_md.h"
  exit 0
fi
cat > /dev/null
cat >&2 <<EOS
Using built-in specs.
#include "..." search starts here:
#include <...> search starts here:
 `+n.inc+`
End of search list.
EOS
`, 0755)

	n.bindgen = filepath.Join(dir, "bin/bindgen")
	writeFile(t, n.bindgen, `#!/bin/sh
echo "$@" > `+filepath.Join(dir, "bindgen.args")+`
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then
    shift
    echo "// bindings" > "$1"
  fi
  shift
done
`, 0755)

	n.expander = filepath.Join(dir, "bin/expand")
	writeFile(t, n.expander, `#!/bin/sh
echo "$@" >> `+filepath.Join(dir, "expand.args")+`
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then
    shift
    echo "// expanded" > "$1"
  fi
  shift
done
`, 0755)

	n.cfg = buildconfig.Default()
	n.cfg.Headers = []string{"jni.h", "android/log.h"}
	n.cfg.SrcDir = filepath.Join(dir, "src")
	n.cfg.AndroidBaseDir = filepath.Join(dir, "app")
	n.cfg.Bindgen = []string{n.bindgen}
	n.cfg.Expander = []string{n.expander}
	return n
}

func (n *fakeNDK) options(buf *bytes.Buffer) Options {
	return Options{
		Config:   n.cfg,
		Target:   "aarch64-linux-android",
		OutDir:   filepath.Join(n.dir, "out"),
		Linker:   n.cc,
		AppID:    "com.example.hello",
		Environ:  os.Environ(),
		UI:       ui.LogUI{},
		RerunOut: buf,
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	n := setupFakeNDK(t)
	src := n.cfg.SrcDir
	writeFile(t, filepath.Join(src, "main.rs"), "mod java_glue;\n", 0644)
	writeFile(t, filepath.Join(src, "java_glue.rs.in"), "foreign_class!(class Hello {});\n", 0644)
	writeFile(t, filepath.Join(src, "sub/api.rs.in"), "foreign_class!(class Api {});\n", 0644)
	writeFile(t, filepath.Join(src, "sub/api.rs"), "// hand written\n", 0644)
	err := os.MkdirAll(filepath.Join(src, "dir.rs.in"), 0755)
	if err != nil {
		t.Fatal(err)
	}

	var rerun bytes.Buffer
	opts := n.options(&rerun)
	opts.Environ = append(opts.Environ, ExtraClangArgsEnv+"=-isystem /extra/include --sysroot=/extra/sysroot")
	opts.Depfile = filepath.Join(n.dir, "deps/bindings.d")
	ex := &recordingExecutor{}
	opts.Executor = ex
	b, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("New(ctx, opts)=_, %v; want nil err", err)
	}
	got, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Build(ctx)=_, %v; want nil err", err)
	}

	out := opts.OutDir
	want := &Result{
		IncludeDirs: []string{n.inc},
		Headers: []string{
			filepath.Join(n.inc, "jni.h"),
			filepath.Join(n.inc, "android/log.h"),
		},
		Bindings:   filepath.Join(out, "android_c_headers.rs"),
		Interfaces: []string{"java_glue.rs.in", "sub/api.rs.in"},
		Expanded: []string{
			filepath.Join(out, "java_glue.rs"),
			filepath.Join(out, "sub/api.rs"),
		},
		Stubs:        []string{filepath.Join(src, "java_glue.rs")},
		SkippedStubs: []string{filepath.Join(src, "sub/api.rs")},
		DepfileInputs: []string{
			filepath.Join(n.inc, "jni.h"),
			filepath.Join(n.inc, "jni_md.h"),
			filepath.Join(src, "java_glue.rs.in"),
			filepath.Join(src, "sub/api.rs.in"),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build(ctx) diff -want +got:\n%s", diff)
	}

	wantBindgen := strings.Join([]string{
		filepath.Join(n.inc, "jni.h"),
		"-o", filepath.Join(out, "android_c_headers.rs"),
		"--rust-target", "1.19",
		"--blocklist-type", "max_align_t",
		"--",
		"-I" + n.inc,
		"-include", filepath.Join(n.inc, "android/log.h"),
		"-isystem", "/extra/include",
		"--sysroot=/extra/sysroot",
	}, " ") + "\n"
	if got := readFile(t, filepath.Join(n.dir, "bindgen.args")); got != wantBindgen {
		t.Errorf("bindgen args=%q; want %q", got, wantBindgen)
	}
	if got, want := readFile(t, want.Bindings), "// bindings\n"; got != want {
		t.Errorf("bindings=%q; want %q", got, want)
	}

	javaDir := filepath.Join(n.dir, "app/src/main/java/com/example/hello")
	wantExpand := strings.Join([]string{
		"--java-dir", javaDir,
		"--package", "com.example.hello",
		"--null-annotation", "android.support.annotation.NonNull",
		"--input", filepath.Join(src, "java_glue.rs.in"),
		"--output", filepath.Join(out, "java_glue.rs"),
	}, " ") + "\n" + strings.Join([]string{
		"--java-dir", javaDir,
		"--package", "com.example.hello",
		"--null-annotation", "android.support.annotation.NonNull",
		"--input", filepath.Join(src, "sub/api.rs.in"),
		"--output", filepath.Join(out, "sub/api.rs"),
	}, " ") + "\n"
	if got := readFile(t, filepath.Join(n.dir, "expand.args")); got != wantExpand {
		t.Errorf("expand args=%q; want %q", got, wantExpand)
	}
	for _, fname := range want.Expanded {
		if got, want := readFile(t, fname), "// expanded\n"; got != want {
			t.Errorf("%s=%q; want %q", fname, got, want)
		}
	}

	if got, want := readFile(t, filepath.Join(src, "java_glue.rs")), "include!(concat!(env!(\"OUT_DIR\"), \"/java_glue.rs\"));\n"; got != want {
		t.Errorf("stub=%q; want %q", got, want)
	}
	if got, want := readFile(t, filepath.Join(src, "sub/api.rs")), "// hand written\n"; got != want {
		t.Errorf("existing stub=%q; want %q", got, want)
	}

	depfile := readFile(t, opts.Depfile)
	if diff := cmp.Diff(want.DepfileInputs, makeutil.ParseDeps([]byte(depfile))); diff != "" {
		t.Errorf("depfile inputs diff -want +got:\n%s", diff)
	}
	if !strings.HasPrefix(depfile, want.Bindings+":") {
		t.Errorf("depfile=%q; want target %s", depfile, want.Bindings)
	}

	wantRerun := strings.Join([]string{
		"cargo:rerun-if-changed=" + src,
		"cargo:rerun-if-changed=" + n.inc,
		"cargo:rerun-if-changed=/extra/include",
		"cargo:rerun-if-changed=/extra/sysroot",
		"cargo:rerun-if-changed=" + out,
	}, "\n") + "\n"
	if got := rerun.String(); got != wantRerun {
		t.Errorf("rerun hints=%q; want %q", got, wantRerun)
	}

	wantDescs := []string{
		"sysinclude aarch64-linux-android-gcc",
		"bindgen jni.h",
		"expand java_glue.rs.in",
		"expand sub/api.rs.in",
		"deps",
	}
	if diff := cmp.Diff(wantDescs, ex.descs); diff != "" {
		t.Errorf("executed cmds diff -want +got:\n%s", diff)
	}
}

func TestBuild_NotAndroid(t *testing.T) {
	ctx := context.Background()
	var rerun bytes.Buffer
	b, err := New(ctx, Options{
		Target:   "x86_64-unknown-linux-gnu",
		OutDir:   t.TempDir(),
		UI:       ui.LogUI{},
		RerunOut: &rerun,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Build(ctx)=_, %v; want nil err", err)
	}
	if diff := cmp.Diff(&Result{Skipped: true}, got); diff != "" {
		t.Errorf("Build(ctx) diff -want +got:\n%s", diff)
	}
	if rerun.Len() != 0 {
		t.Errorf("rerun hints=%q; want empty", rerun.String())
	}
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no-app-id", func(t *testing.T) {
		n := setupFakeNDK(t)
		writeFile(t, filepath.Join(n.cfg.SrcDir, "java_glue.rs.in"), "\n", 0644)
		var rerun bytes.Buffer
		opts := n.options(&rerun)
		opts.AppID = ""
		b, err := New(ctx, opts)
		if err != nil {
			t.Fatal(err)
		}
		_, err = b.Build(ctx)
		if !errors.Is(err, ErrNoAppID) {
			t.Errorf("Build(ctx)=_, %v; want %v", err, ErrNoAppID)
		}
	})

	t.Run("no-app-id-without-interfaces", func(t *testing.T) {
		n := setupFakeNDK(t)
		err := os.MkdirAll(n.cfg.SrcDir, 0755)
		if err != nil {
			t.Fatal(err)
		}
		var rerun bytes.Buffer
		opts := n.options(&rerun)
		opts.AppID = ""
		b, err := New(ctx, opts)
		if err != nil {
			t.Fatal(err)
		}
		_, err = b.Build(ctx)
		if err != nil {
			t.Errorf("Build(ctx)=_, %v; want nil err", err)
		}
	})

	t.Run("missing-header", func(t *testing.T) {
		n := setupFakeNDK(t)
		n.cfg.Headers = []string{"jni.h", "android/bitmap.h"}
		var rerun bytes.Buffer
		b, err := New(ctx, n.options(&rerun))
		if err != nil {
			t.Fatal(err)
		}
		_, err = b.Build(ctx)
		if !errors.Is(err, fs.ErrNotExist) || !strings.Contains(err.Error(), "android/bitmap.h") {
			t.Errorf("Build(ctx)=_, %v; want not exist error for android/bitmap.h", err)
		}
	})

	t.Run("bindgen-failure", func(t *testing.T) {
		n := setupFakeNDK(t)
		writeFile(t, n.bindgen, "#!/bin/sh\necho 'fatal: clang not found' >&2\nexit 1\n", 0755)
		var rerun bytes.Buffer
		b, err := New(ctx, n.options(&rerun))
		if err != nil {
			t.Fatal(err)
		}
		_, err = b.Build(ctx)
		if err == nil || !strings.Contains(err.Error(), "clang not found") {
			t.Errorf("Build(ctx)=_, %v; want error with stderr", err)
		}
	})

	t.Run("expand-failure", func(t *testing.T) {
		n := setupFakeNDK(t)
		writeFile(t, filepath.Join(n.cfg.SrcDir, "java_glue.rs.in"), "\n", 0644)
		writeFile(t, n.expander, "#!/bin/sh\necho 'parse error' >&2\nexit 2\n", 0755)
		var rerun bytes.Buffer
		b, err := New(ctx, n.options(&rerun))
		if err != nil {
			t.Fatal(err)
		}
		_, err = b.Build(ctx)
		if err == nil || !strings.HasPrefix(err.Error(), "Rust-SWIG expansion failed: ") {
			t.Errorf("Build(ctx)=_, %v; want expansion failure", err)
		}
		if _, err := os.Stat(filepath.Join(n.cfg.SrcDir, "java_glue.rs")); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("stub is written after expansion failure: %v", err)
		}
	})
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		opts Options
	}{
		{
			name: "no-target",
			opts: Options{OutDir: "out"},
		},
		{
			name: "no-out-dir",
			opts: Options{Target: "aarch64-linux-android"},
		},
		{
			name: "bad-config",
			opts: Options{
				Config: &buildconfig.Config{},
				Target: "aarch64-linux-android",
				OutDir: "out",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ctx, tc.opts)
			if err == nil {
				t.Errorf("New(ctx, %#v)=_, nil; want err", tc.opts)
			}
		})
	}
}

func TestGetenv(t *testing.T) {
	b := &Builder{
		environ: []string{"A=1", "B=2", "A=3", "C"},
	}
	for _, tc := range []struct {
		key, want string
	}{
		{key: "A", want: "3"},
		{key: "B", want: "2"},
		{key: "C", want: ""},
		{key: "D", want: ""},
	} {
		if got := b.getenv(tc.key); got != tc.want {
			t.Errorf("getenv(%q)=%q; want %q", tc.key, got, tc.want)
		}
	}
}
