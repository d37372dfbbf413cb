// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package makeutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDeps(t *testing.T) {
	for _, tc := range []struct {
		name     string
		depsfile []byte
		want     []string
	}{
		{
			name:     "simple",
			depsfile: []byte("foo.o:\tbar baz qux"),
			want: []string{
				"bar",
				"baz",
				"qux",
			},
		},
		{
			name:     "spaceinname",
			depsfile: []byte(`foo\ bar.o: baz\ qux`),
			want: []string{
				"baz qux",
			},
		},
		{
			name:     "newlinewhitespaces",
			depsfile: []byte("foo.o :\tbar\\\n\tbaz\\\r\n  qux"),
			want: []string{
				"bar",
				"baz",
				"qux",
			},
		},
		{
			name:     "backslashes",
			depsfile: []byte("foo\\bar.o: baz\\qux\\\n  quux\\corge"),
			want: []string{
				`baz\qux`,
				`quux\corge`,
			},
		},
		{
			name: "rust-multi",
			depsfile: []byte(`clang_x64_for_rust_host_build_tools/obj/third_party/rust/unicode_ident/v1/lib/libunicode_ident-unicode_ident-1.rlib: ../../third_party/rust/unicode_ident/v1/crate/src/lib.rs ../../third_party/rust/unicode_ident/v1/crate/src/tables.rs

../../third_party/rust/unicode_ident/v1/crate/src/lib.rs:
../../third_party/rust/unicode_ident/v1/crate/src/tables.rs:
`),
			want: []string{
				"../../third_party/rust/unicode_ident/v1/crate/src/lib.rs",
				"../../third_party/rust/unicode_ident/v1/crate/src/tables.rs",
			},
		},
		{
			name:     "windows-drive",
			depsfile: []byte(`C:\out\android_c_headers.rs: C:\ndk\sysroot\usr\include\jni.h`),
			want: []string{
				`C:\ndk\sysroot\usr\include\jni.h`,
			},
		},
		{
			name:     "dollar",
			depsfile: []byte("out.rs: src/$$lib.rs.in src/a\\#b.rs.in"),
			want: []string{
				"src/$lib.rs.in",
				"src/a#b.rs.in",
			},
		},
		{
			name:     "escaped-backslashes",
			depsfile: []byte(`out.rs: C:\src\\\#gen\api.rs.in /tmp/dir\\\ x/a.h /tmp/end\\ next`),
			want: []string{
				`C:\src\#gen\api.rs.in`,
				`/tmp/dir\ x/a.h`,
				`/tmp/end\`,
				"next",
			},
		},
		{
			name:     "escaped-tab",
			depsfile: []byte("out.rs: /tmp/a\\\tb.h /tmp/c.h"),
			want: []string{
				"/tmp/a\tb.h",
				"/tmp/c.h",
			},
		},
		{
			name:     "escaped-backslash-newline",
			depsfile: []byte("out.rs: C:\\dir\\\\\nother.o: x.h\n"),
			want: []string{
				`C:\dir\`,
			},
		},
		{
			name:     "no-colon",
			depsfile: []byte("foo.o"),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDeps(tc.depsfile)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseDeps(%q) -want +got:\n%s", tc.depsfile, diff)
			}
		})
	}
}

func TestFormatDeps(t *testing.T) {
	for _, tc := range []struct {
		name   string
		inputs []string
		want   string
	}{
		{
			name: "plain",
			inputs: []string{
				"/opt/ndk/sysroot/usr/include/jni.h",
				"/opt/ndk/sysroot/usr/include/stdint.h",
			},
			want: "out.rs: \\\n  /opt/ndk/sysroot/usr/include/jni.h \\\n  /opt/ndk/sysroot/usr/include/stdint.h\n",
		},
		{
			name: "specials",
			inputs: []string{
				"src/my lib/glue.rs.in",
				"src/$weird#name.rs.in",
				"/tmp/a\tb.h",
			},
			want: "out.rs: \\\n  src/my\\ lib/glue.rs.in \\\n  src/$$weird\\#name.rs.in \\\n  /tmp/a\\\tb.h\n",
		},
		{
			name: "backslashes",
			inputs: []string{
				`C:\src\#gen\api.rs.in`,
				`/tmp/dir\ x/a.h`,
				`C:\ndk\include\`,
				`C:\ndk\include\jni.h`,
			},
			want: "out.rs: \\\n  C:\\src\\\\\\#gen\\api.rs.in \\\n  /tmp/dir\\\\\\ x/a.h \\\n  C:\\ndk\\include\\\\ \\\n  C:\\ndk\\include\\jni.h\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := FormatDeps("out.rs", tc.inputs)
			if got := string(b); got != tc.want {
				t.Errorf("FormatDeps(out.rs, %q)=%q; want %q", tc.inputs, got, tc.want)
			}
			got := ParseDeps(b)
			if diff := cmp.Diff(tc.inputs, got); diff != "" {
				t.Errorf("ParseDeps(FormatDeps(out.rs, %q)) -want +got:\n%s\ndepfile:\n%s", tc.inputs, diff, b)
			}
		})
	}
}
