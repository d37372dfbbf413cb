// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		cmdline string
		want    []string
	}{
		{
			cmdline: `aarch64-linux-android-gcc`,
			want:    []string{"aarch64-linux-android-gcc"},
		},
		{
			cmdline: `/opt/android-ndk/toolchains/llvm/prebuilt/linux-x86_64/bin/clang --target=aarch64-linux-android21 -fPIC`,
			want: []string{
				"/opt/android-ndk/toolchains/llvm/prebuilt/linux-x86_64/bin/clang",
				"--target=aarch64-linux-android21",
				"-fPIC",
			},
		},
		{
			cmdline: `-I/opt/ndk/sysroot/usr/include -DCR_CLANG_REVISION=\"llvmorg-13\" -isystem "/path with space/include"`,
			want: []string{
				"-I/opt/ndk/sysroot/usr/include",
				`-DCR_CLANG_REVISION="llvmorg-13"`,
				"-isystem",
				"/path with space/include",
			},
		},
		{
			cmdline: `clang -MF 'obj/arch=armv8.2-a+i8mm/neon.o'.d -c neon.c`,
			want: []string{
				"clang",
				"-MF",
				"obj/arch=armv8.2-a+i8mm/neon.o.d",
				"-c",
				"neon.c",
			},
		},
		{
			cmdline: `/bin/bash -c ""`,
			want: []string{
				"/bin/bash",
				"-c",
				"",
			},
		},
		{
			cmdline: ` /bin/bash  -c  ""  `,
			want: []string{
				"/bin/bash",
				"-c",
				"",
			},
		},
		{
			cmdline: `/bin/bash -c "(rm -f out/fname ) && (cp \"frameworks/fname\" \"out/fname\" )"`,
			want: []string{
				"/bin/bash",
				"-c",
				`(rm -f out/fname ) && (cp "frameworks/fname" "out/fname" )`,
			},
		},
		{
			cmdline: `--target=aarch64-linux-android21 -I/opt/include`,
			want: []string{
				"--target=aarch64-linux-android21",
				"-I/opt/include",
			},
		},
		{
			cmdline: "",
			want:    nil,
		},
	} {
		args, err := Split(tc.cmdline)
		if err != nil {
			t.Errorf("Split(%q)=%q, %v; want nil error", tc.cmdline, args, err)
		}
		if diff := cmp.Diff(tc.want, args); diff != "" {
			t.Errorf("Split(%q); diff -want +got:\n%s", tc.cmdline, diff)
		}
	}
}

func TestSplit_Error(t *testing.T) {
	for _, cmdline := range []string{
		`ln -f ../../client/report_env.sh report_env.sh 2>/dev/null || (rm -rf report_env.sh && cp -af ../../client/report_env.sh report_env.sh)`,
		`/bin/bash -c "`,
		`/bin/bash -c "(rm -out/fname ) && (cp \`,
		`cp foo bar\`,
		`CC=clang make`,
		`clang -I$NDK/include`,
		`clang 'unterminated`,
	} {
		args, err := Split(cmdline)
		if err == nil {
			t.Errorf("Split(%q)=%q, %v; want err", cmdline, args, err)
		}
	}
}

func TestJoin(t *testing.T) {
	for _, args := range [][]string{
		{"bindgen", "jni.h", "-o", "out/android_c_headers.rs"},
		{"clang", "-I/path with space/include", "-DNAME=\"v\"", ""},
		{"echo", "it's"},
	} {
		cmdline := Join(args)
		got, err := Split(cmdline)
		if err != nil {
			t.Errorf("Split(Join(%q)=%q)=%q, %v; want nil err", args, cmdline, got, err)
			continue
		}
		if diff := cmp.Diff(args, got); diff != "" {
			t.Errorf("Split(Join(%q)=%q) diff -want +got:\n%s", args, cmdline, diff)
		}
	}
}
