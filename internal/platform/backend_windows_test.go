//go:build windows

package platform

import (
	"testing"
	"unsafe"
)

func TestWindowLongIndexSignExtends(t *testing.T) {
	if got, want := windowLongIndex(gwlStyle), ^uintptr(15); got != want {
		t.Fatalf("GWL_STYLE = %#x, want %#x", got, want)
	}
	if got, want := windowLongIndex(gwlExStyle), ^uintptr(19); got != want {
		t.Fatalf("GWL_EXSTYLE = %#x, want %#x", got, want)
	}
}

func TestWin32StructLayouts(t *testing.T) {
	if got := unsafe.Sizeof(point{}); got != 8 {
		t.Fatalf("POINT size = %d, want 8", got)
	}
	if got := unsafe.Sizeof(windowPlacement{}); got != 44 {
		t.Fatalf("WINDOWPLACEMENT size = %d, want 44", got)
	}
	if got := unsafe.Sizeof(monitorInfo{}); got != 40 {
		t.Fatalf("MONITORINFO size = %d, want 40", got)
	}
}
