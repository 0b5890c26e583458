package format

import "testing"

func TestParseEmpty(t *testing.T) {
	f, err := Parse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len != 0 || f.NumArgs != 0 {
		t.Fatalf("expected zero length/arity, got len=%d args=%d", f.Len, f.NumArgs)
	}
}

func TestParseScalarWidths(t *testing.T) {
	f, err := Parse("1627384 9")
	if err == nil {
		t.Fatalf("expected error for stray space token")
	}
	f, err = Parse("16273849")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 + 1 + 2 + 2 + 4 + 4 + 8 + 8
	if f.Len != want {
		t.Fatalf("len = %d, want %d", f.Len, want)
	}
	if f.NumArgs != 8 {
		t.Fatalf("numargs = %d, want 8", f.NumArgs)
	}
}

func TestParseFixedBlock(t *testing.T) {
	f, err := Parse("s8.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len != 8 || f.NumArgs != 1 {
		t.Fatalf("got len=%d args=%d", f.Len, f.NumArgs)
	}
	if f.Fields[0].Kind != Bin || f.Fields[0].Len != 8 {
		t.Fatalf("unexpected field: %+v", f.Fields[0])
	}
}

func TestParseMixed(t *testing.T) {
	f, err := Parse("3s4.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len != 4+4+1 {
		t.Fatalf("len = %d", f.Len)
	}
	if f.NumArgs != 3 {
		t.Fatalf("numargs = %d", f.NumArgs)
	}
}

func TestParseMissingTerminator(t *testing.T) {
	if _, err := Parse("s8"); err == nil {
		t.Fatalf("expected error for missing '.'")
	}
}

func TestParseUnknownToken(t *testing.T) {
	if _, err := Parse("z"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
}

func TestParseNestedBuffer(t *testing.T) {
	f, err := Parse("b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len != 8 || f.Fields[0].Kind != Buf {
		t.Fatalf("unexpected field: %+v", f.Fields[0])
	}
}
