package tools

import "testing"

// TestFormatCommandJoinsNameAndArgs checks log rendering of invocations.
func TestFormatCommandJoinsNameAndArgs(t *testing.T) {
	got := FormatCommand(Command{Name: "ffmpeg", Args: []string{"-i", "in.wav", "out.flac"}})
	want := "ffmpeg -i in.wav out.flac"
	if got != want {
		t.Fatalf("FormatCommand = %q, want %q", got, want)
	}
}

// TestFormatCommandWithoutArgs checks bare command rendering.
func TestFormatCommandWithoutArgs(t *testing.T) {
	if got := FormatCommand(Command{Name: "ffprobe"}); got != "ffprobe" {
		t.Fatalf("FormatCommand = %q, want %q", got, "ffprobe")
	}
}

// TestStderrTailKeepsLastLines checks truncation to the trailing lines.
func TestStderrTailKeepsLastLines(t *testing.T) {
	in := "line one\nline two\n  line three  \n"
	got := StderrTail(in, 2)
	want := "line two | line three"
	if got != want {
		t.Fatalf("StderrTail = %q, want %q", got, want)
	}
}

// TestStderrTailEmptyInput checks empty stderr yields empty string.
func TestStderrTailEmptyInput(t *testing.T) {
	if got := StderrTail("  \n ", 3); got != "" {
		t.Fatalf("StderrTail = %q, want empty", got)
	}
}

// TestStderrTailUnlimited checks maxLines zero keeps all lines.
func TestStderrTailUnlimited(t *testing.T) {
	got := StderrTail("a\nb\nc", 0)
	want := "a | b | c"
	if got != want {
		t.Fatalf("StderrTail = %q, want %q", got, want)
	}
}
