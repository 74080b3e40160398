package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKindForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Kind
	}{
		{".mkv", KindVideo},
		{"MP4", KindVideo},
		{"flac", KindAudio},
		{".PNG", KindImage},
		{".srt", KindSubtitle},
		{".pdf", KindDocument},
		{".7z", KindArchive},
		{".bin", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		if got := KindForExtension(tt.ext); got != tt.want {
			t.Errorf("KindForExtension(%q) = %s, want %s", tt.ext, got, tt.want)
		}
	}
}

func TestParseKindRoundTripsNames(t *testing.T) {
	for _, kind := range Kinds {
		parsed, err := ParseKind(kind.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) returned error: %v", kind, err)
		}
		if parsed != kind {
			t.Fatalf("ParseKind(%q) = %s", kind, parsed)
		}
	}
	if _, err := ParseKind("hologram"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDetectSniffsUnknownExtensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "download.bin")
	pdf := []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if got := Detect(path); got != KindDocument {
		t.Fatalf("expected document, got %s", got)
	}
	if got := Detect(filepath.Join(dir, "missing.bin")); got != KindUnknown {
		t.Fatalf("expected unknown for missing file, got %s", got)
	}
}

func TestKindForMIME(t *testing.T) {
	if KindForMIME("video/x-matroska") != KindVideo {
		t.Fatal("expected matroska to be video")
	}
	if KindForMIME("text/vtt; charset=utf-8") != KindSubtitle {
		t.Fatal("expected vtt to be subtitle")
	}
	if KindForMIME("application/vnd.openxmlformats-officedocument.wordprocessingml.document") != KindDocument {
		t.Fatal("expected docx to be document")
	}
	if KindForMIME("application/octet-stream") != KindUnknown {
		t.Fatal("expected octet-stream to be unknown")
	}
}
