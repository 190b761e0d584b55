package model

import "testing"

func TestAttachmentTypeForName(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"photo.jpg", AttachmentTypeImage},
		{"PHOTO.PNG", AttachmentTypeImage},
		{"song.mp3", AttachmentTypeAudio},
		{"voice.m4a", AttachmentTypeAudio},
		{"report.pdf", AttachmentTypeFile},
		{"noextension", AttachmentTypeFile},
	}
	for _, tc := range cases {
		if got := AttachmentTypeForName(tc.name); got != tc.want {
			t.Fatalf("%s classified as %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestMimeTypeForName(t *testing.T) {
	if got := MimeTypeForName("photo.JPG"); got != "image/jpeg" {
		t.Fatal("wrong mime type for jpeg:", got)
	}
	// Unknown extensions fall back to the wildcard type
	if got := MimeTypeForName("blob.qnx"); got != "*/*" {
		t.Fatal("expected wildcard fallback, got:", got)
	}
	if got := MimeTypeForName("noextension"); got != "*/*" {
		t.Fatal("expected wildcard fallback, got:", got)
	}
}

func TestAttachmentDisplaySize(t *testing.T) {
	a := Attachment{SizeBytes: 512}
	if a.DisplaySize() != "512 B" {
		t.Fatal("wrong byte formatting:", a.DisplaySize())
	}
	a.SizeBytes = 2048
	if a.DisplaySize() != "2.0 KB" {
		t.Fatal("wrong kilobyte formatting:", a.DisplaySize())
	}
}
