package catalog

import "testing"

func TestChecksumFilesIsOrderIndependent(t *testing.T) {
	a := map[string][]byte{
		"b.json": []byte(`{"b":1}`),
		"a.json": []byte(`{"a":1}`),
	}
	b := map[string][]byte{
		"a.json": []byte(`{"a":1}`),
		"b.json": []byte(`{"b":1}`),
	}
	if checksumFiles(a) != checksumFiles(b) {
		t.Fatal("checksum must not depend on map iteration order")
	}
}

func TestChecksumFilesDetectsContentChange(t *testing.T) {
	base := map[string][]byte{"a.json": []byte(`{"a":1}`)}
	changed := map[string][]byte{"a.json": []byte(`{"a":2}`)}
	if checksumFiles(base) == checksumFiles(changed) {
		t.Fatal("checksum must change when file content changes")
	}
}

func TestChecksumFilesSeparatesPathFromContent(t *testing.T) {
	// Without a separator, "ab" + "" and "a" + "b" would collide.
	first := map[string][]byte{"ab": []byte("")}
	second := map[string][]byte{"a": []byte("b")}
	if checksumFiles(first) == checksumFiles(second) {
		t.Fatal("checksum must not collide across a path/content boundary shift")
	}
}
