package file

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeList(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		want     []string
	}{
		{
			name: "comments and blanks dropped",
			contents: "# snapshot mirrors\nhttps://example.com/a.json.gz\n\n" +
				"   # indented comment\nhttps://example.org/b.json.gz\n",
			want: []string{
				"https://example.com/a.json.gz",
				"https://example.org/b.json.gz",
			},
		},
		{
			name:     "whitespace trimmed, order kept",
			contents: "  https://example.net/z  \nhttps://example.net/a\n",
			want:     []string{"https://example.net/z", "https://example.net/a"},
		},
		{
			name:     "crlf line endings",
			contents: "https://example.com/one\r\nhttps://example.com/two\r\n",
			want:     []string{"https://example.com/one", "https://example.com/two"},
		},
		{
			name:     "empty file",
			contents: "",
			want:     nil,
		},
		{
			name:     "only comments",
			contents: "# a\n# b\n",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ReadList(writeList(t, tt.contents))
			if err != nil {
				t.Fatalf("ReadList error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ReadList = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestReadListMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadList(filepath.Join(t.TempDir(), "absent.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadList error = %v, want os.ErrNotExist", err)
	}
}
