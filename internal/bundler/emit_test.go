package bundler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandName(t *testing.T) {
	contents := []byte(".title{color:red}")
	hash := ContentHash(contents)
	require.Len(t, hash, 16)

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"content hash", "[name]_[contenthash:8].css", "app_" + hash[:8] + ".css"},
		{"full hash", "[name].[hash].css", "app." + hash + ".css"},
		{"ext token", "[name]_[hash:4].[ext]", "app_" + hash[:4] + ".css"},
		{"oversized length", "[name]_[hash:99].css", "app_" + hash + ".css"},
		{"static", "styles.css", "styles.css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ExpandName(tt.template, "app", ".css", contents))
		})
	}
}

func TestContentHash_changesWithContent(t *testing.T) {
	require.Equal(t, ContentHash([]byte("a")), ContentHash([]byte("a")))
	require.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

func TestRenameStyles(t *testing.T) {
	arts := []*artifact{
		{name: "app.js", kind: kindScript, chunk: "app"},
		{name: "css/app.css", contents: []byte("a{}"), kind: kindStyle, chunk: "app"},
		{name: "font.css", kind: kindAsset},
	}

	renameStyles(arts, "[name]_[contenthash:8].css")

	require.Equal(t, "app.js", arts[0].name)
	require.Equal(t, "css/app_"+ContentHash([]byte("a{}"))[:8]+".css", arts[1].name)
	require.Equal(t, "font.css", arts[2].name)
}

func TestMinifyStyles(t *testing.T) {
	arts := []*artifact{
		{name: "app.css", contents: []byte(".title {\n  color: red;\n}\n"), kind: kindStyle},
		{name: "vendor.min.css.map", contents: []byte("{}")},
		{name: "skip.css", contents: []byte(".a {\n  color: red;\n}\n")},
	}

	require.NoError(t, minifyStyles(arts, `^app\.css$`))
	require.Equal(t, ".title{color:red}\n", string(arts[0].contents))
	require.Equal(t, "{}", string(arts[1].contents))
	require.Equal(t, ".a {\n  color: red;\n}\n", string(arts[2].contents))

	require.Error(t, minifyStyles(arts, `(`))
}

func TestCleanOutput(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "dist")

	files := []string{
		"app.js",
		"robots.txt",
		"img/logo.png",
		"static/keep/a.txt",
		"static/drop.txt",
	}
	for _, f := range files {
		p := filepath.Join(dist, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
	}

	removed, err := cleanOutput(dist, root, []string{"robots.txt", "static/keep"})
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	require.FileExists(t, filepath.Join(dist, "robots.txt"))
	require.FileExists(t, filepath.Join(dist, "static/keep/a.txt"))
	require.NoFileExists(t, filepath.Join(dist, "app.js"))
	require.NoFileExists(t, filepath.Join(dist, "static/drop.txt"))
	require.NoDirExists(t, filepath.Join(dist, "img"))
	require.DirExists(t, dist)
}

func TestCleanOutput_missingDir(t *testing.T) {
	root := t.TempDir()
	removed, err := cleanOutput(filepath.Join(root, "dist"), root, nil)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestCleanOutput_refusesProjectRoot(t *testing.T) {
	root := t.TempDir()

	_, err := cleanOutput(root, root, nil)
	require.ErrorContains(t, err, "refusing to clean")

	_, err = cleanOutput(filepath.Dir(root), root, nil)
	require.ErrorContains(t, err, "refusing to clean")
}

func TestKept(t *testing.T) {
	tests := []struct {
		rel  string
		keep []string
		want bool
	}{
		{"robots.txt", []string{"robots.txt"}, true},
		{"static/robots.txt", []string{"robots.txt"}, true},
		{"static/robots.txt", []string{"static/*.txt"}, true},
		{"img/logo.png", []string{"static/*"}, false},
		{"app.js", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			require.Equal(t, tt.want, kept(tt.rel, tt.keep))
		})
	}
}
