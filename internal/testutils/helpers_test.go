package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTempProject(t *testing.T) {
	root := CreateTempProject(t, map[string]string{
		"components/button/button.html": "<button></button>",
		"pages/index.html":              "<p>home</p>",
	})

	data, err := os.ReadFile(filepath.Join(root, "components", "button", "button.html"))
	require.NoError(t, err)
	assert.Equal(t, "<button></button>", string(data))
	assert.FileExists(t, filepath.Join(root, "pages", "index.html"))
}

func TestReadDocument(t *testing.T) {
	root := CreateTempProject(t, map[string]string{
		"index.html": `<main><button class="btn">Go</button></main>`,
	})

	doc := ReadDocument(t, filepath.Join(root, "index.html"))
	assert.Equal(t, "Go", doc.Find("main .btn").Text())
	assert.Equal(t, 2, ParseDocument(t, "<i>x</i><i>y</i>").Find("i").Length())
}

func TestWaitForFileContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.WriteFile(path, []byte("ready"), 0o644)
	}()

	WaitForFileContent(t, path, "ready", 2*time.Second)
}
