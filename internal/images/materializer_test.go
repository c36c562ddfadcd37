package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUploader struct {
	path        string
	data        []byte
	contentType string
}

func (u *memUploader) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	u.path, u.data, u.contentType = path, data, contentType
	return "https://cdn.test/" + path, nil
}

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestIsDataURI(t *testing.T) {
	assert.True(t, IsDataURI("data:image/png;base64,AAAA"))
	assert.True(t, IsDataURI("data:image/JPEG;base64,AAAA"))
	assert.False(t, IsDataURI("https://cdn.test/a.png"))
	assert.False(t, IsDataURI("data:text/plain;base64,AAAA"))
	assert.False(t, IsDataURI("data:image/svg+xml;base64,AAAA"))
	assert.False(t, IsDataURI(" data:image/png;base64,AAAA"))
}

func TestDecodeDataURI(t *testing.T) {
	d, err := DecodeDataURI("data:image/jpeg;base64,aGVs\nbG8=")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", d.Subtype)
	assert.Equal(t, "jpg", d.Ext())
	assert.Equal(t, "image/jpeg", d.ContentType())
	assert.Equal(t, []byte("hello"), d.Data)

	d, err = DecodeDataURI("data:image/png;base64,aGVsbG8")
	require.NoError(t, err, "missing padding")
	assert.Equal(t, []byte("hello"), d.Data)

	_, err = DecodeDataURI("data:image/png;base64,")
	assert.Error(t, err)
	_, err = DecodeDataURI("data:image/png;base64,!!")
	assert.Error(t, err)
	_, err = DecodeDataURI("https://cdn.test/a.png")
	assert.Error(t, err)
}

func TestResolvePlainReference(t *testing.T) {
	up := &memUploader{}
	m := NewMaterializer(up, Config{}, nil)

	url, uploaded, err := m.Resolve(context.Background(), uuid.New(), "https://cdn.test/a.png")
	require.NoError(t, err)
	assert.False(t, uploaded)
	assert.Equal(t, "https://cdn.test/a.png", url)
	assert.Empty(t, up.path)
}

func TestResolveDownsizes(t *testing.T) {
	up := &memUploader{}
	m := NewMaterializer(up, Config{MaxPx: 50}, nil)
	id := uuid.New()

	url, uploaded, err := m.Resolve(context.Background(), id, pngDataURI(t, 200, 100))
	require.NoError(t, err)
	assert.True(t, uploaded)
	assert.Equal(t, "https://cdn.test/"+up.path, url)
	assert.Regexp(t, `^`+id.String()+`/.+\.png$`, up.path)
	assert.Equal(t, "image/png", up.contentType)

	cfg, err := png.DecodeConfig(bytes.NewReader(up.data))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestResolveKeepsSmallImages(t *testing.T) {
	up := &memUploader{}
	m := NewMaterializer(up, Config{MaxPx: 500}, nil)

	ref := pngDataURI(t, 20, 10)
	_, _, err := m.Resolve(context.Background(), uuid.New(), ref)
	require.NoError(t, err)

	d, err := DecodeDataURI(ref)
	require.NoError(t, err)
	assert.Equal(t, d.Data, up.data)
}

func TestResolveStoresUndecodableAsSent(t *testing.T) {
	up := &memUploader{}
	m := NewMaterializer(up, Config{MaxPx: 50}, nil)

	_, uploaded, err := m.Resolve(context.Background(), uuid.New(), "data:image/webp;base64,"+base64.StdEncoding.EncodeToString([]byte("webp-bytes")))
	require.NoError(t, err)
	assert.True(t, uploaded)
	assert.Equal(t, []byte("webp-bytes"), up.data)
	assert.Contains(t, up.path, ".webp")
}
