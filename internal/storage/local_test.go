package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdfHeader = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
)

func TestLocalStore_Save(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		content []byte
		wantErr error
		wantExt string
	}{
		{name: "pdf cv", kind: KindCV, content: pdfHeader, wantExt: ".pdf"},
		{name: "png logo", kind: KindLogo, content: pngHeader, wantExt: ".png"},
		{name: "svg logo", kind: KindLogo, content: []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`), wantExt: ".svg"},
		{name: "png is not a cv", kind: KindCV, content: pngHeader, wantErr: ErrUnsupportedType},
		{name: "pdf is not a logo", kind: KindLogo, content: pdfHeader, wantErr: ErrUnsupportedType},
		{name: "plain text", kind: KindCV, content: []byte("just some text"), wantErr: ErrUnsupportedType},
		{name: "empty", kind: KindCV, content: nil, wantErr: ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewLocalStore(dir, 1<<20)
			require.NoError(t, err)

			url, err := store.Save(context.Background(), tt.kind, bytes.NewReader(tt.content))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				entries, _ := os.ReadDir(dir)
				assert.Empty(t, entries)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(url, URLPrefix+"/"), url)
			assert.Equal(t, tt.wantExt, filepath.Ext(url))

			stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
			require.NoError(t, err)
			assert.Equal(t, tt.content, stored)
		})
	}
}

func TestLocalStore_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, int64(len(pdfHeader)))
	require.NoError(t, err)

	_, err = store.Save(context.Background(), KindCV, bytes.NewReader(pdfHeader))
	require.NoError(t, err)

	oversized := append(append([]byte{}, pdfHeader...), ' ')
	_, err = store.Save(context.Background(), KindCV, bytes.NewReader(oversized))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "nested"), 1<<20)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), KindLogo, bytes.NewReader(pngHeader))
	require.NoError(t, err)

	require.NoError(t, store.Delete(url))
	_, err = os.Stat(filepath.Join(store.Dir(), filepath.Base(url)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(url))
	assert.NoError(t, store.Delete("/elsewhere/file.png"))
	assert.NoError(t, store.Delete(URLPrefix+"/../secret"))
}
