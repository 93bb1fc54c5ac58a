package importcmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"fjacquet/fintrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeFailWriter struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (w *closeFailWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestWritePreview_ReportsCloseError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	w := &closeFailWriter{closeErr: diskFull}

	err := writePreview(w, []models.CandidateTransaction{{RowNumber: 2, IsValid: true}})
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "error closing output file")
	assert.True(t, w.closed)
	assert.Contains(t, w.String(), "Row,Date,Description")
}

func TestWritePreview_ClosesOnSuccess(t *testing.T) {
	w := &closeFailWriter{}

	require.NoError(t, writePreview(w, nil))
	assert.True(t, w.closed)
}

func TestWritePreviewFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "preview.csv")
	err := WritePreviewFile(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating output file")
}
