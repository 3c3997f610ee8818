package validator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-statement-normalizer/pkg/errors"
)

func TestValidate(t *testing.T) {
	v, err := New(&Config{AllowedTypes: []string{"csv", ".PDF"}, MaxFileSizeMB: 1})
	require.NoError(t, err)

	tests := []struct {
		name      string
		filename  string
		data      []byte
		wantValid bool
		wantCode  errors.ErrorCode
		warnings  int
	}{
		{"csv ok", "statement.CSV", []byte("Date,Amount\n"), true, "", 0},
		{"pdf ok", "statement.pdf", []byte("%PDF-1.7\n..."), true, "", 0},
		{"pdf without header", "statement.pdf", []byte("hello"), true, "", 1},
		{"disallowed type", "statement.xlsx", []byte("PK"), false, errors.CodeUnsupportedFormat, 0},
		{"no extension", "statement", []byte("data"), false, errors.CodeUnsupportedFormat, 0},
		{"empty", "statement.csv", nil, false, errors.CodeEmptyFile, 0},
		{"too large", "statement.csv", bytes.Repeat([]byte("a"), 1024*1024+1), false, errors.CodeFileTooLarge, 0},
		{"near limit", "statement.csv", bytes.Repeat([]byte("a"), 1024*1024-10), true, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := v.Validate(tt.data, tt.filename)
			assert.Equal(t, tt.wantValid, r.Valid)
			assert.Equal(t, int64(len(tt.data)), r.FileSize)
			assert.Len(t, r.Warnings, tt.warnings)
			if tt.wantValid {
				assert.NoError(t, r.Err())
				assert.Empty(t, r.Errors)
				return
			}
			require.Error(t, r.Err())
			assert.True(t, errors.HasCode(r.Err(), tt.wantCode), "got %v", r.Err())
		})
	}
}

func TestValidateReportsEveryFailure(t *testing.T) {
	v, err := New(nil)
	require.NoError(t, err)

	r := v.Validate(nil, "notes.txt")
	assert.False(t, r.Valid)
	assert.Equal(t, "txt", r.FileType)
	require.Len(t, r.Errors, 2)
	assert.Equal(t, errors.CodeUnsupportedFormat, r.Errors[0].Code)
	assert.Equal(t, errors.CodeEmptyFile, r.Errors[1].Code)
	assert.True(t, errors.HasCode(r.Err(), errors.CodeUnsupportedFormat))
}

func TestConfigValidate(t *testing.T) {
	_, err := New(&Config{AllowedTypes: []string{"csv"}, MaxFileSizeMB: 0})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))

	_, err = New(&Config{MaxFileSizeMB: 5})
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))

	assert.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, int64(10*1024*1024), DefaultConfig().MaxBytes())
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "xlsx", FileType("/tmp/Report.XLSX"))
	assert.Equal(t, "", FileType("README"))
}
