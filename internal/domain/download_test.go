package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadRecord_Validate(t *testing.T) {
	assert.ErrorIs(t, (&DownloadRecord{}).Validate(), ErrURLRequired)
	assert.ErrorIs(t, (&DownloadRecord{URL: "   "}).Validate(), ErrURLRequired)
	assert.NoError(t, (&DownloadRecord{URL: "https://youtu.be/abc"}).Validate())

	var nilRecord *DownloadRecord
	assert.ErrorIs(t, nilRecord.Validate(), ErrURLRequired)
}

func TestDownloadRecord_ApplyDefaults(t *testing.T) {
	record := &DownloadRecord{URL: "https://youtu.be/abc"}

	record.ApplyDefaults()

	assert.Equal(t, NotAvailable, record.Title)
	assert.Equal(t, NotAvailable, record.Resolution)
	assert.Equal(t, NotAvailable, record.Uploader)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Nil(t, record.FileSize)
	assert.Nil(t, record.Duration)
}

func TestDownloadRecord_ApplyDefaultsKeepsValues(t *testing.T) {
	record := &DownloadRecord{URL: "u", Title: "t", Resolution: "720p", Status: StatusError}

	record.ApplyDefaults()

	assert.Equal(t, "t", record.Title)
	assert.Equal(t, "720p", record.Resolution)
	assert.Equal(t, StatusError, record.Status)
}

func TestNormalizeResolution(t *testing.T) {
	assert.Equal(t, AudioResolution, NormalizeResolution("Audio"))
	assert.Equal(t, AudioResolution, NormalizeResolution(" audio "))
	assert.Equal(t, "720p", NormalizeResolution("720p"))
	assert.Equal(t, AudioResolution, NormalizeResolution(AudioResolution))
}

func TestDownloadRecord_IsAudio(t *testing.T) {
	assert.True(t, (&DownloadRecord{Resolution: AudioResolution}).IsAudio())
	assert.False(t, (&DownloadRecord{Resolution: "1080p"}).IsAudio())
}

func TestValidateStatus(t *testing.T) {
	assert.True(t, ValidateStatus(StatusCompleted))
	assert.True(t, ValidateStatus(StatusError))
	assert.True(t, ValidateStatus(StatusDownloading))
	assert.False(t, ValidateStatus("queued"))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrInvalidPage))
	assert.True(t, IsValidation(ErrURLRequired))
	assert.False(t, IsValidation(ErrNotFound))
}
