package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	err := NewError(KindIO, "append", fs.ErrPermission)
	assert.Equal(t, KindIO, KindOf(err))

	wrapped := fmt.Errorf("publish: %w", err)
	assert.Equal(t, KindIO, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, fs.ErrPermission)
}

func TestError_Message(t *testing.T) {
	err := NewError(KindCorrupt, "fetch recent", errors.New("unexpected end of JSON input"))
	assert.Equal(t, "fetch recent: corrupt error: unexpected end of JSON input", err.Error())
}
