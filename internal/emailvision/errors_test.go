package emailvision

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Rendering(t *testing.T) {
	assert.Equal(t, "emailvision: connection already open", NewError(KindInternal, "connection already open", "").Error())
	assert.Equal(t, "emailvision: 404 Not Found for url: x (404)", NewError(KindHTTPStatus, "404 Not Found for url: x", "404").Error())
}

func TestError_Number(t *testing.T) {
	n, ok := NewError(KindHTTPStatus, "bad", "503").Number()
	assert.True(t, ok)
	assert.Equal(t, 503, n)

	e := NewError(KindProtocol, "bad", "CHECK_CREDENTIALS")
	_, ok = e.Number()
	assert.False(t, ok)
	assert.Equal(t, "CHECK_CREDENTIALS", e.Code)

	_, ok = NewError(KindProtocol, "bad", "").Number()
	assert.False(t, ok)
}

func TestIsKind(t *testing.T) {
	inner := NewError(KindParse, "parse failure: EOF", "")
	wrapped := fmt.Errorf("opening session: %w", inner)

	assert.True(t, IsKind(wrapped, KindParse))
	assert.False(t, IsKind(wrapped, KindTransport))
	assert.False(t, IsKind(errors.New("plain"), KindParse))
	assert.False(t, IsKind(nil, KindParse))

	combined := combineErrors(NewError(KindProtocol, "close", ""), inner)
	assert.True(t, IsKind(combined, KindCombined))
	assert.True(t, IsKind(combined, KindProtocol))
	assert.True(t, IsKind(combined, KindParse))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "http status", KindHTTPStatus.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
