package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("@missing")

	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.Equal(t, "@missing", err.Component)
	assert.Contains(t, err.Error(), "@missing")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRenderError(err))
}

func TestRenderErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("template syntax")
	err := NewRenderError("@button", cause)

	assert.True(t, IsRenderError(err))
	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "@button")
	assert.Contains(t, err.Error(), "template syntax")
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("page index.html: %w", NewNotFoundError("@card"))

	assert.True(t, IsNotFound(err))

	var se *SwatchError
	require.True(t, stderrors.As(err, &se))
	assert.Equal(t, "@card", se.Component)
}

func TestWrapPreservesComponent(t *testing.T) {
	inner := NewNotFoundError("@card").WithFile("pages/index.html")
	wrapped := Wrap(inner, ErrorTypeInternal, ErrCodeInternalError, "page failed")

	assert.Equal(t, "@card", wrapped.Component)
	assert.Equal(t, "pages/index.html", wrapped.FilePath)
	assert.True(t, IsNotFound(wrapped))
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "", ""))
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()

	assert.False(t, collector.HasErrors())
	assert.NoError(t, collector.Err())

	collector.AddError(nil)
	assert.False(t, collector.HasErrors())

	collector.AddError(NewValidationError(ErrCodeComponentConfig, "bad yaml").WithComponent("button"))
	collector.AddError(fmt.Errorf("plain"))

	assert.True(t, collector.HasErrors())
	assert.Len(t, collector.GetAllErrors(), 2)
	assert.Error(t, collector.Err())

	collector.Clear()
	assert.False(t, collector.HasErrors())
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil, nil))

	single := fmt.Errorf("one")
	assert.Equal(t, single, CombineErrors(nil, single))

	combined := CombineErrors(fmt.Errorf("one"), NewNotFoundError("@x"))
	assert.Contains(t, combined.Error(), "2 errors")
	assert.True(t, IsNotFound(combined))
}

type recordingLogger struct {
	warns  []string
	errors []string
}

func (r *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.errors = append(r.errors, msg)
}

func (r *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.warns = append(r.warns, msg)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, NewNotFoundError("@x"))
	handler.Handle(ctx, NewIOError(ErrCodeMapWrite, "write failed", fmt.Errorf("disk full")))
	handler.Handle(ctx, fmt.Errorf("plain"))

	assert.Len(t, logger.warns, 1)
	assert.Len(t, logger.errors, 2)
}
