package fault

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"plain", errors.New("x"), Unknown},
		{"nil", nil, Unknown},
		{"direct", New(Schema, "no image"), Schema},
		{"wrapped fault", Wrap(Persistence, io.ErrShortWrite, "write sha"), Persistence},
		{"annotated fault", errors.WithMessage(Errorf(Transport, "status %d", 404), "fetch"), Transport},
		{"outermost wins", Wrap(Apply, New(Parse, "inner"), "outer"), Apply},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, KindOf(tc.err))
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(Apply, nil, "nothing"))
	assert.NoError(t, Wrapf(Apply, nil, "nothing %d", 1))
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(Persistence, io.ErrShortWrite, "write sha")
	assert.Equal(t, "persistence error: write sha: short write", err.Error())
	assert.Equal(t, io.ErrShortWrite, errors.Cause(err))
	assert.True(t, Is(err, Persistence))
	assert.False(t, Is(err, Apply))
}
