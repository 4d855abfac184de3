package bookclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
)

func TestLocal_Exists(t *testing.T) {
	tests := []struct {
		name      string
		lookupErr error
		wantFound bool
		wantErr   bool
	}{
		{"found", nil, true, false},
		{"not found", apperrors.NotFound("book", 5), false, false},
		{"wrapped not found", errors.Join(errors.New("get book"), apperrors.ErrNotFound), false, false},
		{"storage failure", errors.New("pool closed"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := NewLocal(func(_ context.Context, id int64) error {
				assert.Equal(t, int64(5), id)
				return tt.lookupErr
			})

			found, err := local.Exists(context.Background(), 5)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUpstreamUnavailable)
				assert.ErrorIs(t, err, tt.lookupErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
