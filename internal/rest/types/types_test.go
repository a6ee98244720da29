package types_test

import (
	"testing"

	"github.com/biasnet/influence/internal/database/types/enum"
	restTypes "github.com/biasnet/influence/internal/rest/types"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndorsementTypeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    enum.EndorsementType
		known   bool
		wantErr bool
	}{
		{name: "number", body: `{"endorsement_type": 2}`, want: enum.EndorsementTypeStrong, known: true},
		{name: "negative number", body: `{"endorsement_type": -1}`, want: enum.EndorsementTypeDisapprove, known: true},
		{name: "name", body: `{"endorsement_type": "exceptional"}`, want: enum.EndorsementTypeExceptional, known: true},
		{name: "unknown number", body: `{"endorsement_type": 9}`, want: 9},
		{name: "unknown name", body: `{"endorsement_type": "superb"}`},
		{name: "missing", body: `{}`},
		{name: "null", body: `{"endorsement_type": null}`},
		{name: "fraction", body: `{"endorsement_type": 1.5}`, wantErr: true},
		{name: "object", body: `{"endorsement_type": {}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req restTypes.ApplyEndorsementRequest
			err := sonic.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			got, known := req.EndorsementType.Type()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}
