package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/common"
)

func TestParseTags(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    []string
		wantErr string
	}{
		{name: "empty", raw: "", want: []string{}},
		{name: "array", raw: `["go", "web"]`, want: []string{"go", "web"}},
		{name: "blank tags dropped", raw: `["go", "  ", ""]`, want: []string{"go"}},
		{name: "not json", raw: `go,web`, wantErr: MsgInvalidTagsJSON},
		{name: "not an array", raw: `{"tag": "go"}`, wantErr: MsgInvalidTagsJSON},
		{name: "fifteen tags", raw: `["1","2","3","4","5","6","7","8","9","10","11","12","13","14","15"]`, want: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15"}},
		{name: "sixteen tags", raw: `["1","2","3","4","5","6","7","8","9","10","11","12","13","14","15","16"]`, wantErr: MsgTooManyTags},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tags, err := parseTags(tc.raw)
			if tc.wantErr != "" {
				var e *common.Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, common.KindValidation, e.Kind)
				assert.Equal(t, tc.wantErr, e.Message)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.want, tags)
		})
	}
}

func TestValidateURL(t *testing.T) {
	testCases := []struct {
		url   string
		valid bool
	}{
		{url: "", valid: false},
		{url: "ab", valid: false},
		{url: "writing-go", valid: true},
		{url: "go-1-22-release", valid: true},
		{url: "Writing-Go", valid: false},
		{url: "writing go", valid: false},
		{url: "-writing", valid: false},
		{url: "writing--go", valid: false},
		{url: "../etc/passwd", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			v := common.NewValidator()
			validateURL(v, tc.url)
			assert.Equal(t, tc.valid, v.Valid(), v.Errors)
		})
	}
}

func TestValidateTitle(t *testing.T) {
	v := common.NewValidator()
	validateTitle(v, "Go")
	assert.False(t, v.Valid())

	v = common.NewValidator()
	validateTitle(v, "Go: what's new in 1.22?")
	assert.True(t, v.Valid())
}
