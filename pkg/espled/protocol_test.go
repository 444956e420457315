package espled

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEncoding(t *testing.T) {
	testCases := []struct {
		req    *Request
		expect string
	}{
		{&Request{Kind: GetEffects}, `"GetEffects"`},
		{&Request{Kind: GetEffect}, `"GetEffect"`},
		{&Request{Kind: GetParameters}, `"GetParameters"`},
		{&Request{Kind: GetName}, `"GetName"`},
		{NewSetEffect(2), `{"SetEffect":2}`},
		{NewSetOption("speed", FloatParam(0.5)), `{"SetOption":["speed",{"Float":0.5}]}`},
		{
			NewSetOption("color", ColorParam(Color{Red: 255, Blue: 64})),
			`{"SetOption":["color",{"Color":{"red":255,"green":0,"blue":64}}]}`,
		},
	}
	for _, tc := range testCases {
		t.Run(string(tc.req.Kind), func(t *testing.T) {
			cmd, err := tc.req.Encode()
			require.NoError(t, err)
			require.Equal(t, tc.expect, cmd)
		})
	}

	_, err := (&Request{Kind: "Reboot"}).Encode()
	require.Error(t, err)
	_, err = NewSetOption("empty", Parameter{}).Encode()
	require.Error(t, err)
}

func TestParameterDecoding(t *testing.T) {
	var params map[string]Parameter
	require.NoError(t, json.Unmarshal([]byte(`{"speed":{"Float":1.5},"tint":{"Color":{"red":1,"green":2,"blue":3}}}`), &params))
	require.Len(t, params, 2)
	require.NotNil(t, params["speed"].Float)
	assert.Equal(t, 1.5, *params["speed"].Float)
	assert.Equal(t, "1.5", params["speed"].String())
	require.NotNil(t, params["tint"].Color)
	assert.Equal(t, Color{1, 2, 3}, *params["tint"].Color)
	assert.Equal(t, "#010203", params["tint"].String())

	var p Parameter
	require.Error(t, json.Unmarshal([]byte(`{}`), &p))
	require.Error(t, json.Unmarshal([]byte(`{"Float":1,"Color":{"red":1,"green":1,"blue":1}}`), &p))
}

func TestParseParameter(t *testing.T) {
	p, err := ParseParameter("#00ff80")
	require.NoError(t, err)
	require.Equal(t, Color{0, 255, 128}, *p.Color)

	p, err = ParseParameter("0.25")
	require.NoError(t, err)
	require.Equal(t, 0.25, *p.Float)

	_, err = ParseParameter("bright")
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = ParseParameter("#12")
	require.Error(t, err)
}

func TestColor(t *testing.T) {
	c, err := ParseColor("ff0040")
	require.NoError(t, err)
	assert.Equal(t, Color{255, 0, 64}, c)
	assert.Equal(t, uint32(0xff0040), c.Uint32())
	assert.Equal(t, "#ff0040", c.String())
	assert.Equal(t, c, ColorFromUint32(0xff0040))

	_, err = ParseColor("#gg0000")
	assert.Error(t, err)

	assert.Equal(t, Color{255, 0, 0}, FromHSV(0, 1, 1))
	assert.Equal(t, Color{0, 255, 0}, FromHSV(120, 1, 1))
	assert.Equal(t, Color{0, 0, 255}, FromHSV(240, 1, 1))
	assert.Equal(t, Color{255, 255, 255}, FromHSV(200, 0, 1))
	assert.Equal(t, Color{0, 0, 0}, FromHSV(400, 1, 1))
}
