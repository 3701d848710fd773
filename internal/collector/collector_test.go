package collector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleveque/mercado-futuro/internal/model"
)

func TestCollect_NormalizesSymbol(t *testing.T) {
	req, err := Collect(RawInput{Symbol: " aapl ", Timeframe: "1-day"})
	require.NoError(t, err)

	assert.Equal(t, model.PredictionRequest{
		Symbol:         "AAPL",
		Timeframe:      model.Timeframe1Day,
		ImportantEvent: "",
		CurrentPrice:   nil,
	}, req)
}

func TestCollect_ParsesPriceAndTrimsEvent(t *testing.T) {
	req, err := Collect(RawInput{
		Symbol:         "msft",
		Timeframe:      "3-months",
		ImportantEvent: "  resultados trimestrales \n",
		CurrentPrice:   " 150.75 ",
	})
	require.NoError(t, err)

	require.NotNil(t, req.CurrentPrice)
	assert.InDelta(t, 150.75, *req.CurrentPrice, 1e-9)
	assert.Equal(t, "resultados trimestrales", req.ImportantEvent)
	assert.Equal(t, model.Timeframe3Months, req.Timeframe)
}

func TestCollect_DefaultsTimeframe(t *testing.T) {
	req, err := Collect(RawInput{Symbol: "tsla"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTimeframe, req.Timeframe)
}

func TestCollect_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    RawInput
		field string
	}{
		{"empty symbol", RawInput{Symbol: ""}, FieldSymbol},
		{"blank symbol", RawInput{Symbol: "   \t"}, FieldSymbol},
		{"unknown timeframe", RawInput{Symbol: "AAPL", Timeframe: "2-days"}, FieldTimeframe},
		{"non-numeric price", RawInput{Symbol: "AAPL", CurrentPrice: "abc"}, FieldCurrentPrice},
		{"NaN price", RawInput{Symbol: "AAPL", CurrentPrice: "NaN"}, FieldCurrentPrice},
		{"infinite price", RawInput{Symbol: "AAPL", CurrentPrice: "+Inf"}, FieldCurrentPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Collect(tt.in)
			require.Error(t, err)

			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected *FieldError, got %T", err)
			assert.Equal(t, tt.field, fe.Field)
			assert.NotEmpty(t, fe.Message)
		})
	}
}

func TestCollect_ZeroPriceIsKeptButNotAnAnchor(t *testing.T) {
	req, err := Collect(RawInput{Symbol: "AAPL", CurrentPrice: "0"})
	require.NoError(t, err)
	require.NotNil(t, req.CurrentPrice)
	assert.False(t, req.HasCurrentPrice())
}
