package cloudinary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReceiptURL(t *testing.T) {
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/receipts/payout-7",
		BuildReceiptURL("demo", "receipts/payout-7"))
}

func TestNewClientFromParams(t *testing.T) {
	c, err := NewClientFromParams("demo", "key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
