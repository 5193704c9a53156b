package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{ConversionPending, ConversionApproved},
		{ConversionPending, ConversionPaid},
		{ConversionPending, ConversionRejected},
		{ConversionApproved, ConversionPaid},
		{ConversionApproved, ConversionRejected},
		{ConversionPaid, ConversionPaid},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]string{
		{ConversionApproved, ConversionPending},
		{ConversionPaid, ConversionPending},
		{ConversionPaid, ConversionApproved},
		{ConversionPaid, ConversionRejected},
		{ConversionRejected, ConversionPending},
		{ConversionRejected, ConversionApproved},
		{ConversionPending, "UNKNOWN"},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}
