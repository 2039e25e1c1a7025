package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-guard-companion/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValueAndPtr(t *testing.T) {
	require.Equal(t, 0, utils.Value[int](nil))
	require.Equal(t, "x", utils.Value(utils.Ptr("x")))
}

func TestPtrIfSet(t *testing.T) {
	require.Nil(t, utils.PtrIfSet(""))
	require.Nil(t, utils.PtrIfSet(0))
	require.Equal(t, "ABC-123", *utils.PtrIfSet("ABC-123"))
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "", utils.FirstNonEmpty())
	require.Equal(t, "Unknown", utils.FirstNonEmpty("", "Unknown"))
	require.Equal(t, "Gate 1", utils.FirstNonEmpty("Gate 1", "Unknown"))
}
